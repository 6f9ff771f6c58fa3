// Package webhook is the HTTP front door of callflow.
//
// It decodes platform deliveries (CloudEvents, Event Grid envelopes and the
// flattened form), answers the Event Grid subscription handshake, answers
// incoming calls and hands call events to the engine in delivery order.
//
// The platform retries any non-2xx delivery, so handlers reply 200 for every
// readable body. Per-event outcomes are reported through the engine's
// Results and callbacks, never through the HTTP status.
package webhook
