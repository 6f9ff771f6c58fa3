// Package engine implements the per-call event pipeline of callflow.
//
// The Engine sits between the webhook front door and the platform client.
// Each inbound event is a fresh invocation: nothing ever blocks waiting for
// the completion of an earlier action, because that completion arrives later
// as just another event.
//
// # Pipeline
//
//	┌──────────────┐   ┌──────────────┐   ┌──────────────┐   ┌──────────────┐
//	│ noise filter │ → │  call lock   │ → │ correlation  │ → │   workflow   │
//	└──────────────┘   └──────────────┘   └──────────────┘   └──────┬───────┘
//	                                                                 │ Decision
//	┌──────────────┐   ┌──────────────┐   ┌──────────────┐   ┌──────▼───────┐
//	│  callbacks   │ ← │   trackers   │ ← │   executor   │ ← │ retry policy │
//	└──────────────┘   └──────────────┘   └──────────────┘   └──────────────┘
//
// Correlation rules:
//   - CallConnected creates the session; a repeated CallConnected is dropped
//   - every other event needs a live session, unknown calls are dropped
//   - play and recognize outcomes must carry the pending tag, anything else
//     is stale and dropped without touching the session
//   - invite outcomes must carry an outstanding invite tag
//   - CallDisconnected removes the session
//
// # Usage
//
//	eng := engine.New(workflow.NewContosoBank(), client, func(o *engine.Options) {
//	    o.Logger = logger
//	})
//	eng.StartJanitor(ctx)
//	results := eng.HandleBatch(ctx, events)
//
// # Concurrency Model
//
// A batch is partitioned by call connection id. Partitions are handled on
// their own goroutines, bounded by Config.MaxConcurrentCalls, and events
// inside a partition keep their delivery order. All access to one session
// happens under that call's lock; the workflow only ever sees a Clone.
//
// # Error Handling
//
// Nothing is surfaced to the webhook caller. Every event yields a Result
// (handled or dropped with a DropReason); platform rejections are turned
// into failure events and routed through the workflow, and anything the
// workflow cannot recover from ends in the fallback path: one apology
// prompt, then hang-up.
//
// # Extensibility
//
// CallbackManager exposes lifecycle hooks (events, drops, transitions,
// actions, retries, fallbacks, session start and end). The metrics package
// registers its collectors through them.
package engine
