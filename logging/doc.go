// Package logging provides the Logger abstraction used across callflow.
//
// A small Logger interface (Debug/Info/Warn/Error with slog-style key/value
// pairs) is accepted by every component. Adapters are provided for *slog.Logger
// (SlogAdapter), a richer CallLogger with call / component scoping and call
// specific helpers, and a NoOpLogger for tests or disabled logging.
package logging
