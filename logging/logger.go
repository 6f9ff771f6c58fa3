package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config string to a LogLevel. Unknown values map to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface for callflow.
// Args are slog-style alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// CallLogger wraps slog.Logger adding call scoped attributes and domain
// helpers. With* methods return copies; the receiver is never modified.
type CallLogger struct {
	logger        *slog.Logger
	level         LogLevel
	context       map[string]any
	component     string
	callID        string
	correlationID string
}

// LoggerConfig configures construction of a CallLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, CustomAttrs: map[string]any{}}
}

// NewLogger builds a CallLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *CallLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	ctxAttrs := map[string]any{}
	for k, v := range cfg.CustomAttrs {
		ctxAttrs[k] = v
	}
	return &CallLogger{logger: slog.New(handler), level: cfg.Level, context: ctxAttrs, component: cfg.Component}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *CallLogger) clone() *CallLogger {
	nl := *l
	nl.context = make(map[string]any, len(l.context))
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *CallLogger) WithContext(key string, value any) *CallLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (engine, executor, webhook, ...).
func (l *CallLogger) WithComponent(c string) *CallLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithCall attaches the call connection and correlation identifiers.
func (l *CallLogger) WithCall(callID, correlationID string) *CallLogger {
	nl := l.clone()
	nl.callID = callID
	nl.correlationID = correlationID
	return nl
}

func (l *CallLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.callID != "" {
		attrs = append(attrs, slog.String("call_connection_id", l.callID))
	}
	if l.correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", l.correlationID))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *CallLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(l.buildAttrs()...)
	r.Add(args...)
	_ = l.logger.Handler().Handle(context.Background(), r)
}

// Debug logs at debug level.
func (l *CallLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *CallLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *CallLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *CallLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// ForCall returns a logger whose entries carry the call connection and
// correlation identifiers.
func ForCall(l Logger, callID, correlationID string) Logger {
	if cl, ok := l.(*CallLogger); ok {
		return cl.WithCall(callID, correlationID)
	}
	args := []any{"call_connection_id", callID}
	if correlationID != "" {
		args = append(args, "correlation_id", correlationID)
	}
	return With(l, args...)
}

// LogAction records the submission of an outbound platform action.
func LogAction(l Logger, kind, step, tag string, err error) {
	args := []any{"action", kind, "step", step, "operation_context", tag}
	if err != nil {
		l.Error("Action submission failed", append(args, "error", err.Error(), "error_type", fmt.Sprintf("%T", err))...)
		return
	}
	l.Debug("Action submitted", args...)
}

// LogTransition records a workflow step change caused by an event.
func LogTransition(l Logger, event, from, to string) {
	l.Info("Workflow transition", "event", event, "from_step", from, "to_step", to)
}

// LogDrop records an event that was intentionally not processed.
func LogDrop(l Logger, event, reason, tag string) {
	l.Info("Event dropped", "event", event, "reason", reason, "operation_context", tag)
}

// LogLLMCall records model call latency and outcome.
func LogLLMCall(l Logger, model string, dur time.Duration, err error) {
	if err != nil {
		l.Warn("LLM call failed", "model", model, "duration", dur, "error", err.Error())
		return
	}
	l.Debug("LLM call completed", "model", model, "duration", dur)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger creates a new CallLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *CallLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

// With returns a Logger that prefixes every entry with the given key/value
// pairs. CallLogger values keep their helpers; other loggers are wrapped.
func With(l Logger, args ...any) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	if len(args) == 0 {
		return l
	}
	switch v := l.(type) {
	case NoOpLogger:
		return v
	case *CallLogger:
		nl := v.clone()
		for i := 0; i+1 < len(args); i += 2 {
			if k, ok := args[i].(string); ok {
				nl.context[k] = args[i+1]
			}
		}
		return nl
	case *SlogAdapter:
		return &SlogAdapter{Logger: v.Logger.With(args...)}
	}
	return &prefixed{next: l, args: args}
}

type prefixed struct {
	next Logger
	args []any
}

func (p *prefixed) Debug(msg string, args ...any) { p.next.Debug(msg, append(p.args[:len(p.args):len(p.args)], args...)...) }
func (p *prefixed) Info(msg string, args ...any) { p.next.Info(msg, append(p.args[:len(p.args):len(p.args)], args...)...) }
func (p *prefixed) Warn(msg string, args ...any) { p.next.Warn(msg, append(p.args[:len(p.args):len(p.args)], args...)...) }
func (p *prefixed) Error(msg string, args ...any) { p.next.Error(msg, append(p.args[:len(p.args):len(p.args)], args...)...) }
