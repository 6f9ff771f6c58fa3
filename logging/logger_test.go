package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*CallLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	return NewLogger(cfg), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	return m
}

func TestCallLogger_WithCallAddsAttributes(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	l.WithComponent("engine").WithCall("call-1", "corr-1").Info("handled", "step", "Greeting")

	m := decodeLine(t, buf)
	assert.Equal(t, "handled", m["msg"])
	assert.Equal(t, "engine", m["component"])
	assert.Equal(t, "call-1", m["call_connection_id"])
	assert.Equal(t, "corr-1", m["correlation_id"])
	assert.Equal(t, "Greeting", m["step"])
}

func TestCallLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.NotZero(t, buf.Len())
}

func TestLogActionFailure(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	LogAction(l, "play", "Greeting", "Greeting.1.1.abcd", errors.New("rejected"))

	m := decodeLine(t, buf)
	assert.Equal(t, "ERROR", m["level"])
	assert.Equal(t, "rejected", m["error"])
	assert.Equal(t, "Greeting.1.1.abcd", m["operation_context"])
}

func TestForCall(t *testing.T) {
	t.Run("call logger", func(t *testing.T) {
		l, buf := newBufferLogger(LogLevelInfo)

		LogTransition(ForCall(l, "call-1", "corr-1"), "RecognizeCompleted", "MainMenu", "AgentTransfer")

		m := decodeLine(t, buf)
		assert.Equal(t, "call-1", m["call_connection_id"])
		assert.Equal(t, "corr-1", m["correlation_id"])
		assert.Equal(t, "MainMenu", m["from_step"])
		assert.Equal(t, "AgentTransfer", m["to_step"])
	})

	t.Run("slog adapter", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewSlogAdapter(slog.New(slog.NewJSONHandler(buf, nil)))

		LogDrop(ForCall(l, "call-2", ""), "PlayCompleted", "stale", "Greeting.1.1.abcd")

		m := decodeLine(t, buf)
		assert.Equal(t, "call-2", m["call_connection_id"])
		assert.NotContains(t, m, "correlation_id")
		assert.Equal(t, "stale", m["reason"])
	})
}

func TestLogLLMCall(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	LogLLMCall(l, "gpt-4o-mini", 0, nil)
	assert.Zero(t, buf.Len())

	LogLLMCall(l, "gpt-4o-mini", 0, errors.New("quota"))
	m := decodeLine(t, buf)
	assert.Equal(t, "WARN", m["level"])
	assert.Equal(t, "gpt-4o-mini", m["model"])
}

func TestWith(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	With(l, "component", "executor").Info("x")
	assert.Equal(t, "executor", decodeLine(t, buf)["component"])

	assert.Equal(t, NoOpLogger{}, With(nil, "a", 1))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
}
