package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/tracker"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Engine.MaxRetries)
	assert.Equal(t, []core.EventKind{core.EventContinuousDtmfToneReceived}, cfg.FilteredKinds())
}

func TestParseOverridesOnlyPresentKeys(t *testing.T) {
	cfg, err := Parse(`
[server]
callback_base_uri = "https://calls.example.com"

[workflow]
name = "simple_ivr"
agent_targets = ["+14255550000"]
post_add_action = "remove_added"

[engine]
max_retries = 2
idle_timeout = "5m"
`)
	require.NoError(t, err)

	assert.Equal(t, "https://calls.example.com", cfg.Server.CallbackBaseURI)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, WorkflowSimpleIVR, cfg.Workflow.Name)
	assert.Equal(t, 4, cfg.Workflow.PINLength)
	assert.Equal(t, []string{"+14255550000"}, cfg.Workflow.AgentTargets)
	assert.Equal(t, tracker.PostAddRemoveAdded, cfg.PostAdd())
	assert.Equal(t, 2, cfg.Engine.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.Engine.IdleTimeout.Std())
	assert.Equal(t, time.Minute, cfg.Engine.JanitorInterval.Std())
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"CALLFLOW_CALLBACK_BASE_URI": " https://cb.example ",
		"CALLFLOW_AGENT_TARGETS":     "8:acs:a, 8:acs:b,",
		"CALLFLOW_MAX_RETRIES":       "5",
		"CALLFLOW_RECORD_CALLS":      "false",
		"CALLFLOW_IDLE_TIMEOUT":      "90s",
		"CALLFLOW_INTENT_PROVIDER":   "openai",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://cb.example", cfg.Server.CallbackBaseURI)
	assert.Equal(t, []string{"8:acs:a", "8:acs:b"}, cfg.Workflow.AgentTargets)
	assert.Equal(t, 5, cfg.Engine.MaxRetries)
	assert.False(t, cfg.Workflow.RecordCalls)
	assert.Equal(t, 90*time.Second, cfg.Engine.IdleTimeout.Std())
	assert.Equal(t, IntentOpenAI, cfg.Intent.Provider)
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"CALLFLOW_MAX_RETRIES":  "many",
		"CALLFLOW_IDLE_TIMEOUT": "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CALLFLOW_MAX_RETRIES")
	assert.Contains(t, err.Error(), "CALLFLOW_IDLE_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"relative callback", func(c *Config) { c.Server.CallbackBaseURI = "/cb" }, "callback_base_uri"},
		{"unknown workflow", func(c *Config) { c.Workflow.Name = "pizza" }, "workflow.name"},
		{"zero retries", func(c *Config) { c.Engine.MaxRetries = 0 }, "max_retries"},
		{"bad post add", func(c *Config) { c.Workflow.PostAddAction = "explode" }, "post_add_action"},
		{"unknown filtered event", func(c *Config) { c.Engine.FilteredEvents = []string{"Nope"} }, "filtered_events"},
		{"bad provider", func(c *Config) { c.Intent.Provider = "oracle" }, "intent.provider"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"pin too long", func(c *Config) { c.Workflow.PINLength = 40 }, "pin_length"},
		{"transcribe without locale", func(c *Config) { c.Workflow.Transcribe = true; c.Workflow.Locale = "" }, "workflow.locale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "callflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nformat = \"json\"\n"), 0o600))
	t.Setenv("CALLFLOW_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestTranscribeLocale(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.TranscribeLocale())

	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"CALLFLOW_TRANSCRIBE": "true",
		"CALLFLOW_WORKFLOW":   WorkflowAppointmentReminder,
	})))
	assert.Equal(t, "en-US", cfg.TranscribeLocale())
	assert.NoError(t, cfg.Validate())
}
