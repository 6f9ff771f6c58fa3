// Package config loads callflow settings from a TOML file with CALLFLOW_*
// environment overrides.
//
// Precedence: built-in defaults, then the file (only keys that are present),
// then the environment. Load validates the result.
//
//	[server]
//	addr = ":8080"
//	callback_base_uri = "https://callflow.example.com"
//
//	[workflow]
//	name = "contoso_bank"
//	agent_targets = ["8:acs:agent-1"]
//	post_add_action = "hangup_all"
//
//	[engine]
//	max_retries = 3
//	idle_timeout = "30m"
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/tracker"
)

// Workflow names.
const (
	WorkflowContosoBank         = "contoso_bank"
	WorkflowSimpleIVR           = "simple_ivr"
	WorkflowAppointmentReminder = "appointment_reminder"
)

// Intent providers.
const (
	IntentNone      = "none"
	IntentOpenAI    = "openai"
	IntentAnthropic = "anthropic"
)

// Duration is a time.Duration read from a TOML string such as "30m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete callflow configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Workflow WorkflowConfig `toml:"workflow"`
	Engine   EngineConfig   `toml:"engine"`
	Intent   IntentConfig   `toml:"intent"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig configures the webhook front door.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// CallbackBaseURI is the public base URL the platform posts events to.
	CallbackBaseURI string `toml:"callback_base_uri"`
	// MetricsPath serves Prometheus metrics; empty disables it.
	MetricsPath string `toml:"metrics_path"`
}

// WorkflowConfig selects and tunes the call workflow.
type WorkflowConfig struct {
	Name string `toml:"name"`
	// SpeechEndpoint is the cognitive services endpoint used for
	// text-to-speech and speech recognition.
	SpeechEndpoint string `toml:"speech_endpoint"`
	Voice          string `toml:"voice"`
	Locale         string `toml:"locale"`
	PINLength      int    `toml:"pin_length"`
	AudioBaseURL   string `toml:"audio_base_url"`
	RecordCalls    bool   `toml:"record_calls"`
	// Transcribe starts live transcription in Locale when a call connects.
	Transcribe bool `toml:"transcribe"`
	// AgentTargets are invited on an agent request.
	AgentTargets []string `toml:"agent_targets"`
	// CallerID is presented to invited participants and outbound callees.
	CallerID      string `toml:"caller_id"`
	PostAddAction string `toml:"post_add_action"`
}

// EngineConfig tunes the event pipeline.
type EngineConfig struct {
	MaxRetries         int      `toml:"max_retries"`
	IdleTimeout        Duration `toml:"idle_timeout"`
	JanitorInterval    Duration `toml:"janitor_interval"`
	FilteredEvents     []string `toml:"filtered_events"`
	MaxConcurrentCalls int      `toml:"max_concurrent_calls"`
}

// IntentConfig enables the LLM fallback for free-speech menu selection.
type IntentConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`

	// MaxInFlight caps concurrent model classifications; 0 is unlimited.
	MaxInFlight int `toml:"max_in_flight"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CallbackBaseURI: "http://localhost:8080",
			MetricsPath:     "/metrics",
		},
		Workflow: WorkflowConfig{
			Name:          WorkflowContosoBank,
			Voice:         "en-US-GuyNeural",
			Locale:        "en-US",
			PINLength:     4,
			AudioBaseURL:  "http://localhost:8080/audio",
			RecordCalls:   true,
			PostAddAction: "none",
		},
		Engine: EngineConfig{
			MaxRetries:         3,
			IdleTimeout:        Duration(30 * time.Minute),
			JanitorInterval:    Duration(time.Minute),
			FilteredEvents:     []string{string(core.EventContinuousDtmfToneReceived)},
			MaxConcurrentCalls: 64,
		},
		Intent: IntentConfig{Provider: IntentNone, MaxInFlight: 8},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (skipped when empty), applies the process environment and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults without environment overrides.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides fields from CALLFLOW_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok {
			*dst = splitList(v)
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *Duration) {
		if v, ok := lookup(key); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	str("CALLFLOW_ADDR", &c.Server.Addr)
	str("CALLFLOW_CALLBACK_BASE_URI", &c.Server.CallbackBaseURI)
	str("CALLFLOW_METRICS_PATH", &c.Server.MetricsPath)

	str("CALLFLOW_WORKFLOW", &c.Workflow.Name)
	str("CALLFLOW_SPEECH_ENDPOINT", &c.Workflow.SpeechEndpoint)
	str("CALLFLOW_VOICE", &c.Workflow.Voice)
	str("CALLFLOW_LOCALE", &c.Workflow.Locale)
	num("CALLFLOW_PIN_LENGTH", &c.Workflow.PINLength)
	str("CALLFLOW_AUDIO_BASE_URL", &c.Workflow.AudioBaseURL)
	flag("CALLFLOW_RECORD_CALLS", &c.Workflow.RecordCalls)
	flag("CALLFLOW_TRANSCRIBE", &c.Workflow.Transcribe)
	list("CALLFLOW_AGENT_TARGETS", &c.Workflow.AgentTargets)
	str("CALLFLOW_CALLER_ID", &c.Workflow.CallerID)
	str("CALLFLOW_POST_ADD_ACTION", &c.Workflow.PostAddAction)

	num("CALLFLOW_MAX_RETRIES", &c.Engine.MaxRetries)
	dur("CALLFLOW_IDLE_TIMEOUT", &c.Engine.IdleTimeout)
	dur("CALLFLOW_JANITOR_INTERVAL", &c.Engine.JanitorInterval)
	list("CALLFLOW_FILTERED_EVENTS", &c.Engine.FilteredEvents)
	num("CALLFLOW_MAX_CONCURRENT_CALLS", &c.Engine.MaxConcurrentCalls)

	str("CALLFLOW_INTENT_PROVIDER", &c.Intent.Provider)
	str("CALLFLOW_INTENT_MODEL", &c.Intent.Model)
	num("CALLFLOW_INTENT_MAX_IN_FLIGHT", &c.Intent.MaxInFlight)

	str("CALLFLOW_LOG_LEVEL", &c.Log.Level)
	str("CALLFLOW_LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Server.CallbackBaseURI); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.callback_base_uri must be an absolute http(s) URL, got %q", c.Server.CallbackBaseURI))
	}
	if c.Server.MetricsPath != "" && !strings.HasPrefix(c.Server.MetricsPath, "/") {
		errs = append(errs, fmt.Errorf("server.metrics_path must start with '/', got %q", c.Server.MetricsPath))
	}

	switch c.Workflow.Name {
	case WorkflowContosoBank, WorkflowSimpleIVR, WorkflowAppointmentReminder:
	default:
		errs = append(errs, fmt.Errorf("workflow.name must be one of %s, %s, %s, got %q",
			WorkflowContosoBank, WorkflowSimpleIVR, WorkflowAppointmentReminder, c.Workflow.Name))
	}
	if c.Workflow.Transcribe && c.Workflow.Locale == "" {
		errs = append(errs, fmt.Errorf("workflow.locale is required when workflow.transcribe is set"))
	}
	if c.Workflow.PINLength < 1 || c.Workflow.PINLength > 12 {
		errs = append(errs, fmt.Errorf("workflow.pin_length must be between 1 and 12, got %d", c.Workflow.PINLength))
	}
	if _, err := tracker.ParsePostAddAction(c.Workflow.PostAddAction); err != nil {
		errs = append(errs, fmt.Errorf("workflow.post_add_action: %w", err))
	}

	if c.Engine.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("engine.max_retries must be at least 1, got %d", c.Engine.MaxRetries))
	}
	if c.Engine.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("engine.idle_timeout must not be negative"))
	}
	if c.Engine.MaxConcurrentCalls < 0 {
		errs = append(errs, fmt.Errorf("engine.max_concurrent_calls must not be negative"))
	}
	for _, k := range c.Engine.FilteredEvents {
		if !core.EventKind(k).Known() {
			errs = append(errs, fmt.Errorf("engine.filtered_events: unknown event type %q", k))
		}
	}

	switch c.Intent.Provider {
	case "", IntentNone, IntentOpenAI, IntentAnthropic:
	default:
		errs = append(errs, fmt.Errorf("intent.provider must be one of none, openai, anthropic, got %q", c.Intent.Provider))
	}
	if c.Intent.MaxInFlight < 0 {
		errs = append(errs, fmt.Errorf("intent.max_in_flight must not be negative"))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// PostAdd returns the parsed post-add action.
func (c Config) PostAdd() tracker.PostAddAction {
	a, _ := tracker.ParsePostAddAction(c.Workflow.PostAddAction)
	return a
}

// TranscribeLocale returns the live transcription locale, or "" when
// transcription is off.
func (c Config) TranscribeLocale() string {
	if !c.Workflow.Transcribe {
		return ""
	}
	return c.Workflow.Locale
}

// FilteredKinds returns the filtered event types as event kinds.
func (c Config) FilteredKinds() []core.EventKind {
	out := make([]core.EventKind, 0, len(c.Engine.FilteredEvents))
	for _, k := range c.Engine.FilteredEvents {
		out = append(out, core.EventKind(k))
	}
	return out
}
