// Package callflow wires the call event engine, a workflow, the webhook
// front door and metrics from one configuration. Most applications:
//  1. Load a config.Config (file and CALLFLOW_* environment)
//  2. Create a Callflow via New() with their platform core.CallClient
//  3. Serve Handler() and call Start() to run idle eviction
//
// Every store defaults to an in-memory implementation; production
// deployments typically supply their own.
package callflow

import (
	"context"
	"fmt"
	"net/http"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/callflow/config"
	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/engine"
	"github.com/hupe1980/callflow/intent"
	"github.com/hupe1980/callflow/logging"
	"github.com/hupe1980/callflow/metrics"
	"github.com/hupe1980/callflow/model"
	"github.com/hupe1980/callflow/model/anthropic"
	"github.com/hupe1980/callflow/model/openai"
	"github.com/hupe1980/callflow/policy"
	"github.com/hupe1980/callflow/tracker"
	"github.com/hupe1980/callflow/webhook"
	"github.com/hupe1980/callflow/workflow"
)

// Options configures a Callflow instance.
type Options struct {
	// Config defaults to config.Default().
	Config config.Config

	// Machine overrides the workflow selected by Config.Workflow.Name.
	Machine workflow.Machine

	// Model overrides the intent model selected by Config.Intent.Provider.
	Model model.Model

	// Stores (defaults to in-memory implementations if not provided)
	SessionStore   core.SessionStore
	RecordingStore core.RecordingStore

	// DisableMetrics skips collector registration and the metrics route.
	DisableMetrics bool

	// Logger defaults to a slog logger built from Config.Log.
	Logger logging.Logger
}

// Callflow is the high-level façade aggregating engine, webhook and metrics.
type Callflow struct {
	opts    Options
	engine  *engine.Engine
	webhook *webhook.Handler
}

// New creates a Callflow driving client. It fails only on invalid
// configuration.
func New(client core.CallClient, optFns ...func(o *Options)) (*Callflow, error) {
	opts := Options{Config: config.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("callflow: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewSlogLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, false)
	}

	if opts.Machine == nil {
		opts.Machine = newMachine(cfg, opts.Model, logging.With(opts.Logger, "component", "intent"))
	}

	eng := engine.New(opts.Machine, client, func(o *engine.Options) {
		o.Config = engine.Config{
			IdleTimeout:        cfg.Engine.IdleTimeout.Std(),
			JanitorInterval:    cfg.Engine.JanitorInterval.Std(),
			FilteredEvents:     cfg.FilteredKinds(),
			MaxConcurrentCalls: cfg.Engine.MaxConcurrentCalls,
		}
		o.SessionStore = opts.SessionStore
		o.RecordingStore = opts.RecordingStore
		o.Policy = policy.New(func(p *policy.Options) { p.MaxRetries = cfg.Engine.MaxRetries })
		o.Participants = tracker.NewParticipants(cfg.PostAdd())
		o.Logger = logging.With(opts.Logger, "component", "engine")
	})
	if !opts.DisableMetrics {
		metrics.Instrument(eng.Callbacks())
	}

	wh := webhook.New(eng, func(o *webhook.Options) {
		o.CallbackBaseURI = cfg.Server.CallbackBaseURI
		o.SourceCallerID = cfg.Workflow.CallerID
		o.Logger = logging.With(opts.Logger, "component", "webhook")
	})

	opts.Logger.Info("Callflow configured",
		"workflow", opts.Machine.Name(),
		"intent_provider", cfg.Intent.Provider,
		"max_retries", cfg.Engine.MaxRetries,
		"post_add_action", cfg.PostAdd().String())

	return &Callflow{opts: opts, engine: eng, webhook: wh}, nil
}

// Engine returns the underlying engine.
func (c *Callflow) Engine() *engine.Engine { return c.engine }

// Config returns the effective configuration.
func (c *Callflow) Config() config.Config { return c.opts.Config }

// Handler returns the HTTP routes: incoming calls, callbacks and, unless
// disabled, metrics.
func (c *Callflow) Handler() http.Handler {
	mux := http.NewServeMux()
	wrap := func(path string, h http.HandlerFunc) http.Handler {
		if c.opts.DisableMetrics {
			return h
		}
		return metrics.HTTPMiddleware(path, h)
	}
	mux.Handle(webhook.IncomingCallPath, wrap(webhook.IncomingCallPath, c.webhook.IncomingCall))
	mux.Handle(webhook.CallbacksPath, wrap(webhook.CallbacksPath, c.webhook.Callbacks))
	mux.Handle(webhook.OutboundCallPath, wrap(webhook.OutboundCallPath, c.webhook.OutboundCall))
	if path := c.opts.Config.Server.MetricsPath; path != "" && !c.opts.DisableMetrics {
		mux.Handle(path, metrics.Handler())
	}
	return mux
}

// Start runs background maintenance until ctx is done.
func (c *Callflow) Start(ctx context.Context) {
	c.engine.StartJanitor(ctx)
}

func newMachine(cfg config.Config, m model.Model, logger logging.Logger) workflow.Machine {
	voice := workflow.Voice{Name: cfg.Workflow.Voice, Locale: cfg.Workflow.Locale, Style: workflow.DefaultVoice.Style}

	switch cfg.Workflow.Name {
	case config.WorkflowAppointmentReminder:
		return workflow.NewAppointmentReminder(func(o *workflow.AppointmentReminderOptions) {
			o.Voice = workflow.Voice{Name: cfg.Workflow.Voice, Locale: cfg.Workflow.Locale}
			o.TranscribeLocale = cfg.TranscribeLocale()
			o.RecordCalls = cfg.Workflow.RecordCalls
		})
	case config.WorkflowSimpleIVR:
		return workflow.NewSimpleIVR(func(o *workflow.SimpleIVROptions) {
			o.AudioBaseURL = cfg.Workflow.AudioBaseURL
			if len(cfg.Workflow.AgentTargets) > 0 {
				o.AgentTarget = cfg.Workflow.AgentTargets[0]
			}
			o.CallerID = cfg.Workflow.CallerID
			o.RecordCalls = cfg.Workflow.RecordCalls
		})
	}

	return workflow.NewContosoBank(func(o *workflow.ContosoBankOptions) {
		o.Voice = voice
		o.PINLength = cfg.Workflow.PINLength
		o.AgentTargets = cfg.Workflow.AgentTargets
		o.CallerID = cfg.Workflow.CallerID
		o.RecordCalls = cfg.Workflow.RecordCalls
		o.TranscribeLocale = cfg.TranscribeLocale()
		o.Classifier = newClassifier(cfg.Intent, m, logger)
	})
}

// newClassifier returns the keyword classifier, chained with a model
// classifier when an intent provider is configured.
func newClassifier(cfg config.IntentConfig, m model.Model, logger logging.Logger) intent.Classifier {
	classes := workflow.ContosoBankClasses()
	keyword := intent.NewKeyword(core.ToneNine, classes...)

	if m == nil {
		switch cfg.Provider {
		case config.IntentOpenAI:
			m = openai.NewModel(func(o *openai.Options) {
				if cfg.Model != "" {
					o.Model = cfg.Model
				}
			})
		case config.IntentAnthropic:
			m = anthropic.NewModel(func(o *anthropic.Options) {
				if cfg.Model != "" {
					o.Model = anthropicsdk.Model(cfg.Model)
				}
			})
		}
	}
	if m == nil {
		return keyword
	}
	return intent.Chain{keyword, intent.NewModel(m, core.ToneNine, classes...).
		WithLimiter(intent.NewLimiter(cfg.MaxInFlight)).
		WithLogger(logger)}
}
