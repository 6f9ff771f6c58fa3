package workflow

import (
	"context"
	"time"

	"github.com/hupe1980/callflow/core"
)

// SimpleIVR steps.
const (
	StepIVRMenu    = "MainMenu"
	StepIVRClosing = "SimpleIVR"
	StepIVRAgent   = "AgentConnect"
)

// SimpleIVRAudio names the prompt files below the audio base URL.
type SimpleIVRAudio struct {
	MainMenu     string
	Sales        string
	Marketing    string
	CustomerCare string
	Agent        string
	Invalid      string
}

// SimpleIVROptions configures the SimpleIVR workflow.
type SimpleIVROptions struct {
	AudioBaseURL string
	Audio        SimpleIVRAudio
	// AgentTarget is invited when the caller presses 4.
	AgentTarget string
	// CallerID is presented to the invited agent.
	CallerID    string
	RecordCalls bool
}

// SimpleIVR is a one digit DTMF menu: 1 sales, 2 marketing, 3 customer care,
// 4 agent, 5 hang up.
type SimpleIVR struct {
	*Table
	opts SimpleIVROptions
}

// NewSimpleIVR creates the SimpleIVR workflow.
func NewSimpleIVR(optFns ...func(o *SimpleIVROptions)) *SimpleIVR {
	opts := SimpleIVROptions{
		AudioBaseURL: "http://localhost:8080/audio",
		Audio: SimpleIVRAudio{
			MainMenu:     "mainmenu.wav",
			Sales:        "sales.wav",
			Marketing:    "marketing.wav",
			CustomerCare: "customercare.wav",
			Agent:        "agent.wav",
			Invalid:      "invalid.wav",
		},
		RecordCalls: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &SimpleIVR{Table: NewTable("simple_ivr"), opts: opts}
	s.On(StepNone, core.EventCallConnected, s.onConnected).
		OnVariant(StepIVRMenu, core.EventRecognizeCompleted, core.VariantDTMF, s.onMenu).
		On(StepIVRMenu, core.EventRecognizeFailed, func(_ context.Context, in Input) Decision {
			return Retry(s.menu(in.Session, s.opts.Audio.Invalid), in.Event.Reason())
		}).
		On(StepIVRClosing, core.EventPlayCompleted, hangUp).
		On(StepIVRClosing, core.EventPlayFailed, hangUp).
		On(StepIVRAgent, core.EventPlayCompleted, ignore).
		On(StepIVRAgent, core.EventPlayFailed, ignore).
		On(StepAny, core.EventPlayCanceled, ignore).
		On(StepAny, core.EventRecognizeCanceled, ignore)
	return s
}

func (s *SimpleIVR) onConnected(_ context.Context, in Input) Decision {
	d := Advance(s.menu(in.Session, s.opts.Audio.MainMenu))
	if s.opts.RecordCalls {
		d.Recording = core.RecordingStart
	}
	return d
}

func (s *SimpleIVR) onMenu(_ context.Context, in Input) Decision {
	var tone core.Tone
	if tones := in.Event.Recognition.Tones; len(tones) > 0 {
		tone = tones[0]
	}
	switch tone {
	case core.ToneOne:
		return Advance(s.closing(s.opts.Audio.Sales))
	case core.ToneTwo:
		return Advance(s.closing(s.opts.Audio.Marketing))
	case core.ToneThree:
		return Advance(s.closing(s.opts.Audio.CustomerCare))
	case core.ToneFour:
		if s.opts.AgentTarget == "" {
			return Advance(s.closing(s.opts.Audio.Agent))
		}
		d := Advance(core.PlayAction(StepIVRAgent, File(s.opts.AudioBaseURL, s.opts.Audio.Agent)))
		d.Invites = []Invite{{Participant: s.opts.AgentTarget, CallerID: s.opts.CallerID}}
		return d
	case core.ToneFive:
		return HangUp()
	}
	return Retry(s.menu(in.Session, s.opts.Audio.Invalid), core.ReasonInvalidInput)
}

func (s *SimpleIVR) menu(sess *core.CallSession, audio string) core.Action {
	prompt := File(s.opts.AudioBaseURL, audio)
	return core.RecognizeAction(StepIVRMenu, core.RecognizeOptions{
		Kind:                  core.RecognizeDTMF,
		Target:                sess.CallerID,
		Prompt:                &prompt,
		MaxTones:              1,
		InterruptPrompt:       true,
		InitialSilenceTimeout: 10 * time.Second,
	})
}

func (s *SimpleIVR) closing(audio string) core.Action {
	return core.PlayAction(StepIVRClosing, File(s.opts.AudioBaseURL, audio))
}
