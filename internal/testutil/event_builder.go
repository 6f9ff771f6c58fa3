package testutil

import (
	"time"

	"github.com/hupe1980/callflow/core"
)

// EventBuilder provides a fluent helper for constructing platform events in tests.
// Example:
//
//	ev := NewEventBuilder(core.EventRecognizeCompleted, "call-1").Tag(tag).DTMF("1").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EventBuilder struct {
	ev core.Event
}

// NewEventBuilder creates a builder for an event of kind on callID.
func NewEventBuilder(kind core.EventKind, callID string) *EventBuilder {
	return &EventBuilder{ev: core.NewEvent(kind, callID)}
}

// ID overrides the auto-generated event ID (chainable).
func (b *EventBuilder) ID(id string) *EventBuilder { b.ev.ID = id; return b }

// Tag sets the operation context echoed by the platform (chainable).
func (b *EventBuilder) Tag(tag string) *EventBuilder { b.ev.OperationContext = tag; return b }

// Correlation sets the correlation id (chainable).
func (b *EventBuilder) Correlation(id string) *EventBuilder { b.ev.CorrelationID = id; return b }

// ServerCall sets the server call id (chainable).
func (b *EventBuilder) ServerCall(id string) *EventBuilder { b.ev.ServerCallID = id; return b }

// Caller sets the caller id attached by the callback route (chainable).
func (b *EventBuilder) Caller(id string) *EventBuilder { b.ev.CallerID = id; return b }

// Participant sets the participant identity (chainable).
func (b *EventBuilder) Participant(id string) *EventBuilder { b.ev.Participant = id; return b }

// At sets the event timestamp (chainable).
func (b *EventBuilder) At(ts time.Time) *EventBuilder { b.ev.Timestamp = ts; return b }

// Failed attaches a failure result with the given sub code (chainable).
func (b *EventBuilder) Failed(subCode int) *EventBuilder {
	b.ev.Result = &core.ResultInformation{Code: 400, SubCode: subCode, Message: "failed"}
	return b
}

// DTMF attaches a DTMF recognition of the given keypad characters (chainable).
func (b *EventBuilder) DTMF(digits string) *EventBuilder {
	r := &core.RecognizeResult{Variant: core.VariantDTMF}
	for _, c := range digits {
		if t, ok := core.ParseTone(string(c)); ok {
			r.Tones = append(r.Tones, t)
		}
	}
	b.ev.Recognition = r
	return b
}

// Speech attaches a free speech recognition (chainable).
func (b *EventBuilder) Speech(text string) *EventBuilder {
	b.ev.Recognition = &core.RecognizeResult{Variant: core.VariantSpeech, Speech: text, Confidence: 0.9}
	return b
}

// Choice attaches a choice recognition (chainable).
func (b *EventBuilder) Choice(label, phrase string) *EventBuilder {
	b.ev.Recognition = &core.RecognizeResult{Variant: core.VariantChoice, Label: label, RecognizedPhrase: phrase}
	return b
}

// Recording sets the recording id and state string (chainable).
func (b *EventBuilder) Recording(id, state string) *EventBuilder {
	b.ev.RecordingID = id
	b.ev.RecordingState = state
	return b
}

// Tone sets the tone of a continuous DTMF notification (chainable).
func (b *EventBuilder) Tone(t core.Tone) *EventBuilder { b.ev.Tone = t; return b }

// Build returns the event.
func (b *EventBuilder) Build() core.Event {
	return b.ev
}
