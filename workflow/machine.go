// Package workflow defines call workflows as pure state machines.
//
// A Machine receives a snapshot of the call session plus the event that was
// correlated to it and returns a Decision: zero or one media action, the next
// step, an optional recording directive, invites to send and retry or
// terminal flags. Machines never talk to the platform themselves; the engine
// applies the Decision through the executor.
//
// Table is the dispatch structure used by the bundled workflows. Handlers are
// registered per (step, event kind, recognition variant) and looked up with
// progressively wider keys:
//
//	(step, kind, variant) -> (step, kind, any) -> (any, kind, variant) -> (any, kind, any)
//
// Events with no handler produce a zero Decision and are only logged.
package workflow

import (
	"context"

	"github.com/hupe1980/callflow/core"
)

const (
	// StepNone is the step of a session before its first action.
	StepNone = ""
	// StepAny matches every step in a Table lookup.
	StepAny = "*"
)

// Input is what a Machine sees for one event.
type Input struct {
	// Session is a snapshot; mutations are discarded.
	Session *core.CallSession
	Event   core.Event
	// Step is the step the event belongs to: the decoded tag step for media
	// completions, StepNone for CallConnected.
	Step string
}

// Invite asks the engine to add a participant.
type Invite struct {
	Participant string
	CallerID    string
}

// Decision is a Machine's verdict for one event.
type Decision struct {
	// Action is the single media action (play or recognize) to issue.
	Action *core.Action
	// Next is the step the session moves to. Defaults to Action.Step.
	Next string
	// Recording is an optional recording directive applied alongside Action.
	Recording core.RecordingOp
	// Transcribe starts live transcription in this locale.
	Transcribe string
	// Invites are participants to add; each gets its own tag.
	Invites []Invite
	// Set stores workflow scratch values on the session.
	Set map[string]string

	// ResetRetries clears RetryCount: the workflow advanced.
	ResetRetries bool
	// CountRetry re-issues the current step; subject to the retry policy.
	CountRetry bool
	// Reason is the failure that caused CountRetry or Fallback.
	Reason core.ReasonCode

	// Fallback ends the call with the apology prompt and a hang-up.
	Fallback bool
	// Hangup ends the call for everyone without a prompt.
	Hangup bool

	// Err records a non-fatal problem met while deciding, for logging.
	Err error
}

// IsZero reports whether the decision asks for nothing.
func (d Decision) IsZero() bool {
	return d.Action == nil && d.Recording == core.RecordingNone && d.Transcribe == "" && len(d.Invites) == 0 &&
		len(d.Set) == 0 && !d.Fallback && !d.Hangup && d.Next == ""
}

// NextStep returns the step the session moves to.
func (d Decision) NextStep() string {
	if d.Next != "" {
		return d.Next
	}
	if d.Action != nil {
		return d.Action.Step
	}
	return ""
}

// Advance moves to the action's step and resets the retry counter.
func Advance(a core.Action) Decision {
	return Decision{Action: &a, Next: a.Step, ResetRetries: true}
}

// Retry re-issues a step after a failure with reason.
func Retry(a core.Action, reason core.ReasonCode) Decision {
	return Decision{Action: &a, Next: a.Step, CountRetry: true, Reason: reason}
}

// Fallback ends the call through the apology path.
func Fallback(reason core.ReasonCode) Decision {
	return Decision{Fallback: true, Reason: reason}
}

// HangUp ends the call for everyone.
func HangUp() Decision {
	return Decision{Hangup: true}
}

// Machine is a call workflow.
type Machine interface {
	Name() string
	Transition(ctx context.Context, in Input) Decision
}

// Handler decides one (step, kind, variant) cell.
type Handler func(ctx context.Context, in Input) Decision

type key struct {
	step    string
	kind    core.EventKind
	variant core.RecognitionVariant
}

// Table is a Machine built from registered handlers. Register everything
// before first use; lookups are not synchronized with registration.
type Table struct {
	name     string
	handlers map[key]Handler
}

// NewTable creates an empty Table.
func NewTable(name string) *Table {
	return &Table{name: name, handlers: map[key]Handler{}}
}

// On registers h for every payload variant of kind at step.
func (t *Table) On(step string, kind core.EventKind, h Handler) *Table {
	return t.OnVariant(step, kind, core.VariantAny, h)
}

// OnVariant registers h for one payload variant of kind at step.
func (t *Table) OnVariant(step string, kind core.EventKind, variant core.RecognitionVariant, h Handler) *Table {
	t.handlers[key{step: step, kind: kind, variant: variant}] = h
	return t
}

// Name implements Machine.
func (t *Table) Name() string {
	return t.name
}

// Lookup returns the handler for the input, if any.
func (t *Table) Lookup(step string, kind core.EventKind, variant core.RecognitionVariant) (Handler, bool) {
	for _, k := range []key{
		{step, kind, variant},
		{step, kind, core.VariantAny},
		{StepAny, kind, variant},
		{StepAny, kind, core.VariantAny},
	} {
		if h, ok := t.handlers[k]; ok {
			return h, true
		}
	}
	return nil, false
}

// Transition implements Machine.
func (t *Table) Transition(ctx context.Context, in Input) Decision {
	variant := core.VariantAny
	if in.Event.Recognition != nil {
		variant = in.Event.Recognition.Variant
	}
	h, ok := t.Lookup(in.Step, in.Event.Kind, variant)
	if !ok {
		return Decision{}
	}
	return h(ctx, in)
}
