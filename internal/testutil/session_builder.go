package testutil

import (
	"github.com/hupe1980/callflow/core"
)

// SessionBuilder helps construct call sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("call-1").Step("MainMenu").Pending(tag).Build()
type SessionBuilder struct {
	sess *core.CallSession
}

// NewSessionBuilder creates a new builder for a session with the given call id.
func NewSessionBuilder(callID string) *SessionBuilder {
	return &SessionBuilder{sess: core.NewCallSession(callID)}
}

// Caller sets the caller id (chainable).
func (b *SessionBuilder) Caller(id string) *SessionBuilder { b.sess.CallerID = id; return b }

// Step sets the current step (chainable).
func (b *SessionBuilder) Step(step string) *SessionBuilder { b.sess.CurrentStep = step; return b }

// Pending sets the pending media tag (chainable).
func (b *SessionBuilder) Pending(tag string) *SessionBuilder { b.sess.PendingOperation = tag; return b }

// Retries sets the retry counter (chainable).
func (b *SessionBuilder) Retries(n int) *SessionBuilder { b.sess.RetryCount = n; return b }

// Invite registers an outstanding invite (chainable).
func (b *SessionBuilder) Invite(tag, participant string) *SessionBuilder {
	b.sess.PendingInvites[tag] = participant
	return b
}

// Recording sets the recording id and acknowledged state (chainable).
func (b *SessionBuilder) Recording(id string, state core.RecordingState) *SessionBuilder {
	b.sess.RecordingID = id
	b.sess.RecordingState = state
	return b
}

// Var sets a workflow scratch value (chainable).
func (b *SessionBuilder) Var(key, value string) *SessionBuilder { b.sess.SetVar(key, value); return b }

// Build returns the session.
func (b *SessionBuilder) Build() *core.CallSession {
	return b.sess
}
