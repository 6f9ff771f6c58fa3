package core

import (
	"maps"
	"slices"
	"time"
)

// RecordingState mirrors the platform's view of a call recording.
type RecordingState int

const (
	RecordingInactive RecordingState = iota
	RecordingActive
	RecordingPaused
)

func (s RecordingState) String() string {
	switch s {
	case RecordingActive:
		return "active"
	case RecordingPaused:
		return "paused"
	default:
		return "inactive"
	}
}

// ParseRecordingState maps the platform's state string to a RecordingState.
// Unknown strings report false.
func ParseRecordingState(s string) (RecordingState, bool) {
	switch s {
	case "active", "Active":
		return RecordingActive, true
	case "paused", "Paused":
		return RecordingPaused, true
	case "inactive", "Inactive":
		return RecordingInactive, true
	}
	return RecordingInactive, false
}

// RecordingOp is a requested recording transition.
type RecordingOp int

const (
	RecordingNone RecordingOp = iota
	RecordingStart
	RecordingPause
	RecordingResume
	RecordingStop
)

func (o RecordingOp) String() string {
	switch o {
	case RecordingStart:
		return "start"
	case RecordingPause:
		return "pause"
	case RecordingResume:
		return "resume"
	case RecordingStop:
		return "stop"
	default:
		return "none"
	}
}

// CallSession is the per-call state keyed by CallConnectionID.
//
// A CallSession carries no lock of its own: the engine serializes all access
// for one call behind a per-call mutex, and everything else works on Clone
// snapshots.
//
// Invariants:
//   - PendingOperation holds at most one outstanding media tag
//   - RetryCount never exceeds the retry policy maximum
//   - RecordingState only changes after the platform acknowledges it
type CallSession struct {
	CallConnectionID string `json:"callConnectionId"`
	ServerCallID     string `json:"serverCallId,omitempty"`
	CorrelationID    string `json:"correlationId,omitempty"`
	CallerID         string `json:"callerId,omitempty"`
	// Outbound marks calls placed by this service. CallerID then holds the
	// callee, who is the party prompted for input.
	Outbound bool `json:"outbound,omitempty"`

	CurrentStep      string `json:"currentStep"`
	PendingOperation string `json:"pendingOperation,omitempty"`
	RetryCount       int    `json:"retryCount"`
	OperationSeq     uint64 `json:"operationSeq"`

	// PendingInvites maps outstanding add-participant tags to the invited identity.
	PendingInvites            map[string]string `json:"pendingInvites,omitempty"`
	AddedParticipants         []string          `json:"addedParticipants,omitempty"`
	ParticipantsAdded         int               `json:"participantsAdded"`
	ParticipantsDeclined      int               `json:"participantsDeclined"`
	TotalParticipantsTargeted int               `json:"totalParticipantsTargeted"`
	ParticipantsResolved      bool              `json:"participantsResolved"`

	RecordingID            string         `json:"recordingId,omitempty"`
	RecordingState         RecordingState `json:"recordingState"`
	RecordingRequest       RecordingOp    `json:"recordingRequest"`
	TranscriptionActive    bool           `json:"transcriptionActive"`
	TranscriptionRequested bool           `json:"transcriptionRequested"`

	FallbackIssued bool `json:"fallbackIssued"`
	Terminated     bool `json:"terminated"`

	Vars    map[string]string `json:"vars,omitempty"`
	Created time.Time         `json:"created"`
	Updated time.Time         `json:"updated"`
}

// NewCallSession creates an empty session for the given call connection.
func NewCallSession(callConnectionID string) *CallSession {
	now := time.Now()
	return &CallSession{
		CallConnectionID: callConnectionID,
		PendingInvites:   map[string]string{},
		Vars:             map[string]string{},
		Created:          now,
		Updated:          now,
	}
}

// Touch refreshes the Updated timestamp.
func (s *CallSession) Touch() {
	s.Updated = time.Now()
}

// HasPending reports whether a media operation is outstanding.
func (s *CallSession) HasPending() bool {
	return s.PendingOperation != ""
}

// Var returns a workflow scratch value.
func (s *CallSession) Var(key string) string {
	if s.Vars == nil {
		return ""
	}
	return s.Vars[key]
}

// SetVar stores a workflow scratch value.
func (s *CallSession) SetVar(key, value string) {
	if s.Vars == nil {
		s.Vars = map[string]string{}
	}
	s.Vars[key] = value
}

// Clone returns a deep copy safe to hand to code that must not mutate the
// live session (state machines, callbacks, API readers).
func (s *CallSession) Clone() *CallSession {
	if s == nil {
		return nil
	}
	c := *s
	c.PendingInvites = maps.Clone(s.PendingInvites)
	if c.PendingInvites == nil {
		c.PendingInvites = map[string]string{}
	}
	c.AddedParticipants = slices.Clone(s.AddedParticipants)
	c.Vars = maps.Clone(s.Vars)
	if c.Vars == nil {
		c.Vars = map[string]string{}
	}
	return &c
}

// SessionStore persists call sessions. Implementations must be thread-safe.
type SessionStore interface {
	// GetOrCreate returns the session for callID, creating it when absent.
	// created reports whether a new session was made.
	GetOrCreate(callID string) (sess *CallSession, created bool)
	Get(callID string) (*CallSession, error)
	Remove(callID string)
}
