package core

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no session exists for a call id.
	ErrSessionNotFound = errors.New("callflow: session not found")

	// ErrOperationPending is returned when a media action is dispatched while
	// another media operation is still outstanding.
	ErrOperationPending = errors.New("callflow: operation pending")

	// ErrTagInUse is returned when a minted tag collides with an outstanding one.
	ErrTagInUse = errors.New("callflow: operation tag in use")

	// ErrMalformedTag is returned when an operation context cannot be decoded.
	ErrMalformedTag = errors.New("callflow: malformed operation tag")

	// ErrInvalidAction is returned when an action is missing required fields.
	ErrInvalidAction = errors.New("callflow: invalid action")

	// ErrInvalidRecordingTransition is returned for recording requests the
	// current recording state does not allow.
	ErrInvalidRecordingTransition = errors.New("callflow: invalid recording transition")

	// ErrMalformedPayload is returned when an inbound event cannot be decoded.
	ErrMalformedPayload = errors.New("callflow: malformed payload")

	// ErrSessionTerminated is returned when acting on a call that was hung up.
	ErrSessionTerminated = errors.New("callflow: session terminated")
)

// SubmitError reports that the platform rejected an action synchronously.
type SubmitError struct {
	Action           ActionKind
	CallConnectionID string
	OperationContext string
	Cause            error
}

func (e *SubmitError) Error() string {
	if e.OperationContext != "" {
		return fmt.Sprintf("callflow: submit %s for call %q (tag %q): %v", e.Action, e.CallConnectionID, e.OperationContext, e.Cause)
	}
	return fmt.Sprintf("callflow: submit %s for call %q: %v", e.Action, e.CallConnectionID, e.Cause)
}

// Unwrap returns the underlying error.
func (e *SubmitError) Unwrap() error {
	return e.Cause
}

// EventError reports an inbound event that could not be processed.
type EventError struct {
	EventType string
	RawData   []byte
	Cause     error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("callflow: failed to process %s event: %v", e.EventType, e.Cause)
}

// Unwrap returns the underlying error.
func (e *EventError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for EventError.
func (e *EventError) Is(target error) bool {
	return target == ErrMalformedPayload
}
