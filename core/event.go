package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a platform callback type. Values match the trailing
// segment of the platform's event type (e.g. "Microsoft.Communication.PlayCompleted").
type EventKind string

const (
	EventCallConnected              EventKind = "CallConnected"
	EventCallDisconnected           EventKind = "CallDisconnected"
	EventParticipantsUpdated        EventKind = "ParticipantsUpdated"
	EventPlayCompleted              EventKind = "PlayCompleted"
	EventPlayFailed                 EventKind = "PlayFailed"
	EventPlayCanceled               EventKind = "PlayCanceled"
	EventRecognizeCompleted         EventKind = "RecognizeCompleted"
	EventRecognizeFailed            EventKind = "RecognizeFailed"
	EventRecognizeCanceled          EventKind = "RecognizeCanceled"
	EventAddParticipantSucceeded    EventKind = "AddParticipantSucceeded"
	EventAddParticipantFailed       EventKind = "AddParticipantFailed"
	EventRemoveParticipantSucceeded EventKind = "RemoveParticipantSucceeded"
	EventRemoveParticipantFailed    EventKind = "RemoveParticipantFailed"
	EventRecordingStateChanged      EventKind = "RecordingStateChanged"
	EventRecordingFileStatusUpdated EventKind = "RecordingFileStatusUpdated"
	EventTranscriptionStarted       EventKind = "TranscriptionStarted"
	EventTranscriptionStopped       EventKind = "TranscriptionStopped"
	EventTranscriptionFailed        EventKind = "TranscriptionFailed"
	EventContinuousDtmfToneReceived EventKind = "ContinuousDtmfRecognitionToneReceived"
	EventContinuousDtmfToneFailed   EventKind = "ContinuousDtmfRecognitionToneFailed"
	EventContinuousDtmfStopped      EventKind = "ContinuousDtmfRecognitionStopped"
	EventIncomingCall               EventKind = "IncomingCall"
	EventSubscriptionValidation     EventKind = "SubscriptionValidationEvent"
	EventUnknown                    EventKind = ""
)

var knownKinds = map[EventKind]struct{}{
	EventCallConnected: {}, EventCallDisconnected: {}, EventParticipantsUpdated: {},
	EventPlayCompleted: {}, EventPlayFailed: {}, EventPlayCanceled: {},
	EventRecognizeCompleted: {}, EventRecognizeFailed: {}, EventRecognizeCanceled: {},
	EventAddParticipantSucceeded: {}, EventAddParticipantFailed: {},
	EventRemoveParticipantSucceeded: {}, EventRemoveParticipantFailed: {},
	EventRecordingStateChanged: {}, EventRecordingFileStatusUpdated: {},
	EventTranscriptionStarted: {}, EventTranscriptionStopped: {}, EventTranscriptionFailed: {},
	EventContinuousDtmfToneReceived: {}, EventContinuousDtmfToneFailed: {}, EventContinuousDtmfStopped: {},
	EventIncomingCall: {}, EventSubscriptionValidation: {},
}

// Known reports whether k is an event kind callflow understands.
func (k EventKind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// IsMedia reports whether the kind completes a play or recognize operation
// and therefore must correlate with the session's pending tag.
func (k EventKind) IsMedia() bool {
	switch k {
	case EventPlayCompleted, EventPlayFailed, EventPlayCanceled,
		EventRecognizeCompleted, EventRecognizeFailed, EventRecognizeCanceled:
		return true
	}
	return false
}

// IsParticipantOutcome reports whether the kind resolves an add-participant invite.
func (k EventKind) IsParticipantOutcome() bool {
	return k == EventAddParticipantSucceeded || k == EventAddParticipantFailed
}

// ResultInformation carries the platform's outcome codes for an operation.
// SubCode is the reason code used by the retry policy.
type ResultInformation struct {
	Code    int    `json:"code"`
	SubCode int    `json:"subCode"`
	Message string `json:"message,omitempty"`
}

// Event is a decoded platform callback. After decoding it should be treated as
// immutable. Exactly one of the payload groups is populated depending on Kind:
//   - Recognition for RecognizeCompleted
//   - Participant for participant outcomes
//   - Recording* for recording notifications
//   - Tone for continuous DTMF notifications
type Event struct {
	ID               string             `json:"id"`
	Kind             EventKind          `json:"kind"`
	CallConnectionID string             `json:"callConnectionId"`
	ServerCallID     string             `json:"serverCallId,omitempty"`
	CorrelationID    string             `json:"correlationId,omitempty"`
	OperationContext string             `json:"operationContext,omitempty"`
	Result           *ResultInformation `json:"resultInformation,omitempty"`
	Recognition      *RecognizeResult   `json:"recognizeResult,omitempty"`
	Participant      string             `json:"participant,omitempty"`
	RecordingID      string             `json:"recordingId,omitempty"`
	RecordingState   string             `json:"recordingState,omitempty"`
	RecordingFile    *RecordingLocation `json:"recordingFile,omitempty"`
	Tone             Tone               `json:"tone,omitempty"`
	CallerID         string             `json:"callerId,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
}

// NewEvent creates a bare event of the given kind bound to a call connection.
func NewEvent(kind EventKind, callConnectionID string) Event {
	return Event{
		ID:               NewID(),
		Kind:             kind,
		CallConnectionID: callConnectionID,
		Timestamp:        time.Now().UTC(),
	}
}

// Reason returns the platform sub code, or zero when the event carries no result.
func (e Event) Reason() ReasonCode {
	if e.Result == nil {
		return 0
	}
	return ReasonCode(e.Result.SubCode)
}

// NewID generates a new unique identifier.
func NewID() string {
	return uuid.NewString()
}
