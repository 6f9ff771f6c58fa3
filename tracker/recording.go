package tracker

import (
	"context"
	"fmt"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/logging"
)

// Recording validates recording and transcription requests against the
// acknowledged state and submits them. Valid transitions:
//
//	Inactive -> Active          (start)
//	Active  <-> Paused          (pause / resume)
//	Active | Paused -> Inactive (stop)
//
// A request is rejected without calling the platform when the transition is
// not allowed or a previous request has not been acknowledged yet.
type Recording struct {
	client core.CallClient
	logger logging.Logger
}

// NewRecording creates a Recording tracker.
func NewRecording(client core.CallClient, logger logging.Logger) *Recording {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Recording{client: client, logger: logger}
}

func (r *Recording) check(sess *core.CallSession, op core.RecordingOp, allowed ...core.RecordingState) error {
	if sess.RecordingRequest != core.RecordingNone {
		return fmt.Errorf("%w: %s while %s is unacknowledged", core.ErrInvalidRecordingTransition, op, sess.RecordingRequest)
	}
	for _, s := range allowed {
		if sess.RecordingState == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", core.ErrInvalidRecordingTransition, op, sess.RecordingState)
}

// Start begins recording the call.
func (r *Recording) Start(ctx context.Context, sess *core.CallSession) error {
	if err := r.check(sess, core.RecordingStart, core.RecordingInactive); err != nil {
		return err
	}
	locator := sess.ServerCallID
	if locator == "" {
		locator = sess.CallConnectionID
	}
	id, err := r.client.StartRecording(ctx, locator)
	if err != nil {
		return &core.SubmitError{Action: core.ActionStartRecording, CallConnectionID: sess.CallConnectionID, Cause: err}
	}
	if id != "" {
		sess.RecordingID = id
	}
	sess.RecordingRequest = core.RecordingStart
	return nil
}

// Pause pauses an active recording.
func (r *Recording) Pause(ctx context.Context, sess *core.CallSession) error {
	if err := r.check(sess, core.RecordingPause, core.RecordingActive); err != nil {
		return err
	}
	if err := r.client.PauseRecording(ctx, sess.RecordingID); err != nil {
		return &core.SubmitError{Action: core.ActionPauseRecording, CallConnectionID: sess.CallConnectionID, Cause: err}
	}
	sess.RecordingRequest = core.RecordingPause
	return nil
}

// Resume resumes a paused recording.
func (r *Recording) Resume(ctx context.Context, sess *core.CallSession) error {
	if err := r.check(sess, core.RecordingResume, core.RecordingPaused); err != nil {
		return err
	}
	if err := r.client.ResumeRecording(ctx, sess.RecordingID); err != nil {
		return &core.SubmitError{Action: core.ActionResumeRecording, CallConnectionID: sess.CallConnectionID, Cause: err}
	}
	sess.RecordingRequest = core.RecordingResume
	return nil
}

// Stop ends an active or paused recording.
func (r *Recording) Stop(ctx context.Context, sess *core.CallSession) error {
	if err := r.check(sess, core.RecordingStop, core.RecordingActive, core.RecordingPaused); err != nil {
		return err
	}
	if err := r.client.StopRecording(ctx, sess.RecordingID); err != nil {
		return &core.SubmitError{Action: core.ActionStopRecording, CallConnectionID: sess.CallConnectionID, Cause: err}
	}
	sess.RecordingRequest = core.RecordingStop
	return nil
}

// OnStateChanged applies an acknowledged recording state and clears the
// outstanding request. The platform reports a paused recording as inactive,
// so inactive following a pause request maps to Paused. It reports whether
// the state changed.
func (r *Recording) OnStateChanged(sess *core.CallSession, ev core.Event) bool {
	state, ok := core.ParseRecordingState(ev.RecordingState)
	if !ok {
		r.logger.Warn("Unknown recording state", "state", ev.RecordingState, "recording_id", ev.RecordingID)
		return false
	}
	if state == core.RecordingInactive && sess.RecordingRequest == core.RecordingPause {
		state = core.RecordingPaused
	}
	if ev.RecordingID != "" && sess.RecordingID == "" {
		sess.RecordingID = ev.RecordingID
	}
	sess.RecordingRequest = core.RecordingNone

	prev := sess.RecordingState
	sess.RecordingState = state
	if prev != state {
		r.logger.Info("Recording state changed", "from", prev.String(), "to", state.String(), "recording_id", sess.RecordingID)
	}
	return prev != state
}

// StartTranscription starts live transcription unless it is already active
// or requested.
func (r *Recording) StartTranscription(ctx context.Context, sess *core.CallSession, locale string) error {
	if sess.TranscriptionActive || sess.TranscriptionRequested {
		return fmt.Errorf("%w: transcription already active", core.ErrInvalidRecordingTransition)
	}
	if err := r.client.StartTranscription(ctx, sess.CallConnectionID, locale); err != nil {
		return &core.SubmitError{Action: core.ActionStartTranscription, CallConnectionID: sess.CallConnectionID, Cause: err}
	}
	sess.TranscriptionRequested = true
	return nil
}

// StopTranscription stops an active transcription unless a request is
// still outstanding.
func (r *Recording) StopTranscription(ctx context.Context, sess *core.CallSession) error {
	if !sess.TranscriptionActive {
		return fmt.Errorf("%w: transcription not active", core.ErrInvalidRecordingTransition)
	}
	if sess.TranscriptionRequested {
		return fmt.Errorf("%w: transcription request unacknowledged", core.ErrInvalidRecordingTransition)
	}
	if err := r.client.StopTranscription(ctx, sess.CallConnectionID); err != nil {
		return &core.SubmitError{Action: core.ActionStopTranscription, CallConnectionID: sess.CallConnectionID, Cause: err}
	}
	sess.TranscriptionRequested = true
	return nil
}

// OnTranscription applies a transcription lifecycle event.
func (r *Recording) OnTranscription(sess *core.CallSession, ev core.Event) {
	switch ev.Kind {
	case core.EventTranscriptionStarted:
		sess.TranscriptionActive = true
	case core.EventTranscriptionStopped, core.EventTranscriptionFailed:
		sess.TranscriptionActive = false
	}
	sess.TranscriptionRequested = false
}
