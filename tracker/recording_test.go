package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/internal/testutil"
)

func stateEvent(state string) core.Event {
	return testutil.NewEventBuilder(core.EventRecordingStateChanged, "call-1").Recording("rec-1", state).Build()
}

func TestRecording_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewFakeClient()
	r := NewRecording(client, nil)
	sess := core.NewCallSession("call-1")
	sess.ServerCallID = "server-1"

	require.NoError(t, r.Start(ctx, sess))
	assert.Equal(t, core.RecordingInactive, sess.RecordingState, "state waits for acknowledgement")
	assert.Equal(t, "rec-1", sess.RecordingID)
	assert.Equal(t, "server-1", client.CallsTo("StartRecording")[0].CallConnectionID)

	assert.True(t, r.OnStateChanged(sess, stateEvent("active")))
	assert.Equal(t, core.RecordingActive, sess.RecordingState)

	require.NoError(t, r.Pause(ctx, sess))
	r.OnStateChanged(sess, stateEvent("inactive"))
	assert.Equal(t, core.RecordingPaused, sess.RecordingState)

	require.NoError(t, r.Resume(ctx, sess))
	r.OnStateChanged(sess, stateEvent("active"))
	assert.Equal(t, core.RecordingActive, sess.RecordingState)

	require.NoError(t, r.Stop(ctx, sess))
	r.OnStateChanged(sess, stateEvent("inactive"))
	assert.Equal(t, core.RecordingInactive, sess.RecordingState)
}

func TestRecording_PauseWhileInactiveRejected(t *testing.T) {
	client := testutil.NewFakeClient()
	r := NewRecording(client, nil)
	sess := core.NewCallSession("call-1")

	err := r.Pause(context.Background(), sess)

	assert.ErrorIs(t, err, core.ErrInvalidRecordingTransition)
	assert.Empty(t, client.Calls(), "no platform call on rejected transition")
	assert.Equal(t, core.RecordingInactive, sess.RecordingState)
}

func TestRecording_RejectsWhileUnacknowledged(t *testing.T) {
	client := testutil.NewFakeClient()
	r := NewRecording(client, nil)
	sess := testutil.NewSessionBuilder("call-1").Recording("rec-1", core.RecordingActive).Build()

	require.NoError(t, r.Pause(context.Background(), sess))
	err := r.Stop(context.Background(), sess)

	assert.ErrorIs(t, err, core.ErrInvalidRecordingTransition)
	assert.Len(t, client.Calls(), 1)
}

func TestRecording_SubmitFailureKeepsState(t *testing.T) {
	client := testutil.NewFakeClient()
	client.Fail("StartRecording", errors.New("recording already active"))
	r := NewRecording(client, nil)
	sess := core.NewCallSession("call-1")

	err := r.Start(context.Background(), sess)

	var se *core.SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, core.ActionStartRecording, se.Action)
	assert.Equal(t, core.RecordingNone, sess.RecordingRequest)
}

func TestRecording_UnknownStateIgnored(t *testing.T) {
	r := NewRecording(testutil.NewFakeClient(), nil)
	sess := testutil.NewSessionBuilder("call-1").Recording("rec-1", core.RecordingActive).Build()

	assert.False(t, r.OnStateChanged(sess, stateEvent("exploded")))
	assert.Equal(t, core.RecordingActive, sess.RecordingState)
}

func TestTranscription_Guard(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewFakeClient()
	r := NewRecording(client, nil)
	sess := core.NewCallSession("call-1")

	assert.ErrorIs(t, r.StopTranscription(ctx, sess), core.ErrInvalidRecordingTransition)

	require.NoError(t, r.StartTranscription(ctx, sess, "en-US"))
	assert.ErrorIs(t, r.StartTranscription(ctx, sess, "en-US"), core.ErrInvalidRecordingTransition)

	r.OnTranscription(sess, core.NewEvent(core.EventTranscriptionStarted, "call-1"))
	assert.True(t, sess.TranscriptionActive)

	require.NoError(t, r.StopTranscription(ctx, sess))
	r.OnTranscription(sess, core.NewEvent(core.EventTranscriptionStopped, "call-1"))
	assert.False(t, sess.TranscriptionActive)
	assert.Len(t, client.CallsTo("StartTranscription"), 1)
}

func TestTranscription_StopWhileStopOutstanding(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewFakeClient()
	r := NewRecording(client, nil)
	sess := core.NewCallSession("call-1")
	sess.TranscriptionActive = true

	require.NoError(t, r.StopTranscription(ctx, sess))
	assert.ErrorIs(t, r.StopTranscription(ctx, sess), core.ErrInvalidRecordingTransition)
	assert.Len(t, client.CallsTo("StopTranscription"), 1)

	r.OnTranscription(sess, core.NewEvent(core.EventTranscriptionStopped, "call-1"))
	assert.False(t, sess.TranscriptionActive)
	assert.False(t, sess.TranscriptionRequested)
}
