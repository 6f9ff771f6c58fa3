package executor

import (
	"context"
	"fmt"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/logging"
	"github.com/hupe1980/callflow/opcontext"
	"github.com/hupe1980/callflow/tracker"
)

// stepRemoveParticipant tags remove requests issued without a workflow step.
const stepRemoveParticipant = "RemoveParticipant"

// Options configures an Executor.
type Options struct {
	// Codec mints operation tags. Defaults to opcontext.New().
	Codec *opcontext.Codec
	// Recording validates recording and transcription requests. Defaults to
	// a tracker bound to the executor's client.
	Recording *tracker.Recording
	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// Outcome describes a dispatched action.
type Outcome struct {
	// Tag is the operation context sent with the request, if any.
	Tag string
	// Feedback is the synthesized failure event for a rejected media or
	// invite request. Nil on success.
	Feedback *core.Event
}

// Executor issues actions against a CallClient.
type Executor struct {
	client    core.CallClient
	codec     *opcontext.Codec
	recording *tracker.Recording
	logger    logging.Logger
}

// New creates an Executor for client.
func New(client core.CallClient, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = opcontext.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Recording == nil {
		opts.Recording = tracker.NewRecording(client, opts.Logger)
	}
	return &Executor{
		client:    client,
		codec:     opts.Codec,
		recording: opts.Recording,
		logger:    opts.Logger,
	}
}

// Recording returns the recording tracker used for recording actions.
func (x *Executor) Recording() *tracker.Recording {
	return x.recording
}

// Dispatch issues a. Preconditions: a validates, the session is not
// terminated (hang-up excepted) and, for media actions, no media operation
// is pending. A *core.SubmitError is returned when the platform rejects the
// request; for media and invite requests Outcome.Feedback is set as well.
func (x *Executor) Dispatch(ctx context.Context, sess *core.CallSession, a core.Action) (Outcome, error) {
	if err := a.Validate(); err != nil {
		return Outcome{}, err
	}
	if sess.Terminated && a.Kind != core.ActionHangUp {
		return Outcome{}, fmt.Errorf("%w: %s on call %q", core.ErrSessionTerminated, a.Kind, sess.CallConnectionID)
	}

	switch a.Kind {
	case core.ActionPlay, core.ActionRecognize:
		return x.media(ctx, sess, a)
	case core.ActionAddParticipant:
		return x.invite(ctx, sess, a)
	case core.ActionRemoveParticipant:
		step := a.Step
		if step == "" {
			step = stepRemoveParticipant
		}
		tag, err := x.codec.Encode(sess, step, 1)
		if err != nil {
			return Outcome{}, err
		}
		if err := x.client.RemoveParticipant(ctx, sess.CallConnectionID, a.Participant, tag); err != nil {
			return Outcome{Tag: tag}, x.submitError(sess, a, tag, err)
		}
		x.logger.Debug("Participant removal requested", "call_connection_id", sess.CallConnectionID, "participant", a.Participant)
		return Outcome{Tag: tag}, nil
	case core.ActionHangUp:
		if err := x.client.HangUp(ctx, sess.CallConnectionID, a.ForEveryone); err != nil {
			return Outcome{}, x.submitError(sess, a, "", err)
		}
		sess.Terminated = true
		return Outcome{}, nil
	case core.ActionCancelMedia:
		if err := x.client.CancelAllMedia(ctx, sess.CallConnectionID); err != nil {
			return Outcome{}, x.submitError(sess, a, "", err)
		}
		sess.PendingOperation = ""
		return Outcome{}, nil
	case core.ActionStartRecording:
		return Outcome{}, x.recording.Start(ctx, sess)
	case core.ActionPauseRecording:
		return Outcome{}, x.recording.Pause(ctx, sess)
	case core.ActionResumeRecording:
		return Outcome{}, x.recording.Resume(ctx, sess)
	case core.ActionStopRecording:
		return Outcome{}, x.recording.Stop(ctx, sess)
	case core.ActionStartTranscription:
		return Outcome{}, x.recording.StartTranscription(ctx, sess, a.Locale)
	case core.ActionStopTranscription:
		return Outcome{}, x.recording.StopTranscription(ctx, sess)
	}
	return Outcome{}, fmt.Errorf("%w: unsupported action kind %q", core.ErrInvalidAction, a.Kind)
}

func (x *Executor) media(ctx context.Context, sess *core.CallSession, a core.Action) (Outcome, error) {
	if sess.HasPending() {
		return Outcome{}, fmt.Errorf("%w: %s while %q is outstanding", core.ErrOperationPending, a.Kind, sess.PendingOperation)
	}
	tag, err := x.codec.Encode(sess, a.Step, sess.RetryCount+1)
	if err != nil {
		return Outcome{}, err
	}

	// The tag is pending from here on so the synthesized failure correlates
	// exactly like a platform failure would.
	sess.PendingOperation = tag

	var failed core.EventKind
	switch a.Kind {
	case core.ActionPlay:
		failed = core.EventPlayFailed
		err = x.client.Play(ctx, sess.CallConnectionID, *a.Play, a.PlayTarget, tag)
	default:
		failed = core.EventRecognizeFailed
		err = x.client.StartRecognizing(ctx, sess.CallConnectionID, *a.Recognize, tag)
	}
	if err != nil {
		fb := feedback(failed, sess, tag, err)
		return Outcome{Tag: tag, Feedback: &fb}, x.submitError(sess, a, tag, err)
	}
	return Outcome{Tag: tag}, nil
}

func (x *Executor) invite(ctx context.Context, sess *core.CallSession, a core.Action) (Outcome, error) {
	tag, err := x.codec.Encode(sess, a.Step, 1)
	if err != nil {
		return Outcome{}, err
	}
	sess.PendingInvites[tag] = a.Participant

	if err := x.client.AddParticipant(ctx, sess.CallConnectionID, a.Participant, a.CallerID, tag); err != nil {
		fb := feedback(core.EventAddParticipantFailed, sess, tag, err)
		fb.Participant = a.Participant
		return Outcome{Tag: tag, Feedback: &fb}, x.submitError(sess, a, tag, err)
	}
	return Outcome{Tag: tag}, nil
}

func (x *Executor) submitError(sess *core.CallSession, a core.Action, tag string, cause error) error {
	x.logger.Warn("Platform rejected request",
		"call_connection_id", sess.CallConnectionID,
		"action", string(a.Kind),
		"operation_context", tag,
		"error", cause.Error())
	return &core.SubmitError{
		Action:           a.Kind,
		CallConnectionID: sess.CallConnectionID,
		OperationContext: tag,
		Cause:            cause,
	}
}

func feedback(kind core.EventKind, sess *core.CallSession, tag string, cause error) core.Event {
	ev := core.NewEvent(kind, sess.CallConnectionID)
	ev.ServerCallID = sess.ServerCallID
	ev.CorrelationID = sess.CorrelationID
	ev.OperationContext = tag
	ev.Result = &core.ResultInformation{
		Code:    500,
		SubCode: core.SubmitFailedSubCode,
		Message: cause.Error(),
	}
	return ev
}
