package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/callflow/artifact"
	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/executor"
	"github.com/hupe1980/callflow/logging"
	"github.com/hupe1980/callflow/opcontext"
	"github.com/hupe1980/callflow/policy"
	"github.com/hupe1980/callflow/session"
	"github.com/hupe1980/callflow/tracker"
	"github.com/hupe1980/callflow/workflow"
)

// stepInvite tags invites issued by a decision that names no step.
const stepInvite = "AddParticipant"

// Config defines tuning parameters for the Engine.
//
// Example:
//
//	cfg := engine.DefaultConfig
//	cfg.IdleTimeout = 10 * time.Minute
type Config struct {
	// IdleTimeout evicts sessions that received no event for this long.
	// Zero disables eviction.
	IdleTimeout time.Duration

	// JanitorInterval is how often StartJanitor sweeps for idle sessions.
	JanitorInterval time.Duration

	// FilteredEvents are dropped before correlation, e.g. the per-tone
	// notifications of continuous DTMF recognition.
	FilteredEvents []core.EventKind

	// MaxConcurrentCalls bounds the goroutines HandleBatch runs at once.
	// Zero means one goroutine per call in the batch.
	MaxConcurrentCalls int
}

// DefaultConfig provides production-ready default configuration values.
var DefaultConfig = Config{
	IdleTimeout:        30 * time.Minute,
	JanitorInterval:    time.Minute,
	FilteredEvents:     []core.EventKind{core.EventContinuousDtmfToneReceived},
	MaxConcurrentCalls: 64,
}

// Options configures an Engine instance using the functional options pattern.
// Every service has an in-memory default.
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// SessionStore holds live call sessions.
	// Defaults to session.NewInMemoryStore().
	SessionStore core.SessionStore

	// RecordingStore keeps finished recording locations.
	// Defaults to artifact.NewInMemoryStore().
	RecordingStore core.RecordingStore

	// Policy decides retries and fallback. Defaults to policy.New().
	Policy *policy.Policy

	// Participants gates the post-add action on invite outcomes.
	// Defaults to tracker.NewParticipants(tracker.PostAddNone).
	Participants *tracker.Participants

	// Codec mints operation tags for the default executor.
	Codec *opcontext.Codec

	// Callbacks receives lifecycle notifications. Defaults to an empty manager.
	Callbacks *CallbackManager

	// Logger defaults to NoOp.
	Logger logging.Logger
}

// DropReason explains why an event was not applied.
type DropReason string

const (
	// DropFiltered: the event kind is configured as noise.
	DropFiltered DropReason = "filtered"
	// DropMalformed: no call connection id, unknown kind or undecodable tag.
	DropMalformed DropReason = "malformed"
	// DropUnknownCall: no session exists for the call.
	DropUnknownCall DropReason = "unknown_call"
	// DropStale: the tag matches no outstanding operation.
	DropStale DropReason = "stale"
	// DropDuplicate: a repeated CallConnected for a running session.
	DropDuplicate DropReason = "duplicate"
)

// Result reports how one event was handled.
type Result struct {
	EventID          string
	CallConnectionID string
	Kind             core.EventKind

	// Handled is set when the event was correlated and applied.
	Handled bool
	// DropReason is set when the event was dropped.
	DropReason DropReason
	// Step is the session's step after handling.
	Step string
	// Err collects non-fatal problems, e.g. a rejected platform request.
	Err error
}

// Engine is the per-call event pipeline.
//
// For every inbound event it filters noise, takes the call's lock, correlates
// the event with the session (unknown calls and stale tags are dropped),
// feeds it to the workflow machine and applies the resulting decision through
// the executor, the retry policy and the lifecycle trackers. Events of
// different calls are handled in parallel; events of one call are handled in
// arrival order.
type Engine struct {
	machine workflow.Machine
	client  core.CallClient

	sessions     core.SessionStore
	recordings   core.RecordingStore
	policy       *policy.Policy
	participants *tracker.Participants
	executor     *executor.Executor
	callbacks    *CallbackManager
	logger       logging.Logger

	config   Config
	filtered map[core.EventKind]struct{}
	locks    *callLocks

	janitorOnce sync.Once
}

// New creates an Engine driving machine against client.
//
// Example:
//
//	eng := engine.New(workflow.NewContosoBank(), client, func(o *engine.Options) {
//	    o.Logger = logger
//	    o.Policy = policy.New(func(p *policy.Options) { p.MaxRetries = 2 })
//	})
func New(machine workflow.Machine, client core.CallClient, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.RecordingStore == nil {
		opts.RecordingStore = artifact.NewInMemoryStore()
	}
	if opts.Policy == nil {
		opts.Policy = policy.New()
	}
	if opts.Participants == nil {
		opts.Participants = tracker.NewParticipants(tracker.PostAddNone)
	}
	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	filtered := make(map[core.EventKind]struct{}, len(opts.Config.FilteredEvents))
	for _, k := range opts.Config.FilteredEvents {
		filtered[k] = struct{}{}
	}

	return &Engine{
		machine:      machine,
		client:       client,
		sessions:     opts.SessionStore,
		recordings:   opts.RecordingStore,
		policy:       opts.Policy,
		participants: opts.Participants,
		executor: executor.New(client, func(o *executor.Options) {
			o.Codec = opts.Codec
			o.Logger = opts.Logger
		}),
		callbacks: opts.Callbacks,
		logger:    opts.Logger,
		config:    opts.Config,
		filtered:  filtered,
		locks:     newCallLocks(),
	}
}

// Callbacks returns the callback manager for registering lifecycle hooks.
func (e *Engine) Callbacks() *CallbackManager {
	return e.callbacks
}

// Machine returns the workflow the engine drives.
func (e *Engine) Machine() workflow.Machine {
	return e.machine
}

// Recordings returns the store of finished recording locations.
func (e *Engine) Recordings() core.RecordingStore {
	return e.recordings
}

// HandleBatch handles one webhook delivery. The batch is partitioned by call
// connection id; partitions run on their own goroutines while events inside
// a partition keep their order. Results are returned in input order.
func (e *Engine) HandleBatch(ctx context.Context, events []core.Event) []Result {
	results := make([]Result, len(events))

	partitions := make(map[string][]int)
	var order []string
	for i, ev := range events {
		id := ev.CallConnectionID
		if _, ok := partitions[id]; !ok {
			order = append(order, id)
		}
		partitions[id] = append(partitions[id], i)
	}

	var sem chan struct{}
	if e.config.MaxConcurrentCalls > 0 {
		sem = make(chan struct{}, e.config.MaxConcurrentCalls)
	}

	var wg sync.WaitGroup
	for _, id := range order {
		idx := partitions[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			for _, i := range idx {
				results[i] = e.Handle(ctx, events[i])
			}
		}()
	}
	wg.Wait()

	return results
}

// Handle handles a single event under its call's lock.
func (e *Engine) Handle(ctx context.Context, ev core.Event) Result {
	start := time.Now()
	res := e.handle(ctx, ev)
	e.fire(ctx, CallbackOnEvent, &CallbackContext{
		CallConnectionID: ev.CallConnectionID,
		Event:            &ev,
		Result:           &res,
		Duration:         time.Since(start),
		Err:              res.Err,
	})
	return res
}

func (e *Engine) handle(ctx context.Context, ev core.Event) Result {
	res := Result{EventID: ev.ID, CallConnectionID: ev.CallConnectionID, Kind: ev.Kind}

	if _, ok := e.filtered[ev.Kind]; ok {
		return e.drop(ctx, ev, res, DropFiltered, nil)
	}
	if core.Classify(ev) == core.MalformedPayload {
		return e.drop(ctx, ev, res, DropMalformed, core.ErrMalformedPayload)
	}

	unlock := e.locks.lock(ev.CallConnectionID)
	defer unlock()

	var sess *core.CallSession
	if ev.Kind == core.EventCallConnected {
		s, created := e.sessions.GetOrCreate(ev.CallConnectionID)
		if !created && (s.CurrentStep != workflow.StepNone || s.HasPending() || s.Terminated) {
			return e.drop(ctx, ev, res, DropDuplicate, nil)
		}
		if created {
			e.fire(ctx, CallbackOnSessionStart, &CallbackContext{CallConnectionID: s.CallConnectionID, Event: &ev})
		}
		sess = s
	} else {
		s, err := e.sessions.Get(ev.CallConnectionID)
		if err != nil {
			return e.drop(ctx, ev, res, DropUnknownCall, err)
		}
		sess = s
	}
	correlated := sess.CorrelationID != ""
	bind(sess, ev)
	if !correlated && sess.CorrelationID != "" {
		if c, ok := e.sessions.(correlator); ok {
			c.Correlate(sess.CallConnectionID, sess.CorrelationID)
		}
	}
	sess.Touch()

	var err error
	switch {
	case ev.Kind == core.EventCallConnected:
		e.callLog(sess).Info("Call connected", "caller_id", sess.CallerID)
		err = e.run(ctx, sess, ev, workflow.StepNone)
	case ev.Kind == core.EventCallDisconnected:
		e.end(ctx, sess, &ev, "disconnected")
	case ev.Kind.IsMedia():
		var reason DropReason
		if reason, err = e.onMedia(ctx, sess, ev); reason != "" {
			return e.drop(ctx, ev, res, reason, err)
		}
	case ev.Kind.IsParticipantOutcome():
		var reason DropReason
		if reason, err = e.onParticipant(ctx, sess, ev); reason != "" {
			return e.drop(ctx, ev, res, reason, err)
		}
	case ev.Kind == core.EventRemoveParticipantSucceeded, ev.Kind == core.EventRemoveParticipantFailed:
		e.callLog(sess).Info("Participant removal finished",
			"participant", ev.Participant,
			"outcome", string(ev.Kind))
	case ev.Kind == core.EventRecordingStateChanged:
		e.executor.Recording().OnStateChanged(sess, ev)
	case ev.Kind == core.EventRecordingFileStatusUpdated:
		err = e.saveRecording(sess, ev)
	case ev.Kind == core.EventTranscriptionStarted, ev.Kind == core.EventTranscriptionStopped, ev.Kind == core.EventTranscriptionFailed:
		e.executor.Recording().OnTranscription(sess, ev)
	default:
		if !sess.Terminated {
			err = e.run(ctx, sess, ev, sess.CurrentStep)
		}
	}

	res.Handled = true
	res.Step = sess.CurrentStep
	res.Err = err
	return res
}

// bind copies identifiers the platform attaches to every event onto the
// session the first time they are seen.
func bind(sess *core.CallSession, ev core.Event) {
	if sess.CorrelationID == "" {
		sess.CorrelationID = ev.CorrelationID
	}
	if sess.ServerCallID == "" {
		sess.ServerCallID = ev.ServerCallID
	}
	if sess.CallerID == "" {
		sess.CallerID = ev.CallerID
	}
}

// onMedia correlates a play or recognize outcome with the pending tag and
// clears it. A non-empty DropReason means the event was not applied.
func (e *Engine) onMedia(ctx context.Context, sess *core.CallSession, ev core.Event) (DropReason, error) {
	if ev.OperationContext == "" || ev.OperationContext != sess.PendingOperation {
		return DropStale, nil
	}
	tag, err := opcontext.Decode(ev.OperationContext)
	if err != nil {
		return DropMalformed, err
	}
	sess.PendingOperation = ""

	if tag.Step == policy.StepFallback {
		return "", e.hangUp(ctx, sess, ev)
	}
	if sess.Terminated {
		return "", nil
	}
	return "", e.run(ctx, sess, ev, tag.Step)
}

// onParticipant resolves an invite outcome through the participant tracker.
func (e *Engine) onParticipant(ctx context.Context, sess *core.CallSession, ev core.Event) (DropReason, error) {
	var r tracker.Resolution
	if ev.Kind == core.EventAddParticipantSucceeded {
		r = e.participants.OnAdded(sess, ev.OperationContext)
	} else {
		r = e.participants.OnDeclined(sess, ev.OperationContext)
	}
	if r.Ignored {
		return DropStale, nil
	}

	e.callLog(sess).Info("Invite outcome",
		"participant", ev.Participant,
		"outcome", string(ev.Kind),
		"added", sess.ParticipantsAdded,
		"declined", sess.ParticipantsDeclined,
		"targeted", sess.TotalParticipantsTargeted)

	if !r.Resolved {
		return "", nil
	}
	if r.Fallback {
		return "", e.fallback(ctx, sess, ev, ev.Reason())
	}

	var errs []error
	for _, a := range r.Actions {
		if _, err := e.dispatch(ctx, sess, ev, a); err != nil {
			errs = append(errs, err)
		}
	}
	return "", errors.Join(errs...)
}

// run asks the machine for a decision on a snapshot and applies it.
func (e *Engine) run(ctx context.Context, sess *core.CallSession, ev core.Event, step string) error {
	d := e.machine.Transition(ctx, workflow.Input{Session: sess.Clone(), Event: ev, Step: step})
	if d.IsZero() && d.Err == nil {
		e.callLog(sess).Debug("No transition",
			"event", string(ev.Kind),
			"step", step)
		return nil
	}
	return e.apply(ctx, sess, ev, d)
}

func (e *Engine) apply(ctx context.Context, sess *core.CallSession, ev core.Event, d workflow.Decision) error {
	if d.Err != nil {
		e.callLog(sess).Warn("Workflow reported a problem",
			"step", sess.CurrentStep,
			"error", d.Err.Error())
	}
	for k, v := range d.Set {
		sess.SetVar(k, v)
	}

	switch {
	case d.Fallback:
		return e.fallback(ctx, sess, ev, d.Reason)
	case d.Hangup:
		return e.hangUp(ctx, sess, ev)
	}

	if d.CountRetry {
		if !e.policy.ShouldRetry(sess, d.Reason) {
			return e.fallback(ctx, sess, ev, d.Reason)
		}
		sess.RetryCount++
		e.callLog(sess).Info("Retrying step",
			"step", d.NextStep(),
			"reason", d.Reason.String(),
			"retry_count", sess.RetryCount)
		e.fire(ctx, CallbackOnRetry, &CallbackContext{
			CallConnectionID: sess.CallConnectionID,
			Event:            &ev,
			To:               d.NextStep(),
			Reason:           d.Reason.String(),
			Attempt:          sess.RetryCount,
		})
	} else if d.ResetRetries {
		sess.RetryCount = 0
	}

	var (
		errs     []error
		feedback []core.Event
	)

	if d.Action != nil {
		fb, err := e.dispatch(ctx, sess, ev, *d.Action)
		var submitErr *core.SubmitError
		if err != nil && !errors.As(err, &submitErr) {
			// The machine produced an action that cannot be issued.
			e.callLog(sess).Error("Workflow action rejected",
				"action", string(d.Action.Kind),
				"step", d.Action.Step,
				"error", err.Error())
			return errors.Join(err, e.fallback(ctx, sess, ev, d.Reason))
		}
		if err != nil {
			errs = append(errs, err)
		}
		e.transition(ctx, sess, ev, d.NextStep())
		if fb != nil {
			feedback = append(feedback, *fb)
		}
	} else {
		e.transition(ctx, sess, ev, d.Next)
	}

	if d.Recording != core.RecordingNone {
		if a, ok := core.RecordingAction(d.Recording); ok {
			if _, err := e.dispatch(ctx, sess, ev, a); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if d.Transcribe != "" {
		if _, err := e.dispatch(ctx, sess, ev, core.StartTranscriptionAction(d.Transcribe)); err != nil {
			errs = append(errs, err)
		}
	}

	if len(d.Invites) > 0 {
		step := d.NextStep()
		if step == "" {
			step = stepInvite
		}
		e.participants.Target(sess, len(d.Invites))
		for _, inv := range d.Invites {
			fb, err := e.dispatch(ctx, sess, ev, core.AddParticipantAction(step, inv.Participant, inv.CallerID))
			if err != nil {
				errs = append(errs, err)
			}
			if fb != nil {
				feedback = append(feedback, *fb)
			}
		}
	}

	for _, fb := range feedback {
		errs = append(errs, e.feedback(ctx, sess, fb))
	}
	return errors.Join(errs...)
}

// feedback routes a synthesized failure through the same correlation path
// as a platform event.
func (e *Engine) feedback(ctx context.Context, sess *core.CallSession, fb core.Event) error {
	var err error
	switch {
	case fb.Kind.IsMedia():
		_, err = e.onMedia(ctx, sess, fb)
	case fb.Kind.IsParticipantOutcome():
		_, err = e.onParticipant(ctx, sess, fb)
	}
	return err
}

// fallback plays the apology once and hangs up when it finishes. Pending
// media is canceled first so the apology is the only operation in flight.
func (e *Engine) fallback(ctx context.Context, sess *core.CallSession, ev core.Event, reason core.ReasonCode) error {
	apology, ok := e.policy.Fallback(sess)
	if !ok {
		e.callLog(sess).Debug("Fallback already issued")
		return nil
	}
	sess.FallbackIssued = true

	e.callLog(sess).Warn("Falling back",
		"step", sess.CurrentStep,
		"reason", reason.String(),
		"retry_count", sess.RetryCount)
	e.fire(ctx, CallbackOnFallback, &CallbackContext{
		CallConnectionID: sess.CallConnectionID,
		Event:            &ev,
		From:             sess.CurrentStep,
		Reason:           reason.String(),
		Attempt:          sess.RetryCount,
	})

	var errs []error
	if sess.HasPending() {
		if _, err := e.dispatch(ctx, sess, ev, core.Action{Kind: core.ActionCancelMedia}); err != nil {
			errs = append(errs, err)
			sess.PendingOperation = ""
		}
	}
	if sess.Terminated {
		return errors.Join(errs...)
	}

	fb, err := e.dispatch(ctx, sess, ev, apology)
	switch {
	case fb != nil:
		errs = append(errs, err, e.feedback(ctx, sess, *fb))
	case err != nil:
		errs = append(errs, err, e.hangUp(ctx, sess, ev))
	default:
		e.transition(ctx, sess, ev, policy.StepFallback)
	}
	return errors.Join(errs...)
}

func (e *Engine) hangUp(ctx context.Context, sess *core.CallSession, ev core.Event) error {
	if sess.Terminated {
		return nil
	}
	_, err := e.dispatch(ctx, sess, ev, core.HangUpAction(true))
	return err
}

func (e *Engine) dispatch(ctx context.Context, sess *core.CallSession, ev core.Event, a core.Action) (*core.Event, error) {
	out, err := e.executor.Dispatch(ctx, sess, a)
	logging.LogAction(e.callLog(sess), string(a.Kind), a.Step, out.Tag, err)

	e.fire(ctx, CallbackOnAction, &CallbackContext{
		CallConnectionID: sess.CallConnectionID,
		Event:            &ev,
		Action:           &a,
		Err:              err,
	})
	return out.Feedback, err
}

func (e *Engine) transition(ctx context.Context, sess *core.CallSession, ev core.Event, next string) {
	prev := sess.CurrentStep
	if next == "" || next == prev {
		return
	}
	sess.CurrentStep = next

	logging.LogTransition(e.callLog(sess), string(ev.Kind), prev, next)
	e.fire(ctx, CallbackOnTransition, &CallbackContext{
		CallConnectionID: sess.CallConnectionID,
		Event:            &ev,
		From:             prev,
		To:               next,
	})
}

func (e *Engine) saveRecording(sess *core.CallSession, ev core.Event) error {
	if ev.RecordingFile == nil {
		return fmt.Errorf("%w: recording file status without location", core.ErrMalformedPayload)
	}
	key := sess.ServerCallID
	if key == "" {
		key = sess.CallConnectionID
	}
	if err := e.recordings.Save(key, *ev.RecordingFile); err != nil {
		return fmt.Errorf("save recording location: %w", err)
	}
	e.callLog(sess).Info("Recording file available",
		"server_call_id", key,
		"content_location", ev.RecordingFile.ContentLocation)
	return nil
}

func (e *Engine) end(ctx context.Context, sess *core.CallSession, ev *core.Event, reason string) {
	e.sessions.Remove(sess.CallConnectionID)
	e.callLog(sess).Info("Session ended",
		"step", sess.CurrentStep,
		"reason", reason)
	e.fire(ctx, CallbackOnSessionEnd, &CallbackContext{
		CallConnectionID: sess.CallConnectionID,
		Event:            ev,
		From:             sess.CurrentStep,
		Reason:           reason,
	})
}

func (e *Engine) drop(ctx context.Context, ev core.Event, res Result, reason DropReason, err error) Result {
	res.DropReason = reason
	res.Err = err
	logging.LogDrop(logging.ForCall(e.logger, ev.CallConnectionID, ev.CorrelationID), string(ev.Kind), string(reason), ev.OperationContext)
	e.fire(ctx, CallbackOnDrop, &CallbackContext{
		CallConnectionID: ev.CallConnectionID,
		Event:            &ev,
		Result:           &res,
		Reason:           string(reason),
		Err:              err,
	})
	return res
}

func (e *Engine) callLog(sess *core.CallSession) logging.Logger {
	return logging.ForCall(e.logger, sess.CallConnectionID, sess.CorrelationID)
}

func (e *Engine) fire(ctx context.Context, t CallbackType, c *CallbackContext) {
	if err := e.callbacks.ExecuteCallbacks(ctx, t, c); err != nil {
		e.logger.Warn("Callback failed", "type", string(t), "error", err.Error())
	}
}

// AnswerCall answers an incoming call and creates its session so the caller
// id from the incoming notification is known before CallConnected arrives.
func (e *Engine) AnswerCall(ctx context.Context, incomingCallContext, callbackURI, callerID string) (string, error) {
	id, err := e.client.AnswerCall(ctx, incomingCallContext, callbackURI)
	if err != nil {
		return "", fmt.Errorf("answer call: %w", err)
	}

	unlock := e.locks.lock(id)
	defer unlock()

	sess, created := e.sessions.GetOrCreate(id)
	if sess.CallerID == "" {
		sess.CallerID = callerID
	}
	if created {
		e.fire(ctx, CallbackOnSessionStart, &CallbackContext{CallConnectionID: id})
	}
	e.callLog(sess).Info("Call answered", "caller_id", callerID)
	return id, nil
}

// PlaceCall calls target from callerID and creates the session, so the
// callee is known as the prompted party before CallConnected arrives.
func (e *Engine) PlaceCall(ctx context.Context, target, callerID, callbackURI string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("%w: outbound call without target", core.ErrInvalidAction)
	}
	id, err := e.client.CreateCall(ctx, target, callerID, callbackURI)
	if err != nil {
		return "", fmt.Errorf("create call: %w", err)
	}

	unlock := e.locks.lock(id)
	defer unlock()

	sess, created := e.sessions.GetOrCreate(id)
	sess.CallerID = target
	sess.Outbound = true
	if created {
		e.fire(ctx, CallbackOnSessionStart, &CallbackContext{CallConnectionID: id})
	}
	e.callLog(sess).Info("Call placed", "target", target, "source_caller_id", callerID)
	return id, nil
}

// Dispatch issues an out-of-band action on a live call, e.g. pausing the
// recording from an operator console. Media submission failures are fed back
// through the workflow like platform failures.
func (e *Engine) Dispatch(ctx context.Context, callID string, a core.Action) error {
	unlock := e.locks.lock(callID)
	defer unlock()

	sess, err := e.sessions.Get(callID)
	if err != nil {
		return err
	}
	ev := core.NewEvent(core.EventUnknown, callID)
	fb, err := e.dispatch(ctx, sess, ev, a)
	if fb != nil {
		err = errors.Join(err, e.feedback(ctx, sess, *fb))
	}
	return err
}

// Session returns a snapshot of the call's session.
func (e *Engine) Session(callID string) (*core.CallSession, error) {
	unlock := e.locks.lock(callID)
	defer unlock()

	sess, err := e.sessions.Get(callID)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

type correlator interface {
	Correlate(callID, correlationID string)
	LookupCorrelation(correlationID string) (string, bool)
}

// SessionByCorrelation returns a snapshot of the session of the call that
// carries correlationID. Stores without a correlation index report
// core.ErrSessionNotFound.
func (e *Engine) SessionByCorrelation(correlationID string) (*core.CallSession, error) {
	c, ok := e.sessions.(correlator)
	if !ok || correlationID == "" {
		return nil, core.ErrSessionNotFound
	}
	id, ok := c.LookupCorrelation(correlationID)
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return e.Session(id)
}

// ActiveSessions returns the number of live sessions, or -1 when the store
// cannot count them.
func (e *Engine) ActiveSessions() int {
	if c, ok := e.sessions.(interface{ Len() int }); ok {
		return c.Len()
	}
	return -1
}

type idleEvicter interface {
	EvictIdle(maxIdle time.Duration) []string
}

// Sweep evicts sessions idle for longer than Config.IdleTimeout and returns
// their call ids.
func (e *Engine) Sweep(ctx context.Context) []string {
	ev, ok := e.sessions.(idleEvicter)
	if !ok || e.config.IdleTimeout <= 0 {
		return nil
	}
	evicted := ev.EvictIdle(e.config.IdleTimeout)
	for _, id := range evicted {
		e.logger.Info("Session evicted", "call_connection_id", id, "idle_timeout", e.config.IdleTimeout.String())
		e.fire(ctx, CallbackOnSessionEnd, &CallbackContext{CallConnectionID: id, Reason: "idle"})
	}
	return evicted
}

// StartJanitor sweeps idle sessions every Config.JanitorInterval until ctx
// is done. Only the first call starts a janitor.
func (e *Engine) StartJanitor(ctx context.Context) {
	if _, ok := e.sessions.(idleEvicter); !ok || e.config.IdleTimeout <= 0 {
		e.logger.Debug("Idle eviction disabled")
		return
	}
	interval := e.config.JanitorInterval
	if interval <= 0 {
		interval = time.Minute
	}

	e.janitorOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					e.Sweep(ctx)
				}
			}
		}()
	})
}
