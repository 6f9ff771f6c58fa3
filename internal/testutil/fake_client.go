package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/callflow/core"
)

// Call records one request received by FakeClient.
type Call struct {
	Method           string
	CallConnectionID string
	OperationContext string
	Play             *core.PlaySource
	Recognize        *core.RecognizeOptions
	Participant      string
	CallerID         string
	ForEveryone      bool
	RecordingID      string
}

// FakeClient is a core.CallClient that records every request and never talks
// to a platform. Set Fail to make a method return an error.
type FakeClient struct {
	mu    sync.Mutex
	calls []Call
	fail  map[string]error

	// RecordingID is returned by StartRecording.
	RecordingID string
	// ConnectionID is returned by AnswerCall and CreateCall.
	ConnectionID string
}

// Interface compliance (compile-time assertion)
var _ core.CallClient = (*FakeClient)(nil)

// NewFakeClient creates an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{fail: map[string]error{}, RecordingID: "rec-1", ConnectionID: "call-answered"}
}

// Fail makes method return err until cleared with a nil err.
func (f *FakeClient) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, method)
		return
	}
	f.fail[method] = err
}

// Calls returns a copy of every recorded request.
func (f *FakeClient) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded requests for one method.
func (f *FakeClient) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Last returns the most recent request, or false if none.
func (f *FakeClient) Last() (Call, bool) {
	calls := f.Calls()
	if len(calls) == 0 {
		return Call{}, false
	}
	return calls[len(calls)-1], true
}

// Reset forgets recorded requests.
func (f *FakeClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeClient) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if err, ok := f.fail[c.Method]; ok {
		return fmt.Errorf("fake %s: %w", c.Method, err)
	}
	return nil
}

func (f *FakeClient) AnswerCall(_ context.Context, incomingCallContext, callbackURI string) (string, error) {
	if err := f.record(Call{Method: "AnswerCall", OperationContext: callbackURI}); err != nil {
		return "", err
	}
	return f.ConnectionID, nil
}

func (f *FakeClient) CreateCall(_ context.Context, target, callerID, callbackURI string) (string, error) {
	if err := f.record(Call{Method: "CreateCall", OperationContext: callbackURI, Participant: target, CallerID: callerID}); err != nil {
		return "", err
	}
	return f.ConnectionID, nil
}

func (f *FakeClient) Play(_ context.Context, callID string, src core.PlaySource, target, opCtx string) error {
	return f.record(Call{Method: "Play", CallConnectionID: callID, OperationContext: opCtx, Play: &src, Participant: target})
}

func (f *FakeClient) StartRecognizing(_ context.Context, callID string, opts core.RecognizeOptions, opCtx string) error {
	return f.record(Call{Method: "StartRecognizing", CallConnectionID: callID, OperationContext: opCtx, Recognize: &opts})
}

func (f *FakeClient) CancelAllMedia(_ context.Context, callID string) error {
	return f.record(Call{Method: "CancelAllMedia", CallConnectionID: callID})
}

func (f *FakeClient) AddParticipant(_ context.Context, callID, participant, _ string, opCtx string) error {
	return f.record(Call{Method: "AddParticipant", CallConnectionID: callID, OperationContext: opCtx, Participant: participant})
}

func (f *FakeClient) RemoveParticipant(_ context.Context, callID, participant, opCtx string) error {
	return f.record(Call{Method: "RemoveParticipant", CallConnectionID: callID, OperationContext: opCtx, Participant: participant})
}

func (f *FakeClient) HangUp(_ context.Context, callID string, forEveryone bool) error {
	return f.record(Call{Method: "HangUp", CallConnectionID: callID, ForEveryone: forEveryone})
}

func (f *FakeClient) StartRecording(_ context.Context, serverCallID string) (string, error) {
	if err := f.record(Call{Method: "StartRecording", CallConnectionID: serverCallID}); err != nil {
		return "", err
	}
	return f.RecordingID, nil
}

func (f *FakeClient) PauseRecording(_ context.Context, recordingID string) error {
	return f.record(Call{Method: "PauseRecording", RecordingID: recordingID})
}

func (f *FakeClient) ResumeRecording(_ context.Context, recordingID string) error {
	return f.record(Call{Method: "ResumeRecording", RecordingID: recordingID})
}

func (f *FakeClient) StopRecording(_ context.Context, recordingID string) error {
	return f.record(Call{Method: "StopRecording", RecordingID: recordingID})
}

func (f *FakeClient) StartTranscription(_ context.Context, callID, locale string) error {
	return f.record(Call{Method: "StartTranscription", CallConnectionID: callID, OperationContext: locale})
}

func (f *FakeClient) StopTranscription(_ context.Context, callID string) error {
	return f.record(Call{Method: "StopTranscription", CallConnectionID: callID})
}
