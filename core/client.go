package core

import "context"

// CallClient is the telephony platform's call-control surface. Every method
// submits a request and returns once the platform accepted it; the outcome
// arrives later as an Event carrying the supplied operation context.
type CallClient interface {
	// AnswerCall answers an incoming call and returns its call connection id.
	AnswerCall(ctx context.Context, incomingCallContext, callbackURI string) (string, error)
	// CreateCall places a call from callerID to target and returns its call
	// connection id. Events for the call are posted to callbackURI.
	CreateCall(ctx context.Context, target, callerID, callbackURI string) (string, error)

	Play(ctx context.Context, callConnectionID string, src PlaySource, target string, operationContext string) error
	StartRecognizing(ctx context.Context, callConnectionID string, opts RecognizeOptions, operationContext string) error
	CancelAllMedia(ctx context.Context, callConnectionID string) error

	AddParticipant(ctx context.Context, callConnectionID, participant, callerID, operationContext string) error
	RemoveParticipant(ctx context.Context, callConnectionID, participant, operationContext string) error
	HangUp(ctx context.Context, callConnectionID string, forEveryone bool) error

	// StartRecording starts recording the call identified by serverCallID and
	// returns the recording id.
	StartRecording(ctx context.Context, serverCallID string) (string, error)
	PauseRecording(ctx context.Context, recordingID string) error
	ResumeRecording(ctx context.Context, recordingID string) error
	StopRecording(ctx context.Context, recordingID string) error

	StartTranscription(ctx context.Context, callConnectionID, locale string) error
	StopTranscription(ctx context.Context, callConnectionID string) error
}
