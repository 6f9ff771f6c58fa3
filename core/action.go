package core

import (
	"fmt"
	"time"
)

// ActionKind names an outbound platform request.
type ActionKind string

const (
	ActionPlay               ActionKind = "play"
	ActionRecognize          ActionKind = "recognize"
	ActionAddParticipant     ActionKind = "add_participant"
	ActionRemoveParticipant  ActionKind = "remove_participant"
	ActionHangUp             ActionKind = "hang_up"
	ActionCancelMedia        ActionKind = "cancel_media"
	ActionStartRecording     ActionKind = "start_recording"
	ActionPauseRecording     ActionKind = "pause_recording"
	ActionResumeRecording    ActionKind = "resume_recording"
	ActionStopRecording      ActionKind = "stop_recording"
	ActionStartTranscription ActionKind = "start_transcription"
	ActionStopTranscription  ActionKind = "stop_transcription"
)

// IsMedia reports whether the action occupies the session's single pending
// media slot until its completion event arrives.
func (k ActionKind) IsMedia() bool {
	return k == ActionPlay || k == ActionRecognize
}

// PlaySourceKind selects how a prompt is rendered.
type PlaySourceKind string

const (
	PlaySourceText PlaySourceKind = "text"
	PlaySourceSSML PlaySourceKind = "ssml"
	PlaySourceFile PlaySourceKind = "file"
)

// PlaySource is a fully resolved prompt.
type PlaySource struct {
	Kind     PlaySourceKind `json:"kind"`
	Text     string         `json:"text,omitempty"`
	SSML     string         `json:"ssml,omitempty"`
	URL      string         `json:"url,omitempty"`
	Voice    string         `json:"voice,omitempty"`
	Locale   string         `json:"locale,omitempty"`
	SourceID string         `json:"sourceId,omitempty"`
}

func (p PlaySource) validate() error {
	switch p.Kind {
	case PlaySourceText:
		if p.Text == "" {
			return fmt.Errorf("%w: text prompt is empty", ErrInvalidAction)
		}
	case PlaySourceSSML:
		if p.SSML == "" {
			return fmt.Errorf("%w: ssml prompt is empty", ErrInvalidAction)
		}
	case PlaySourceFile:
		if p.URL == "" {
			return fmt.Errorf("%w: file prompt has no url", ErrInvalidAction)
		}
	default:
		return fmt.Errorf("%w: unknown play source kind %q", ErrInvalidAction, p.Kind)
	}
	return nil
}

// RecognizeKind selects the recognition input mode.
type RecognizeKind string

const (
	RecognizeDTMF         RecognizeKind = "dtmf"
	RecognizeSpeech       RecognizeKind = "speech"
	RecognizeChoice       RecognizeKind = "choices"
	RecognizeSpeechOrDTMF RecognizeKind = "speechOrDtmf"
)

// Choice is one option of a choice recognition.
type Choice struct {
	Label   string   `json:"label"`
	Phrases []string `json:"phrases"`
	Tone    Tone     `json:"tone,omitempty"`
}

// RecognizeOptions are the platform parameters for a recognition. Timeouts
// are enforced by the platform, never locally.
type RecognizeOptions struct {
	Kind                  RecognizeKind `json:"kind"`
	Target                string        `json:"target"`
	Prompt                *PlaySource   `json:"prompt,omitempty"`
	MaxTones              int           `json:"maxTones,omitempty"`
	StopTones             []Tone        `json:"stopTones,omitempty"`
	Choices               []Choice      `json:"choices,omitempty"`
	InitialSilenceTimeout time.Duration `json:"initialSilenceTimeout,omitempty"`
	InterToneTimeout      time.Duration `json:"interToneTimeout,omitempty"`
	EndSilenceTimeout     time.Duration `json:"endSilenceTimeout,omitempty"`
	InterruptPrompt       bool          `json:"interruptPrompt"`
	SpeechLanguage        string        `json:"speechLanguage,omitempty"`
}

// Action is a fully resolved outbound request. Step is the logical step the
// resulting operation is tagged with; the executor mints the actual tag.
type Action struct {
	Kind        ActionKind        `json:"kind"`
	Step        string            `json:"step,omitempty"`
	Play        *PlaySource       `json:"play,omitempty"`
	PlayTarget  string            `json:"playTarget,omitempty"`
	Recognize   *RecognizeOptions `json:"recognize,omitempty"`
	Participant string            `json:"participant,omitempty"`
	CallerID    string            `json:"callerId,omitempty"`
	ForEveryone bool              `json:"forEveryone,omitempty"`
	Locale      string            `json:"locale,omitempty"`
}

// Validate checks that every field the action kind needs is present.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionPlay:
		if a.Step == "" {
			return fmt.Errorf("%w: play without step", ErrInvalidAction)
		}
		if a.Play == nil {
			return fmt.Errorf("%w: play without source", ErrInvalidAction)
		}
		return a.Play.validate()
	case ActionRecognize:
		if a.Step == "" {
			return fmt.Errorf("%w: recognize without step", ErrInvalidAction)
		}
		r := a.Recognize
		if r == nil {
			return fmt.Errorf("%w: recognize without options", ErrInvalidAction)
		}
		if r.Target == "" {
			return fmt.Errorf("%w: recognize without target participant", ErrInvalidAction)
		}
		switch r.Kind {
		case RecognizeDTMF, RecognizeSpeechOrDTMF:
			if r.MaxTones <= 0 {
				return fmt.Errorf("%w: dtmf recognize needs max tones", ErrInvalidAction)
			}
		case RecognizeChoice:
			if len(r.Choices) == 0 {
				return fmt.Errorf("%w: choice recognize without choices", ErrInvalidAction)
			}
		case RecognizeSpeech:
		default:
			return fmt.Errorf("%w: unknown recognize kind %q", ErrInvalidAction, r.Kind)
		}
		if r.Prompt != nil {
			return r.Prompt.validate()
		}
	case ActionAddParticipant, ActionRemoveParticipant:
		if a.Participant == "" {
			return fmt.Errorf("%w: %s without participant", ErrInvalidAction, a.Kind)
		}
		if a.Kind == ActionAddParticipant && a.Step == "" {
			return fmt.Errorf("%w: add participant without step", ErrInvalidAction)
		}
	case ActionHangUp, ActionCancelMedia,
		ActionStartRecording, ActionPauseRecording, ActionResumeRecording, ActionStopRecording,
		ActionStartTranscription, ActionStopTranscription:
	default:
		return fmt.Errorf("%w: unknown action kind %q", ErrInvalidAction, a.Kind)
	}
	return nil
}

// PlayAction builds a broadcast play of src tagged with step.
func PlayAction(step string, src PlaySource) Action {
	return Action{Kind: ActionPlay, Step: step, Play: &src}
}

// RecognizeAction builds a recognition tagged with step.
func RecognizeAction(step string, opts RecognizeOptions) Action {
	return Action{Kind: ActionRecognize, Step: step, Recognize: &opts}
}

// AddParticipantAction invites participant, presenting callerID.
func AddParticipantAction(step, participant, callerID string) Action {
	return Action{Kind: ActionAddParticipant, Step: step, Participant: participant, CallerID: callerID}
}

// RemoveParticipantAction removes participant from the call.
func RemoveParticipantAction(participant string) Action {
	return Action{Kind: ActionRemoveParticipant, Participant: participant}
}

// HangUpAction ends the call, for everyone or just this leg.
func HangUpAction(forEveryone bool) Action {
	return Action{Kind: ActionHangUp, ForEveryone: forEveryone}
}

// StartTranscriptionAction starts live transcription in locale.
func StartTranscriptionAction(locale string) Action {
	return Action{Kind: ActionStartTranscription, Locale: locale}
}

// RecordingAction maps a recording directive to its action.
func RecordingAction(op RecordingOp) (Action, bool) {
	switch op {
	case RecordingStart:
		return Action{Kind: ActionStartRecording}, true
	case RecordingPause:
		return Action{Kind: ActionPauseRecording}, true
	case RecordingResume:
		return Action{Kind: ActionResumeRecording}, true
	case RecordingStop:
		return Action{Kind: ActionStopRecording}, true
	}
	return Action{}, false
}
