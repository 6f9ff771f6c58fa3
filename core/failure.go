package core

// ReasonCode is a platform result sub code, or one of the synthetic reasons
// raised by workflows and the executor.
type ReasonCode int

const (
	ReasonNone ReasonCode = 0

	// Platform sub codes.
	ReasonOperationCanceled     ReasonCode = 8508
	ReasonInitialSilenceTimeout ReasonCode = 8510
	ReasonPlayPromptFailed      ReasonCode = 8511
	ReasonMaxTonesReceived      ReasonCode = 8514
	ReasonInterToneTimeout      ReasonCode = 8532
	ReasonIncorrectTone         ReasonCode = 8534
	ReasonInvalidFileFormat     ReasonCode = 8535
	ReasonFileDownloadFailed    ReasonCode = 8536
	ReasonSpeechNotMatched      ReasonCode = 8547
	ReasonRecordingActive       ReasonCode = 8553

	// Synthetic reasons, kept below the platform range.
	ReasonInvalidInput ReasonCode = 1
	ReasonMismatch     ReasonCode = 2
	ReasonSubmitFailed ReasonCode = 3
)

// SubmitFailedSubCode is the sub code carried by failure events the executor
// synthesizes when the platform rejects a request synchronously.
const SubmitFailedSubCode = int(ReasonSubmitFailed)

func (r ReasonCode) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonOperationCanceled:
		return "operation_canceled"
	case ReasonInitialSilenceTimeout:
		return "initial_silence_timeout"
	case ReasonPlayPromptFailed:
		return "play_prompt_failed"
	case ReasonMaxTonesReceived:
		return "max_tones_received"
	case ReasonInterToneTimeout:
		return "inter_tone_timeout"
	case ReasonIncorrectTone:
		return "incorrect_tone"
	case ReasonInvalidFileFormat:
		return "invalid_file_format"
	case ReasonFileDownloadFailed:
		return "file_download_failed"
	case ReasonSpeechNotMatched:
		return "speech_not_matched"
	case ReasonRecordingActive:
		return "recording_already_active"
	case ReasonInvalidInput:
		return "invalid_input"
	case ReasonMismatch:
		return "mismatch"
	case ReasonSubmitFailed:
		return "submit_failed"
	}
	return "unknown"
}

// FailureClass buckets events by how the engine must react to them.
type FailureClass int

const (
	FailureNone FailureClass = iota
	// RecoverableRecognitionFailure: re-prompt while retries remain.
	RecoverableRecognitionFailure
	// TerminalMediaFailure: fall back to apology and hang-up.
	TerminalMediaFailure
	// DownstreamParticipantFailure: counts as a declined invite.
	DownstreamParticipantFailure
	// UnknownOrStaleEvent: logged and dropped.
	UnknownOrStaleEvent
	// MalformedPayload: logged and skipped.
	MalformedPayload
)

func (c FailureClass) String() string {
	switch c {
	case RecoverableRecognitionFailure:
		return "recoverable_recognition_failure"
	case TerminalMediaFailure:
		return "terminal_media_failure"
	case DownstreamParticipantFailure:
		return "downstream_participant_failure"
	case UnknownOrStaleEvent:
		return "unknown_or_stale_event"
	case MalformedPayload:
		return "malformed_payload"
	}
	return "none"
}

// IsRecoverableRecognition reports whether a recognize failure with reason r
// may be retried.
func IsRecoverableRecognition(r ReasonCode) bool {
	switch r {
	case ReasonInitialSilenceTimeout, ReasonInterToneTimeout, ReasonIncorrectTone,
		ReasonSpeechNotMatched, ReasonInvalidInput, ReasonMismatch:
		return true
	}
	return false
}

// Classify maps an event to its failure class. Successful events and
// informational notifications classify as FailureNone.
func Classify(ev Event) FailureClass {
	if ev.CallConnectionID == "" || !ev.Kind.Known() {
		return MalformedPayload
	}
	switch ev.Kind {
	case EventRecognizeFailed:
		if IsRecoverableRecognition(ev.Reason()) {
			return RecoverableRecognitionFailure
		}
		return TerminalMediaFailure
	case EventPlayFailed:
		return TerminalMediaFailure
	case EventAddParticipantFailed, EventRemoveParticipantFailed:
		return DownstreamParticipantFailure
	}
	return FailureNone
}
