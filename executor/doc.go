// Package executor turns workflow actions into CallClient requests.
//
// Dispatch is the only place that mints operation tags and the only place
// that writes PendingOperation and PendingInvites. It issues exactly one
// platform request per action and never retries: when the platform rejects a
// request synchronously the executor synthesizes the failure event the
// platform would have sent (PlayFailed, RecognizeFailed or
// AddParticipantFailed carrying core.SubmitFailedSubCode) and returns it as
// Outcome.Feedback so the engine can route it through the state machine like
// any other outcome.
//
// Dispatch must be called with the session's call lock held.
package executor
