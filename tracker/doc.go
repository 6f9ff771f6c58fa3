// Package tracker follows lifecycles that span several asynchronous platform
// callbacks: outstanding participant invites (gating the post-add action) and
// the recording / transcription state diagrams.
//
// Trackers mutate the session handed to them and must be called with the
// call's engine lock held. They never block waiting for an acknowledgement;
// state only moves when the corresponding event arrives.
package tracker
