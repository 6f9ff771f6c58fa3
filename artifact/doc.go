// Package artifact contains implementations of core.RecordingStore.
//
// The platform reports finished recording chunks through
// RecordingFileStatusUpdated events that carry content, metadata and delete
// locations. The engine saves those locations here keyed by server call id
// so they outlive the call session, which is removed on hang-up.
//
// Callers should depend on the core interface rather than concrete types so
// they can substitute a durable store in production.
package artifact
