package core

// RecordingLocation points at a finished recording chunk in platform storage.
type RecordingLocation struct {
	RecordingID      string `json:"recordingId,omitempty"`
	DocumentID       string `json:"documentId,omitempty"`
	ContentLocation  string `json:"contentLocation"`
	MetadataLocation string `json:"metadataLocation,omitempty"`
	DeleteLocation   string `json:"deleteLocation,omitempty"`
}

// RecordingStore defines recording location persistence. Implementations
// should be thread-safe and scope locations by server call id.
type RecordingStore interface {
	Save(serverCallID string, loc RecordingLocation) error
	Get(serverCallID, documentID string) (RecordingLocation, error)
	List(serverCallID string) ([]RecordingLocation, error)
	Delete(serverCallID, documentID string) error
}
