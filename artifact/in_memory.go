package artifact

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/callflow/core"
)

// InMemoryStore is an in-process RecordingStore useful for tests, examples
// and single-process deployments. Locations are kept in a nested map guarded
// by an RWMutex.
//
// Layout: serverCallID -> documentID -> location
//
// It does not enforce retention limits; locations stay until deleted.
type InMemoryStore struct {
	mu        sync.RWMutex
	locations map[string]map[string]core.RecordingLocation
}

// NewInMemoryStore returns an empty in-memory recording store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{locations: make(map[string]map[string]core.RecordingLocation)}
}

// Save stores (or overwrites) a location. The document id defaults to the
// content location when the platform did not send one.
func (a *InMemoryStore) Save(serverCallID string, loc core.RecordingLocation) error {
	if loc.ContentLocation == "" {
		return fmt.Errorf("save recording for %q: empty content location", serverCallID)
	}
	if loc.DocumentID == "" {
		loc.DocumentID = loc.ContentLocation
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.locations[serverCallID]; !exists {
		a.locations[serverCallID] = make(map[string]core.RecordingLocation)
	}
	a.locations[serverCallID][loc.DocumentID] = loc
	return nil
}

// Get returns the stored location or ErrNotFound.
func (a *InMemoryStore) Get(serverCallID, documentID string) (core.RecordingLocation, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.locations[serverCallID]
	if !ok {
		return core.RecordingLocation{}, ErrNotFound
	}
	loc, ok := m[documentID]
	if !ok {
		return core.RecordingLocation{}, ErrNotFound
	}
	return loc, nil
}

// List returns the locations stored for the call ordered by document id.
// The slice is a snapshot and safe for caller mutation.
func (a *InMemoryStore) List(serverCallID string) ([]core.RecordingLocation, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m := a.locations[serverCallID]
	out := make([]core.RecordingLocation, 0, len(m))
	for _, loc := range m {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

// Delete removes the location if present or returns ErrNotFound.
func (a *InMemoryStore) Delete(serverCallID, documentID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.locations[serverCallID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[documentID]; !ok {
		return ErrNotFound
	}
	delete(m, documentID)
	if len(m) == 0 {
		delete(a.locations, serverCallID)
	}
	return nil
}
