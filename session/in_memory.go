package session

import (
	"sync"
	"time"

	"github.com/hupe1980/callflow/core"
)

type entry struct {
	sess          *core.CallSession
	lastSeen      time.Time
	correlationID string
}

// InMemoryStore is a volatile SessionStore keeping call sessions in a process
// local map keyed by call connection id. The map itself is guarded by an
// RWMutex; the returned *core.CallSession is the live value and must only be
// mutated while the caller holds that call's engine lock.
//
// Idle tracking and the correlation index are store-side copies, so neither
// eviction nor lookups read session fields owned by another goroutine.
type InMemoryStore struct {
	mu           sync.RWMutex
	entries      map[string]*entry
	correlations map[string]string
	now          func() time.Time
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*entry), correlations: make(map[string]string), now: time.Now}
}

// GetOrCreate returns the session for callID, creating it on first use.
func (s *InMemoryStore) GetOrCreate(callID string) (*core.CallSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[callID]; ok {
		e.lastSeen = s.now()
		return e.sess, false
	}
	sess := core.NewCallSession(callID)
	s.entries[callID] = &entry{sess: sess, lastSeen: s.now()}
	return sess, true
}

// Get returns the session for callID or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(callID string) (*core.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[callID]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e.sess, nil
}

// Remove deletes the session for callID. Removing an unknown id is a no-op.
func (s *InMemoryStore) Remove(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(callID)
}

func (s *InMemoryStore) remove(callID string) {
	if e, ok := s.entries[callID]; ok && e.correlationID != "" {
		delete(s.correlations, e.correlationID)
	}
	delete(s.entries, callID)
}

// Correlate indexes callID under correlationID. Unknown calls and empty ids
// are ignored.
func (s *InMemoryStore) Correlate(callID, correlationID string) {
	if correlationID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[callID]
	if !ok {
		return
	}
	if e.correlationID != "" {
		delete(s.correlations, e.correlationID)
	}
	e.correlationID = correlationID
	s.correlations[correlationID] = callID
}

// LookupCorrelation returns the call id indexed under correlationID.
func (s *InMemoryStore) LookupCorrelation(correlationID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.correlations[correlationID]
	return id, ok
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IDs returns the call ids of all live sessions.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// EvictIdle removes sessions not looked up for longer than maxIdle and
// returns their call ids.
func (s *InMemoryStore) EvictIdle(maxIdle time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	var evicted []string
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			s.remove(id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
