package engine

import "sync"

// callLocks hands out one mutex per call connection id. Entries are
// reference counted and removed when the last holder releases them, so the
// map only holds calls that are being handled right now.
type callLocks struct {
	mu    sync.Mutex
	locks map[string]*callLock
}

type callLock struct {
	mu   sync.Mutex
	refs int
}

func newCallLocks() *callLocks {
	return &callLocks{locks: make(map[string]*callLock)}
}

// lock blocks until the call's lock is held and returns its release func.
func (c *callLocks) lock(callID string) func() {
	c.mu.Lock()
	l, ok := c.locks[callID]
	if !ok {
		l = &callLock{}
		c.locks[callID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, callID)
		}
		c.mu.Unlock()
	}
}

func (c *callLocks) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
