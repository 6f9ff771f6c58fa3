package intent

import (
	"errors"
	"sync"
)

// ErrModelBusy is returned when a classification would exceed the limiter.
var ErrModelBusy = errors.New("intent: too many model classifications in flight")

// Limiter caps the number of model classifications running at once, so a
// burst of calls cannot queue up behind a slow model. A zero max is unlimited.
type Limiter struct {
	max      int
	inFlight int
	rejected int
	mu       sync.Mutex
}

// NewLimiter creates a limiter for max concurrent classifications.
func NewLimiter(max int) *Limiter {
	return &Limiter{max: max}
}

// Acquire reserves a slot. The returned release must be called exactly once.
func (l *Limiter) Acquire() (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.inFlight >= l.max {
		l.rejected++
		return nil, ErrModelBusy
	}
	l.inFlight++

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.inFlight--
			l.mu.Unlock()
		})
	}, nil
}

// InFlight returns the number of running classifications.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.inFlight
}

// Rejected returns how many classifications were turned away.
func (l *Limiter) Rejected() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rejected
}

// Remaining returns the free slots, or -1 when unlimited.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1
	}
	return l.max - l.inFlight
}
