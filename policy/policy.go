// Package policy decides whether a failed or rejected recognition is retried
// or ends in the fallback path (apology prompt followed by hang-up).
package policy

import (
	"github.com/hupe1980/callflow/core"
)

// DefaultMaxRetries bounds the attempts of one menu step.
const DefaultMaxRetries = 3

// StepFallback tags the apology prompt played before a terminal hang-up.
const StepFallback = "FallbackApology"

// Options configures a Policy.
type Options struct {
	// MaxRetries is the number of attempts a step gets; the MaxRetries-th
	// failure is terminal.
	MaxRetries int
	// Recoverable overrides the set of reasons eligible for a retry.
	Recoverable []core.ReasonCode
	// Apology is the prompt played on fallback.
	Apology core.PlaySource
}

// Policy is stateless; all counters live on the session.
type Policy struct {
	maxRetries  int
	recoverable map[core.ReasonCode]struct{}
	apology     core.PlaySource
}

// New creates a Policy.
func New(optFns ...func(o *Options)) *Policy {
	opts := Options{
		MaxRetries: DefaultMaxRetries,
		Apology: core.PlaySource{
			Kind: core.PlaySourceText,
			Text: "We are sorry, something went wrong. Please call again later. Goodbye.",
		},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	p := &Policy{maxRetries: opts.MaxRetries, apology: opts.Apology, recoverable: map[core.ReasonCode]struct{}{}}
	if len(opts.Recoverable) > 0 {
		for _, r := range opts.Recoverable {
			p.recoverable[r] = struct{}{}
		}
	}
	return p
}

// MaxRetries returns the configured attempt bound.
func (p *Policy) MaxRetries() int {
	return p.maxRetries
}

// IsRecoverable reports whether reason is eligible for a retry at all.
func (p *Policy) IsRecoverable(reason core.ReasonCode) bool {
	if len(p.recoverable) == 0 {
		return core.IsRecoverableRecognition(reason)
	}
	_, ok := p.recoverable[reason]
	return ok
}

// ShouldRetry reports whether the step may be re-issued. RetryCount counts
// re-issues so far; the failing attempt is RetryCount+1.
func (p *Policy) ShouldRetry(sess *core.CallSession, reason core.ReasonCode) bool {
	return p.IsRecoverable(reason) && sess.RetryCount+1 < p.maxRetries
}

// Fallback returns the apology action, or false if the session already went
// through fallback and must not repeat it.
func (p *Policy) Fallback(sess *core.CallSession) (core.Action, bool) {
	if sess.FallbackIssued {
		return core.Action{}, false
	}
	return core.PlayAction(StepFallback, p.apology), true
}
