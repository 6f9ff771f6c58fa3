package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/callflow/core"
)

func TestShouldRetry_Bound(t *testing.T) {
	p := New()
	sess := core.NewCallSession("call-1")

	var retries []bool
	for i := 0; i < 5; i++ {
		ok := p.ShouldRetry(sess, core.ReasonInitialSilenceTimeout)
		retries = append(retries, ok)
		if !ok {
			break
		}
		sess.RetryCount++
	}

	assert.Equal(t, []bool{true, true, false}, retries)
	assert.LessOrEqual(t, sess.RetryCount, p.MaxRetries())
}

func TestShouldRetry_NonRecoverable(t *testing.T) {
	p := New()
	sess := core.NewCallSession("call-1")

	assert.False(t, p.ShouldRetry(sess, core.ReasonPlayPromptFailed))
	assert.False(t, p.ShouldRetry(sess, core.ReasonSubmitFailed))
}

func TestIsRecoverable(t *testing.T) {
	p := New()
	for _, r := range []core.ReasonCode{
		core.ReasonInitialSilenceTimeout, core.ReasonInterToneTimeout, core.ReasonIncorrectTone,
		core.ReasonSpeechNotMatched, core.ReasonInvalidInput, core.ReasonMismatch,
	} {
		assert.True(t, p.IsRecoverable(r), r.String())
	}
	assert.False(t, p.IsRecoverable(core.ReasonFileDownloadFailed))

	custom := New(func(o *Options) { o.Recoverable = []core.ReasonCode{core.ReasonFileDownloadFailed} })
	assert.True(t, custom.IsRecoverable(core.ReasonFileDownloadFailed))
	assert.False(t, custom.IsRecoverable(core.ReasonInitialSilenceTimeout))
}

func TestMaxRetriesOne(t *testing.T) {
	p := New(func(o *Options) { o.MaxRetries = 0 })
	sess := core.NewCallSession("call-1")

	assert.Equal(t, 1, p.MaxRetries())
	assert.False(t, p.ShouldRetry(sess, core.ReasonIncorrectTone))
}

func TestFallbackOnce(t *testing.T) {
	p := New()
	sess := core.NewCallSession("call-1")

	a, ok := p.Fallback(sess)
	assert.True(t, ok)
	assert.Equal(t, core.ActionPlay, a.Kind)
	assert.Equal(t, StepFallback, a.Step)
	assert.NoError(t, a.Validate())

	sess.FallbackIssued = true
	_, ok = p.Fallback(sess)
	assert.False(t, ok)
}
