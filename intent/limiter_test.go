package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/model"
)

func TestLimiter(t *testing.T) {
	l := NewLimiter(2)
	assert.Equal(t, 2, l.Remaining())

	r1, err := l.Acquire()
	require.NoError(t, err)
	r2, err := l.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 2, l.InFlight())

	_, err = l.Acquire()
	assert.ErrorIs(t, err, ErrModelBusy)
	assert.Equal(t, 1, l.Rejected())

	r1()
	r1()
	assert.Equal(t, 1, l.InFlight())
	assert.Equal(t, 1, l.Remaining())
	r2()
	assert.Equal(t, 0, l.InFlight())
}

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter(0)
	for i := 0; i < 100; i++ {
		_, err := l.Acquire()
		require.NoError(t, err)
	}
	assert.Equal(t, -1, l.Remaining())
}

func TestModelClassifierRespectsLimiter(t *testing.T) {
	mm := model.NewMockModel("mock", "test")
	mm.AddResponse("talk to a person", "AGENT")

	l := NewLimiter(1)
	hold, err := l.Acquire()
	require.NoError(t, err)

	c := NewModel(mm, core.ToneNine, bankClasses()...).WithLimiter(l)
	m, err := c.Classify(context.Background(), "talk to a person")
	assert.ErrorIs(t, err, ErrModelBusy)
	assert.Equal(t, core.ToneNine, m.Tone)

	hold()
	m, err = c.Classify(context.Background(), "talk to a person")
	require.NoError(t, err)
	assert.Equal(t, core.ToneZero, m.Tone)
	assert.Equal(t, 0, l.InFlight())
}
