package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/logging"
	"github.com/hupe1980/callflow/model"
)

func bankClasses() []Class {
	return []Class{
		{Label: "balance", Tone: core.ToneOne, Phrases: []string{"account balance", "account", "balance"}},
		{Label: "card_address", Tone: core.ToneThree, Phrases: []string{"credit card address"}},
		{Label: "card", Tone: core.ToneTwo, Phrases: []string{"credit card"}},
		{Label: "agent", Tone: core.ToneZero, Phrases: []string{"agent", "customer service"}},
		{Label: "goodbye", Tone: core.ToneD, Phrases: []string{"no", "i'm good", "thank you"}},
	}
}

func TestKeyword_Classify(t *testing.T) {
	k := NewKeyword(core.ToneNine, bankClasses()...)

	tests := []struct {
		utterance string
		want      core.Tone
		label     string
	}{
		{"I want to check my balance.", core.ToneOne, "balance"},
		{"Update my CREDIT CARD ADDRESS please", core.ToneThree, "card_address"},
		{"my credit card", core.ToneTwo, "card"},
		{"Can I talk to an agent?", core.ToneZero, "agent"},
		{"No, I'm good", core.ToneD, "goodbye"},
		{"I’m good thanks", core.ToneD, "goodbye"},
		{"Thank you!", core.ToneD, "goodbye"},
		// Whole words only: "know" does not contain the word "no".
		{"I don't know", core.ToneNine, ""},
		{"agents", core.ToneNine, ""},
		{"", core.ToneNine, ""},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			m, err := k.Classify(context.Background(), tt.utterance)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Tone)
			assert.Equal(t, tt.label, m.Label)
			assert.Equal(t, tt.label != "", m.Matched)
		})
	}
}

func TestKeyword_FirstDeclaredClassWins(t *testing.T) {
	k := NewKeyword(core.ToneNine, bankClasses()...)

	// Mentions both balance and agent; balance is declared first.
	m, err := k.Classify(context.Background(), "agent, what is my balance")
	require.NoError(t, err)
	assert.Equal(t, core.ToneOne, m.Tone)
}

func TestModel_Classify(t *testing.T) {
	mm := model.NewMockModel("mock", "test")
	mm.AddResponse("I'd like a human", "agent")
	mm.AddResponse("what's the weather", "NONE")
	c := NewModel(mm, core.ToneNine, bankClasses()...)

	m, err := c.Classify(context.Background(), "I'd like a human")
	require.NoError(t, err)
	assert.Equal(t, core.ToneZero, m.Tone)
	assert.True(t, m.Matched)

	m, err = c.Classify(context.Background(), "what's the weather")
	require.NoError(t, err)
	assert.Equal(t, core.ToneNine, m.Tone)
	assert.False(t, m.Matched)
}

func TestChain(t *testing.T) {
	mm := model.NewMockModel("mock", "test")
	mm.AddResponse("I'd like a human", "AGENT")
	chain := Chain{NewKeyword(core.ToneNine, bankClasses()...), NewModel(mm, core.ToneNine, bankClasses()...)}

	m, err := chain.Classify(context.Background(), "balance")
	require.NoError(t, err)
	assert.Equal(t, core.ToneOne, m.Tone)

	m, err = chain.Classify(context.Background(), "I'd like a human")
	require.NoError(t, err)
	assert.Equal(t, core.ToneZero, m.Tone)
}

func TestChain_ModelErrorFallsBackToNoMatch(t *testing.T) {
	mm := model.NewMockModel("mock", "test")
	mm.FailWith(errors.New("unavailable"))
	chain := Chain{NewKeyword(core.ToneNine, bankClasses()...), NewModel(mm, core.ToneNine, bankClasses()...)}

	m, err := chain.Classify(context.Background(), "gibberish")
	assert.Error(t, err)
	assert.Equal(t, core.ToneNine, m.Tone)
	assert.False(t, m.Matched)
}

func TestModel_LogsFailedCall(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = buf
	mm := model.NewMockModel("mock-llm", "test")
	mm.FailWith(errors.New("unavailable"))
	c := NewModel(mm, core.ToneNine, bankClasses()...).WithLogger(logging.NewLogger(cfg))

	_, err := c.Classify(context.Background(), "gibberish")
	require.Error(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "LLM call failed", entry["msg"])
	assert.Equal(t, "mock-llm", entry["model"])
	assert.Equal(t, "unavailable", entry["error"])
}
