package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAction_Validate(t *testing.T) {
	text := PlaySource{Kind: PlaySourceText, Text: "hello"}

	tests := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"play ok", PlayAction("Greeting", text), false},
		{"play missing step", PlayAction("", text), true},
		{"play empty source", PlayAction("Greeting", PlaySource{Kind: PlaySourceText}), true},
		{"play file without url", PlayAction("Greeting", PlaySource{Kind: PlaySourceFile}), true},
		{"recognize dtmf ok", RecognizeAction("Menu", RecognizeOptions{Kind: RecognizeDTMF, Target: "+1555", MaxTones: 1}), false},
		{"recognize dtmf without max tones", RecognizeAction("Menu", RecognizeOptions{Kind: RecognizeDTMF, Target: "+1555"}), true},
		{"recognize without target", RecognizeAction("Menu", RecognizeOptions{Kind: RecognizeSpeech}), true},
		{"recognize choices empty", RecognizeAction("Menu", RecognizeOptions{Kind: RecognizeChoice, Target: "+1555"}), true},
		{"recognize bad prompt", RecognizeAction("Menu", RecognizeOptions{Kind: RecognizeSpeech, Target: "+1555", Prompt: &PlaySource{Kind: "video"}}), true},
		{"add participant ok", AddParticipantAction("AgentTransfer", "8:acs:agent", "+1800"), false},
		{"add participant missing identity", AddParticipantAction("AgentTransfer", "", "+1800"), true},
		{"hang up", HangUpAction(true), false},
		{"unknown", Action{Kind: "teleport"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAction)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordingAction(t *testing.T) {
	a, ok := RecordingAction(RecordingPause)
	assert.True(t, ok)
	assert.Equal(t, ActionPauseRecording, a.Kind)

	_, ok = RecordingAction(RecordingNone)
	assert.False(t, ok)
}

func TestParseTone(t *testing.T) {
	tone, ok := ParseTone("1")
	assert.True(t, ok)
	assert.Equal(t, ToneOne, tone)

	tone, ok = ParseTone("Pound")
	assert.True(t, ok)
	assert.Equal(t, TonePound, tone)

	_, ok = ParseTone("eleven")
	assert.False(t, ok)

	r := &RecognizeResult{Variant: VariantDTMF, Tones: []Tone{ToneOne, ToneTwo, ToneThree, ToneFour}}
	assert.Equal(t, "1234", r.Digits())
	assert.Equal(t, "1234", r.Text())
}
