package core

import "strings"

// Tone is a DTMF tone as named by the platform ("one", "pound", ...).
type Tone string

const (
	ToneZero     Tone = "zero"
	ToneOne      Tone = "one"
	ToneTwo      Tone = "two"
	ToneThree    Tone = "three"
	ToneFour     Tone = "four"
	ToneFive     Tone = "five"
	ToneSix      Tone = "six"
	ToneSeven    Tone = "seven"
	ToneEight    Tone = "eight"
	ToneNine     Tone = "nine"
	ToneA        Tone = "a"
	ToneB        Tone = "b"
	ToneC        Tone = "c"
	ToneD        Tone = "d"
	TonePound    Tone = "pound"
	ToneAsterisk Tone = "asterisk"
)

var toneChars = map[Tone]byte{
	ToneZero: '0', ToneOne: '1', ToneTwo: '2', ToneThree: '3', ToneFour: '4',
	ToneFive: '5', ToneSix: '6', ToneSeven: '7', ToneEight: '8', ToneNine: '9',
	ToneA: 'A', ToneB: 'B', ToneC: 'C', ToneD: 'D', TonePound: '#', ToneAsterisk: '*',
}

// ParseTone accepts either the platform name ("one") or the keypad
// character ("1") and returns the canonical tone.
func ParseTone(s string) (Tone, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := toneChars[Tone(s)]; ok {
		return Tone(s), true
	}
	for t, c := range toneChars {
		if len(s) == 1 && strings.ToLower(string(c)) == s {
			return t, true
		}
	}
	return "", false
}

// Char returns the keypad character for the tone, or 0 for unknown tones.
func (t Tone) Char() byte {
	return toneChars[t]
}

// IsDigit reports whether the tone is one of 0-9.
func (t Tone) IsDigit() bool {
	c := t.Char()
	return c >= '0' && c <= '9'
}

// RecognitionVariant discriminates the payload of a RecognizeCompleted event.
type RecognitionVariant string

const (
	VariantAny    RecognitionVariant = ""
	VariantDTMF   RecognitionVariant = "dtmf"
	VariantChoice RecognitionVariant = "choices"
	VariantSpeech RecognitionVariant = "speech"
)

// RecognizeResult is the tagged union carried by RecognizeCompleted. Only the
// fields belonging to Variant are meaningful.
type RecognizeResult struct {
	Variant RecognitionVariant `json:"variant"`

	// DTMF
	Tones []Tone `json:"tones,omitempty"`

	// Choice
	Label            string `json:"label,omitempty"`
	RecognizedPhrase string `json:"recognizedPhrase,omitempty"`

	// Speech
	Speech     string  `json:"speech,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Digits renders the collected DTMF tones as keypad characters.
func (r *RecognizeResult) Digits() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, t := range r.Tones {
		if c := t.Char(); c != 0 {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Text returns the recognized utterance for speech and choice results.
func (r *RecognizeResult) Text() string {
	if r == nil {
		return ""
	}
	switch r.Variant {
	case VariantSpeech:
		return r.Speech
	case VariantChoice:
		if r.RecognizedPhrase != "" {
			return r.RecognizedPhrase
		}
		return r.Label
	case VariantDTMF:
		return r.Digits()
	}
	return ""
}
