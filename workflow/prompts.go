package workflow

import (
	"encoding/xml"
	"strings"

	"github.com/hupe1980/callflow/core"
)

// Voice renders text prompts as neural-voice SSML.
type Voice struct {
	Name   string
	Locale string
	// Style is an optional speaking style, e.g. "friendly".
	Style string
}

// DefaultVoice is the voice used when none is configured.
var DefaultVoice = Voice{Name: "en-US-GuyNeural", Locale: "en-US", Style: "friendly"}

// SSML wraps text in an SSML document for the voice. sourceID lets the
// platform cache the rendered audio.
func (v Voice) SSML(text, sourceID string) core.PlaySource {
	var b strings.Builder
	b.WriteString(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xmlns:mstts="http://www.w3.org/2001/mstts" xml:lang="`)
	b.WriteString(v.Locale)
	b.WriteString(`"><voice name="`)
	b.WriteString(v.Name)
	b.WriteString(`">`)
	if v.Style != "" {
		b.WriteString(`<mstts:express-as style="`)
		b.WriteString(v.Style)
		b.WriteString(`">`)
	}
	_ = xml.EscapeText(&b, []byte(text))
	if v.Style != "" {
		b.WriteString(`</mstts:express-as>`)
	}
	b.WriteString(`</voice></speak>`)
	return core.PlaySource{Kind: core.PlaySourceSSML, SSML: b.String(), Voice: v.Name, Locale: v.Locale, SourceID: sourceID}
}

// Text returns a plain text-to-speech prompt in the voice.
func (v Voice) Text(text string) core.PlaySource {
	return core.PlaySource{Kind: core.PlaySourceText, Text: text, Voice: v.Name, Locale: v.Locale}
}

// File returns a prompt played from an audio file below baseURL.
func File(baseURL, name string) core.PlaySource {
	return core.PlaySource{Kind: core.PlaySourceFile, URL: strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(name, "/")}
}
