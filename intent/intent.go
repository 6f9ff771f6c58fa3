// Package intent maps free speech to a menu selection.
//
// The Keyword classifier scans an utterance for whole-word phrases grouped in
// classes; classes are tried in the order they were declared and the first
// class with a matching phrase wins. Everything else yields the classifier's
// no-match tone. A Model classifier can ask an LLM instead, and Chain tries
// several classifiers until one produces a match.
package intent

import (
	"context"
	"strings"
	"unicode"

	"github.com/hupe1980/callflow/core"
)

// Match is a classification result.
type Match struct {
	// Tone is the menu selection the utterance maps to.
	Tone core.Tone
	// Label names the matched class; empty on no-match.
	Label string
	// Phrase is the vocabulary phrase that matched, if any.
	Phrase string
	// Matched is false when Tone is the no-match tone.
	Matched bool
}

// Classifier maps an utterance to a menu selection.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (Match, error)
}

// Class is a labelled group of phrases that select the same tone.
type Class struct {
	Label   string
	Tone    core.Tone
	Phrases []string
}

// Keyword is a first-match-wins phrase classifier. It is immutable after
// construction and safe for concurrent use.
type Keyword struct {
	classes []compiledClass
	noMatch core.Tone
}

type compiledClass struct {
	Class
	normalized []string
}

// NewKeyword builds a Keyword classifier. Classes are matched in the order
// given; noMatch is returned when nothing matches.
func NewKeyword(noMatch core.Tone, classes ...Class) *Keyword {
	k := &Keyword{noMatch: noMatch, classes: make([]compiledClass, 0, len(classes))}
	for _, c := range classes {
		cc := compiledClass{Class: c}
		for _, p := range c.Phrases {
			if n := normalize(p); n != "" {
				cc.normalized = append(cc.normalized, n)
			}
		}
		k.classes = append(k.classes, cc)
	}
	return k
}

// Classify implements Classifier.
func (k *Keyword) Classify(_ context.Context, utterance string) (Match, error) {
	text := " " + normalize(utterance) + " "
	for _, c := range k.classes {
		for i, p := range c.normalized {
			if strings.Contains(text, " "+p+" ") {
				return Match{Tone: c.Tone, Label: c.Label, Phrase: c.Phrases[i], Matched: true}, nil
			}
		}
	}
	return Match{Tone: k.noMatch}, nil
}

// NoMatch returns the tone used when nothing matches.
func (k *Keyword) NoMatch() core.Tone {
	return k.noMatch
}

// Classes returns the configured classes in priority order.
func (k *Keyword) Classes() []Class {
	out := make([]Class, len(k.classes))
	for i, c := range k.classes {
		out[i] = c.Class
	}
	return out
}

// normalize lower-cases s, turns every rune other than letters, digits and
// apostrophes into a space and collapses runs of spaces.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '\'' || r == '’':
			return '\''
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Chain tries classifiers in order and returns the first match. Errors from
// a classifier are remembered but do not stop the chain; when nothing
// matches, the first classifier's no-match result and the first error are
// returned.
type Chain []Classifier

// Classify implements Classifier.
func (c Chain) Classify(ctx context.Context, utterance string) (Match, error) {
	var (
		fallback Match
		haveFB   bool
		firstErr error
	)
	for _, cl := range c {
		m, err := cl.Classify(ctx, utterance)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if m.Matched {
			return m, nil
		}
		if !haveFB {
			fallback, haveFB = m, true
		}
	}
	return fallback, firstErr
}
