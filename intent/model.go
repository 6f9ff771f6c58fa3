package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/logging"
	"github.com/hupe1980/callflow/model"
)

const noneLabel = "NONE"

// Model asks a language model to pick exactly one class label.
type Model struct {
	model   model.Model
	classes []Class
	noMatch core.Tone
	limiter *Limiter
	logger  logging.Logger
}

// NewModel builds a Model classifier over the given classes. Phrases are
// shown to the model as examples of each label.
func NewModel(m model.Model, noMatch core.Tone, classes ...Class) *Model {
	return &Model{model: m, classes: classes, noMatch: noMatch, logger: logging.NoOpLogger{}}
}

// WithLogger reports model call latency and failures to l.
func (c *Model) WithLogger(l logging.Logger) *Model {
	if l != nil {
		c.logger = l
	}
	return c
}

// WithLimiter bounds concurrent model calls. A saturated limiter yields a
// no-match together with ErrModelBusy.
func (c *Model) WithLimiter(l *Limiter) *Model {
	c.limiter = l
	return c
}

// Classify implements Classifier.
func (c *Model) Classify(ctx context.Context, utterance string) (Match, error) {
	if strings.TrimSpace(utterance) == "" {
		return Match{Tone: c.noMatch}, nil
	}
	if c.limiter != nil {
		release, err := c.limiter.Acquire()
		if err != nil {
			return Match{Tone: c.noMatch}, err
		}
		defer release()
	}
	start := time.Now()
	reply, err := model.Complete(ctx, c.model, model.UserRequest(c.instructions(), utterance))
	logging.LogLLMCall(c.logger, c.model.Info().Name, time.Since(start), err)
	if err != nil {
		return Match{Tone: c.noMatch}, fmt.Errorf("intent: model classify: %w", err)
	}
	label := strings.Trim(strings.TrimSpace(reply), ".\"'")
	for _, cl := range c.classes {
		if strings.EqualFold(label, cl.Label) {
			return Match{Tone: cl.Tone, Label: cl.Label, Matched: true}, nil
		}
	}
	return Match{Tone: c.noMatch}, nil
}

func (c *Model) instructions() string {
	var b strings.Builder
	b.WriteString("You route phone callers. Reply with exactly one label from the list below and nothing else. ")
	b.WriteString("Reply " + noneLabel + " if no label fits.\n")
	for _, cl := range c.classes {
		fmt.Fprintf(&b, "- %s", cl.Label)
		if len(cl.Phrases) > 0 {
			fmt.Fprintf(&b, " (e.g. %s)", strings.Join(cl.Phrases, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
