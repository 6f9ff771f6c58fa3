// Package opcontext mints and decodes operation context tags.
//
// A tag has the form <step>.<attempt>.<seq>.<nonce>:
//
//	MainMenu.2.7.9f3c01ab
//
// step names the workflow step that issued the operation, attempt is the
// 1-based try of that step, seq is a per-session monotonic counter and nonce
// is 8 hex characters drawn from a random UUID. The platform echoes the tag
// back verbatim on every completion event, which lets the engine recognise
// late, duplicate and foreign events by plain string comparison.
package opcontext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/callflow/core"
)

const separator = "."

var stepPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Tag is a decoded operation context.
type Tag struct {
	Step    string
	Attempt int
	Seq     uint64
	Nonce   string
	Raw     string
	// Legacy is set when the raw value had no structure and was taken
	// as a bare step name.
	Legacy bool
}

// Options configures a Codec.
type Options struct {
	// Nonce returns the random suffix appended to every tag.
	Nonce func() string
}

// Codec mints tags bound to a session. It is stateless apart from the nonce
// source; per-session sequencing lives in CallSession.OperationSeq.
type Codec struct {
	nonce func() string
}

// New creates a Codec.
func New(optFns ...func(o *Options)) *Codec {
	opts := Options{Nonce: randomNonce}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Nonce == nil {
		opts.Nonce = randomNonce
	}
	return &Codec{nonce: opts.Nonce}
}

func randomNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ValidStep reports whether step may be embedded in a tag.
func ValidStep(step string) bool {
	return stepPattern.MatchString(step)
}

// Encode mints a fresh tag for step on sess and advances sess.OperationSeq.
// The caller must hold the session's lock. ErrTagInUse is returned if the
// tag collides with the pending media tag or an outstanding invite.
func (c *Codec) Encode(sess *core.CallSession, step string, attempt int) (string, error) {
	if !ValidStep(step) {
		return "", fmt.Errorf("%w: invalid step %q", core.ErrInvalidAction, step)
	}
	if attempt < 1 {
		attempt = 1
	}
	sess.OperationSeq++
	tag := strings.Join([]string{
		step,
		strconv.Itoa(attempt),
		strconv.FormatUint(sess.OperationSeq, 10),
		c.nonce(),
	}, separator)

	if tag == sess.PendingOperation {
		return "", fmt.Errorf("%w: %s", core.ErrTagInUse, tag)
	}
	if _, ok := sess.PendingInvites[tag]; ok {
		return "", fmt.Errorf("%w: %s", core.ErrTagInUse, tag)
	}
	return tag, nil
}

// Decode parses a tag. Values without separators decode as a legacy bare
// step. Structured values with a bad attempt or sequence are rejected with
// core.ErrMalformedTag.
func Decode(raw string) (Tag, error) {
	if raw == "" {
		return Tag{}, fmt.Errorf("%w: empty", core.ErrMalformedTag)
	}
	parts := strings.Split(raw, separator)
	if len(parts) == 1 {
		if !ValidStep(raw) {
			return Tag{}, fmt.Errorf("%w: %q", core.ErrMalformedTag, raw)
		}
		return Tag{Step: raw, Attempt: 1, Raw: raw, Legacy: true}, nil
	}
	if len(parts) != 4 || !ValidStep(parts[0]) || parts[3] == "" {
		return Tag{}, fmt.Errorf("%w: %q", core.ErrMalformedTag, raw)
	}
	attempt, err := strconv.Atoi(parts[1])
	if err != nil || attempt < 1 {
		return Tag{}, fmt.Errorf("%w: bad attempt in %q", core.ErrMalformedTag, raw)
	}
	seq, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Tag{}, fmt.Errorf("%w: bad sequence in %q", core.ErrMalformedTag, raw)
	}
	return Tag{Step: parts[0], Attempt: attempt, Seq: seq, Nonce: parts[3], Raw: raw}, nil
}

// Decode parses a tag; see the package level Decode.
func (c *Codec) Decode(raw string) (Tag, error) {
	return Decode(raw)
}
