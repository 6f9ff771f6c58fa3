package tracker

import (
	"fmt"
	"strings"

	"github.com/hupe1980/callflow/core"
)

// PostAddAction is what happens once every targeted invite resolved with at
// least one participant added.
type PostAddAction int

const (
	PostAddNone PostAddAction = iota
	PostAddHangUpAll
	PostAddHangUpSelf
	PostAddRemoveAdded
)

func (a PostAddAction) String() string {
	switch a {
	case PostAddHangUpAll:
		return "hangup_all"
	case PostAddHangUpSelf:
		return "hangup_self"
	case PostAddRemoveAdded:
		return "remove_added"
	default:
		return "none"
	}
}

// ParsePostAddAction parses the configuration form of a PostAddAction.
func ParsePostAddAction(s string) (PostAddAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PostAddNone, nil
	case "hangup_all", "hang_up_all":
		return PostAddHangUpAll, nil
	case "hangup_self", "hang_up_self":
		return PostAddHangUpSelf, nil
	case "remove_added", "remove_participants":
		return PostAddRemoveAdded, nil
	}
	return PostAddNone, fmt.Errorf("unknown post-add action %q", s)
}

// Resolution reports what an invite outcome changed.
type Resolution struct {
	// Ignored is set for unknown or already resolved invite tags.
	Ignored bool
	// Resolved is set exactly once per batch, on the outcome that brought
	// added+declined up to the targeted total.
	Resolved bool
	// Actions to dispatch on resolution.
	Actions []core.Action
	// Fallback is set when every invite in the batch was declined.
	Fallback bool
}

// Participants gates the post-add action on every outstanding invite.
type Participants struct {
	post PostAddAction
}

// NewParticipants creates a tracker applying post once a batch resolves.
func NewParticipants(post PostAddAction) *Participants {
	return &Participants{post: post}
}

// Target announces n more invites. A resolved batch is reset first so a
// later transfer starts counting from zero.
func (p *Participants) Target(sess *core.CallSession, n int) {
	if sess.ParticipantsResolved {
		sess.ParticipantsAdded = 0
		sess.ParticipantsDeclined = 0
		sess.TotalParticipantsTargeted = 0
		sess.AddedParticipants = nil
		sess.ParticipantsResolved = false
	}
	sess.TotalParticipantsTargeted += n
}

// OnAdded records a successful invite identified by tag.
func (p *Participants) OnAdded(sess *core.CallSession, tag string) Resolution {
	who, ok := sess.PendingInvites[tag]
	if !ok {
		return Resolution{Ignored: true}
	}
	delete(sess.PendingInvites, tag)
	sess.ParticipantsAdded++
	sess.AddedParticipants = append(sess.AddedParticipants, who)
	return p.resolve(sess)
}

// OnDeclined records a failed or declined invite identified by tag.
func (p *Participants) OnDeclined(sess *core.CallSession, tag string) Resolution {
	if _, ok := sess.PendingInvites[tag]; !ok {
		return Resolution{Ignored: true}
	}
	delete(sess.PendingInvites, tag)
	sess.ParticipantsDeclined++
	return p.resolve(sess)
}

func (p *Participants) resolve(sess *core.CallSession) Resolution {
	if sess.ParticipantsResolved || sess.TotalParticipantsTargeted == 0 {
		return Resolution{}
	}
	if sess.ParticipantsAdded+sess.ParticipantsDeclined < sess.TotalParticipantsTargeted {
		return Resolution{}
	}
	sess.ParticipantsResolved = true

	if sess.ParticipantsAdded == 0 {
		return Resolution{Resolved: true, Fallback: true}
	}

	res := Resolution{Resolved: true}
	switch p.post {
	case PostAddHangUpAll:
		res.Actions = []core.Action{core.HangUpAction(true)}
	case PostAddHangUpSelf:
		res.Actions = []core.Action{core.HangUpAction(false)}
	case PostAddRemoveAdded:
		for _, who := range sess.AddedParticipants {
			res.Actions = append(res.Actions, core.RemoveParticipantAction(who))
		}
	}
	return res
}
