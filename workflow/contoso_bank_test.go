package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/internal/testutil"
)

const caller = "4:+14255551234"

func contosoSession(step string) *core.CallSession {
	return testutil.NewSessionBuilder("call-1").Caller(caller).Step(step).Build()
}

func run(m Machine, step string, sess *core.CallSession, ev core.Event) Decision {
	return m.Transition(context.Background(), Input{Session: sess, Event: ev, Step: step})
}

func recognized(b *testutil.EventBuilder) core.Event { return b.Build() }

func completed() *testutil.EventBuilder {
	return testutil.NewEventBuilder(core.EventRecognizeCompleted, "call-1")
}

func TestContosoBank_ConnectGreetsAndRecords(t *testing.T) {
	c := NewContosoBank()

	d := run(c, StepNone, contosoSession(StepNone), core.NewEvent(core.EventCallConnected, "call-1"))

	require.NotNil(t, d.Action)
	assert.Equal(t, core.ActionPlay, d.Action.Kind)
	assert.Equal(t, StepGreeting, d.NextStep())
	assert.Equal(t, core.RecordingStart, d.Recording)
	assert.Contains(t, d.Action.Play.SSML, "recorded")
	assert.NoError(t, d.Action.Validate())
}

func TestContosoBank_NoRecording(t *testing.T) {
	c := NewContosoBank(func(o *ContosoBankOptions) { o.RecordCalls = false })

	d := run(c, StepNone, contosoSession(StepNone), core.NewEvent(core.EventCallConnected, "call-1"))

	assert.Equal(t, core.RecordingNone, d.Recording)
	assert.NotContains(t, d.Action.Play.SSML, "recorded")
}

func TestContosoBank_TranscribeOnConnect(t *testing.T) {
	c := NewContosoBank(func(o *ContosoBankOptions) { o.TranscribeLocale = "en-GB" })

	d := run(c, StepNone, contosoSession(StepNone), core.NewEvent(core.EventCallConnected, "call-1"))

	assert.Equal(t, "en-GB", d.Transcribe)
	assert.False(t, d.IsZero())
}

func TestContosoBank_GreetingToIdentification(t *testing.T) {
	c := NewContosoBank()

	d := run(c, StepGreeting, contosoSession(StepGreeting), core.NewEvent(core.EventPlayCompleted, "call-1"))

	require.NotNil(t, d.Action)
	assert.Equal(t, StepIdentification, d.Action.Step)
	assert.Equal(t, core.RecognizeSpeechOrDTMF, d.Action.Recognize.Kind)
	assert.Equal(t, 4, d.Action.Recognize.MaxTones)
	assert.Equal(t, caller, d.Action.Recognize.Target)
}

func TestContosoBank_Identification(t *testing.T) {
	c := NewContosoBank()
	sess := contosoSession(StepIdentification)

	ok := run(c, StepIdentification, sess, recognized(completed().DTMF("1234")))
	assert.Equal(t, StepMainMenu, ok.NextStep())
	assert.True(t, ok.ResetRetries)
	assert.Contains(t, ok.Action.Recognize.Prompt.SSML, "Hi Bob")

	spoken := run(c, StepIdentification, sess, recognized(completed().Speech("1 2 3 4.")))
	assert.Equal(t, StepMainMenu, spoken.NextStep())

	bad := run(c, StepIdentification, sess, recognized(completed().DTMF("9999")))
	assert.Equal(t, StepIdentification, bad.NextStep())
	assert.True(t, bad.CountRetry)
	assert.Equal(t, core.ReasonMismatch, bad.Reason)

	failed := run(c, StepIdentification, sess, testutil.NewEventBuilder(core.EventRecognizeFailed, "call-1").Failed(8510).Build())
	assert.True(t, failed.CountRetry)
	assert.Equal(t, core.ReasonInitialSilenceTimeout, failed.Reason)
}

func TestContosoBank_MainMenuSelections(t *testing.T) {
	c := NewContosoBank()

	tests := []struct {
		name  string
		event core.Event
		step  string
		retry bool
	}{
		{"dtmf balance", recognized(completed().DTMF("1")), StepBalancePIN, false},
		{"speech balance", recognized(completed().Speech("What's my account balance?")), StepBalancePIN, false},
		{"speech card", recognized(completed().Speech("credit card")), StepAddressChangeChoiceReconfirm, false},
		{"speech card address", recognized(completed().Speech("my credit card address")), StepAddressChangeChoiceReconfirm, false},
		{"choice label", recognized(completed().Choice("balance", "balance")), StepBalancePIN, false},
		{"goodbye", recognized(completed().Speech("no thank you")), StepEndCall, false},
		{"no agents configured", recognized(completed().Speech("agent")), StepEndCall, false},
		{"unclear", recognized(completed().Speech("pizza")), StepMainMenuReconfirm, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := run(c, StepMainMenu, contosoSession(StepMainMenu), tt.event)
			require.NotNil(t, d.Action)
			assert.Equal(t, tt.step, d.NextStep())
			assert.Equal(t, tt.retry, d.CountRetry)
			assert.NoError(t, d.Action.Validate())
		})
	}
}

func TestContosoBank_AgentBusyReadsLastDigits(t *testing.T) {
	c := NewContosoBank()

	d := run(c, StepMainMenu, contosoSession(StepMainMenu), recognized(completed().DTMF("0")))

	assert.Contains(t, d.Action.Play.SSML, "ending with 1,2,3,4")
}

func TestContosoBank_AgentTransferInvites(t *testing.T) {
	c := NewContosoBank(func(o *ContosoBankOptions) {
		o.AgentTargets = []string{"8:acs:agent-a", "8:acs:agent-b"}
		o.CallerID = "+18005550100"
	})

	d := run(c, StepMainMenuReconfirm, contosoSession(StepMainMenuReconfirm), recognized(completed().DTMF("0")))

	assert.Equal(t, StepAgentTransfer, d.NextStep())
	require.Len(t, d.Invites, 2)
	assert.Equal(t, Invite{Participant: "8:acs:agent-b", CallerID: "+18005550100"}, d.Invites[1])
}

func TestContosoBank_BalanceFlow(t *testing.T) {
	c := NewContosoBank()
	sess := contosoSession(StepBalancePIN)

	d := run(c, StepBalancePIN, sess, recognized(completed().DTMF("1234")))
	assert.Equal(t, StepBalanceEnd, d.NextStep())
	assert.Contains(t, d.Action.Recognize.Prompt.SSML, "$10")

	back := run(c, StepBalanceEnd, sess, recognized(completed().DTMF("0")))
	assert.Equal(t, StepMainMenu, back.NextStep())

	end := run(c, StepBalanceEnd, sess, recognized(completed().DTMF("7")))
	assert.Equal(t, StepEndCall, end.NextStep())

	timeout := run(c, StepBalanceEnd, sess, testutil.NewEventBuilder(core.EventRecognizeFailed, "call-1").Failed(8510).Build())
	assert.Equal(t, StepEndCall, timeout.NextStep())
}

func TestContosoBank_AddressFlow(t *testing.T) {
	c := NewContosoBank()
	sess := contosoSession(StepAddressChangeChoiceReconfirm)

	yes := run(c, StepAddressChangeChoiceReconfirm, sess, recognized(completed().Speech("Yes")))
	assert.Equal(t, StepAddressChange, yes.NextStep())

	no := run(c, StepAddressChangeChoiceReconfirm, sess, recognized(completed().Speech("yes, no")))
	assert.Equal(t, StepMainMenu, no.NextStep())

	captured := run(c, StepAddressChange, sess, recognized(completed().Speech("1 Main Street")))
	assert.Equal(t, StepAddressReconfirm, captured.NextStep())
	assert.Equal(t, "1 Main Street", captured.Set["address"])
	assert.Contains(t, captured.Action.Recognize.Prompt.SSML, "1 Main Street")

	confirmed := run(c, StepAddressReconfirm, sess, recognized(completed().Speech("Confirm")))
	assert.Equal(t, StepMainMenu, confirmed.NextStep())
	assert.Contains(t, confirmed.Action.Recognize.Prompt.SSML, "address has been updated")

	again := run(c, StepAddressReconfirm, sess, recognized(completed().Speech("try again")))
	assert.Equal(t, StepAddressChange, again.NextStep())
	assert.True(t, again.CountRetry)
}

func TestContosoBank_EndCallHangsUp(t *testing.T) {
	c := NewContosoBank()

	d := run(c, StepEndCall, contosoSession(StepEndCall), core.NewEvent(core.EventPlayCompleted, "call-1"))
	assert.True(t, d.Hangup)

	d = run(c, StepGreeting, contosoSession(StepGreeting), testutil.NewEventBuilder(core.EventPlayFailed, "call-1").Failed(8536).Build())
	assert.True(t, d.Fallback)
}

func TestContosoBank_CanceledIgnored(t *testing.T) {
	c := NewContosoBank()

	d := run(c, StepMainMenu, contosoSession(StepMainMenu), core.NewEvent(core.EventRecognizeCanceled, "call-1"))
	assert.True(t, d.IsZero())
}
