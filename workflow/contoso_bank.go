package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/intent"
)

// ContosoBank steps.
const (
	StepGreeting                     = "Greeting"
	StepIdentification               = "IdentificationResult"
	StepMainMenu                     = "OpenQuestionSpeech"
	StepMainMenuReconfirm            = "MainMenuReconfirmResult"
	StepBalancePIN                   = "BalancePinAuth"
	StepBalanceEnd                   = "BalanceEndInputResult"
	StepAddressChangeChoiceReconfirm = "AddressChangeChoiceReconfirm"
	StepAddressChange                = "AddressChangeResult"
	StepAddressReconfirm             = "ReconfirmNewAddressResult"
	StepAgentTransfer                = "AgentTransfer"
	StepEndCall                      = "EndCallPrompt"
)

const varAddress = "address"

// ContosoBankClasses is the main menu vocabulary in priority order.
func ContosoBankClasses() []intent.Class {
	return []intent.Class{
		{Label: "balance", Tone: core.ToneOne, Phrases: []string{"account balance", "account", "balance"}},
		{Label: "card_address", Tone: core.ToneThree, Phrases: []string{"credit card address"}},
		{Label: "card", Tone: core.ToneTwo, Phrases: []string{"credit card"}},
		{Label: "agent", Tone: core.ToneZero, Phrases: []string{"agent", "customer agent", "customer service", "customer service representative"}},
		{Label: "goodbye", Tone: core.ToneD, Phrases: []string{"no", "i'm good", "naah", "nada", "i am good", "thank you"}},
	}
}

// ContosoBankOptions configures the ContosoBank workflow.
type ContosoBankOptions struct {
	Voice Voice
	// PINLength is the number of trailing caller id digits used as PIN.
	PINLength int
	// AgentTargets are invited on an agent request. When empty the caller
	// is told an agent will call back.
	AgentTargets []string
	// CallerID is presented to invited agents.
	CallerID string
	// RecordCalls starts recording when the call connects.
	RecordCalls bool
	// TranscribeLocale starts live transcription when the call connects.
	TranscribeLocale string
	// Classifier maps free speech at the main menu to a selection.
	Classifier intent.Classifier
	// Balance is read to authenticated callers.
	Balance string
	// CustomerName greets the caller at the main menu.
	CustomerName func(callerID string) string
	// SourceIDPrefix prefixes play source ids for prompt caching.
	SourceIDPrefix string
}

// ContosoBank is the banking IVR: greeting, identification, an open
// question main menu, balance, card address change and agent transfer.
type ContosoBank struct {
	*Table
	opts ContosoBankOptions
}

// NewContosoBank creates the ContosoBank workflow.
func NewContosoBank(optFns ...func(o *ContosoBankOptions)) *ContosoBank {
	opts := ContosoBankOptions{
		Voice:          DefaultVoice,
		PINLength:      4,
		RecordCalls:    true,
		Balance:        "$10",
		CustomerName:   func(string) string { return "Bob" },
		SourceIDPrefix: "contoso",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Classifier == nil {
		opts.Classifier = intent.NewKeyword(core.ToneNine, ContosoBankClasses()...)
	}
	if opts.PINLength <= 0 {
		opts.PINLength = 4
	}

	c := &ContosoBank{Table: NewTable("contoso_bank"), opts: opts}
	c.On(StepNone, core.EventCallConnected, c.onConnected).
		On(StepGreeting, core.EventPlayCompleted, c.onGreetingDone).
		On(StepGreeting, core.EventPlayFailed, c.onPromptFailed).
		On(StepIdentification, core.EventRecognizeCompleted, c.onIdentification).
		On(StepIdentification, core.EventRecognizeFailed, c.retryFailure(c.identification)).
		On(StepMainMenu, core.EventRecognizeCompleted, c.onMainMenu).
		On(StepMainMenu, core.EventRecognizeFailed, c.retryFailure(c.mainMenuReconfirm)).
		On(StepMainMenuReconfirm, core.EventRecognizeCompleted, c.onMainMenu).
		On(StepMainMenuReconfirm, core.EventRecognizeFailed, c.retryFailure(c.mainMenuReconfirm)).
		On(StepBalancePIN, core.EventRecognizeCompleted, c.onBalancePIN).
		On(StepBalancePIN, core.EventRecognizeFailed, c.retryFailure(c.balancePIN)).
		OnVariant(StepBalanceEnd, core.EventRecognizeCompleted, core.VariantDTMF, c.onBalanceEnd).
		On(StepBalanceEnd, core.EventRecognizeFailed, c.onBalanceEndFailed).
		On(StepAddressChangeChoiceReconfirm, core.EventRecognizeCompleted, c.onAddressChoice).
		On(StepAddressChangeChoiceReconfirm, core.EventRecognizeFailed, c.retryFailure(c.addressChoiceReconfirm)).
		On(StepAddressChange, core.EventRecognizeCompleted, c.onAddressCaptured).
		On(StepAddressChange, core.EventRecognizeFailed, c.retryFailure(c.addressChange)).
		On(StepAddressReconfirm, core.EventRecognizeCompleted, c.onAddressReconfirm).
		On(StepAddressReconfirm, core.EventRecognizeFailed, c.retryFailure(c.addressChange)).
		On(StepAgentTransfer, core.EventPlayCompleted, ignore).
		On(StepAgentTransfer, core.EventPlayFailed, ignore).
		On(StepEndCall, core.EventPlayCompleted, hangUp).
		On(StepEndCall, core.EventPlayFailed, hangUp).
		On(StepAny, core.EventPlayCanceled, ignore).
		On(StepAny, core.EventRecognizeCanceled, ignore)
	return c
}

func ignore(context.Context, Input) Decision { return Decision{} }

func hangUp(context.Context, Input) Decision { return HangUp() }

func (c *ContosoBank) sourceID(name string) string {
	return c.opts.SourceIDPrefix + "2" + name
}

func (c *ContosoBank) say(text, name string) *core.PlaySource {
	p := c.opts.Voice.SSML(text, c.sourceID(name))
	return &p
}

// Handlers

func (c *ContosoBank) onConnected(_ context.Context, in Input) Decision {
	greeting := "Welcome to Contoso Bank, I'm Dave."
	if c.opts.RecordCalls {
		greeting += " Please note that this call will be recorded for quality assurance."
	}
	d := Advance(core.PlayAction(StepGreeting, *c.say(greeting, "Greeting")))
	d.Transcribe = c.opts.TranscribeLocale
	if c.opts.RecordCalls {
		d.Recording = core.RecordingStart
	}
	return d
}

func (c *ContosoBank) onGreetingDone(_ context.Context, in Input) Decision {
	return Advance(c.identification(in.Session))
}

func (c *ContosoBank) onPromptFailed(_ context.Context, in Input) Decision {
	return Fallback(in.Event.Reason())
}

func (c *ContosoBank) onIdentification(_ context.Context, in Input) Decision {
	if !c.validPIN(in.Event.Recognition, in.Session.CallerID) {
		return Retry(c.identification(in.Session), core.ReasonMismatch)
	}
	return Advance(c.mainMenu(in.Session, ""))
}

func (c *ContosoBank) onMainMenu(ctx context.Context, in Input) Decision {
	r := in.Event.Recognition
	if r == nil {
		return Retry(c.mainMenuReconfirm(in.Session), core.ReasonInvalidInput)
	}
	selection, err := c.selection(ctx, r)

	var d Decision
	switch selection {
	case core.ToneZero:
		d = c.agentRequest(in.Session)
	case core.ToneOne:
		d = Advance(c.balancePIN(in.Session))
	case core.ToneTwo, core.ToneThree:
		d = Advance(c.addressChoiceReconfirm(in.Session))
	case core.ToneD:
		d = Advance(c.endCall("Thank you for calling, good bye!"))
	default:
		d = Retry(c.mainMenuReconfirm(in.Session), core.ReasonInvalidInput)
	}
	d.Err = err
	return d
}

func (c *ContosoBank) onBalancePIN(_ context.Context, in Input) Decision {
	if !c.validPIN(in.Event.Recognition, in.Session.CallerID) {
		return Retry(c.balancePIN(in.Session), core.ReasonMismatch)
	}
	return Advance(c.readBalance(in.Session))
}

func (c *ContosoBank) onBalanceEnd(_ context.Context, in Input) Decision {
	r := in.Event.Recognition
	if len(r.Tones) > 0 && r.Tones[0] == core.ToneZero {
		return Advance(c.mainMenu(in.Session, ""))
	}
	return Advance(c.endCall(""))
}

func (c *ContosoBank) onBalanceEndFailed(_ context.Context, in Input) Decision {
	return Advance(c.endCall(""))
}

func (c *ContosoBank) onAddressChoice(_ context.Context, in Input) Decision {
	speech := strings.ToLower(in.Event.Recognition.Text())
	if (containsWord(speech, "yes") || containsWord(speech, "confirmed")) && !containsWord(speech, "no") {
		return Advance(c.addressChange(in.Session))
	}
	return Advance(c.mainMenu(in.Session, "How else can I help you today?"))
}

func (c *ContosoBank) onAddressCaptured(_ context.Context, in Input) Decision {
	address := strings.TrimSpace(in.Event.Recognition.Text())
	if address == "" {
		return Retry(c.addressChange(in.Session), core.ReasonInvalidInput)
	}
	d := Advance(c.addressReconfirm(in.Session, address))
	d.Set = map[string]string{varAddress: address}
	return d
}

func (c *ContosoBank) onAddressReconfirm(_ context.Context, in Input) Decision {
	answer := strings.ToLower(in.Event.Recognition.Text())
	for _, w := range []string{"confirm", "yes", "affirmative", "sure"} {
		if containsWord(answer, w) {
			return Advance(c.mainMenu(in.Session, "Your address has been updated. Is there anything else I can help you with today?"))
		}
	}
	return Retry(c.addressChange(in.Session), core.ReasonMismatch)
}

// retryFailure re-issues the step built by next, bounded by the retry policy.
func (c *ContosoBank) retryFailure(next func(*core.CallSession) core.Action) Handler {
	return func(_ context.Context, in Input) Decision {
		return Retry(next(in.Session), in.Event.Reason())
	}
}

func (c *ContosoBank) agentRequest(sess *core.CallSession) Decision {
	if len(c.opts.AgentTargets) == 0 {
		return Advance(c.endCall(fmt.Sprintf(
			"All our agents are busy right now. Our next available agent will call you back at the same number ending with %s. Thanks for calling, Good Bye!",
			spellLast(sess.CallerID, 4))))
	}
	d := Advance(core.PlayAction(StepAgentTransfer, *c.say("Please hold while I connect you to one of our agents.", "AgentTransfer")))
	for _, target := range c.opts.AgentTargets {
		d.Invites = append(d.Invites, Invite{Participant: target, CallerID: c.opts.CallerID})
	}
	return d
}

// Action builders

func (c *ContosoBank) pinAuth(sess *core.CallSession, step, prompt string) core.Action {
	return core.RecognizeAction(step, core.RecognizeOptions{
		Kind:              core.RecognizeSpeechOrDTMF,
		Target:            sess.CallerID,
		Prompt:            c.say(prompt, "PinAuthPrompt"),
		MaxTones:          c.opts.PINLength,
		InterruptPrompt:   true,
		EndSilenceTimeout: time.Second,
		InterToneTimeout:  time.Second,
	})
}

func (c *ContosoBank) identification(sess *core.CallSession) core.Action {
	return c.pinAuth(sess, StepIdentification,
		fmt.Sprintf("For identification purposes please key in or say the last %d digits of your customer number.", c.opts.PINLength))
}

func (c *ContosoBank) balancePIN(sess *core.CallSession) core.Action {
	return c.pinAuth(sess, StepBalancePIN,
		fmt.Sprintf("Please key in or say your %d digit unique account pin", c.opts.PINLength))
}

func (c *ContosoBank) mainMenu(sess *core.CallSession, prompt string) core.Action {
	if prompt == "" {
		prompt = fmt.Sprintf("Hi %s, how can I help you today?", c.opts.CustomerName(sess.CallerID))
	}
	return core.RecognizeAction(StepMainMenu, core.RecognizeOptions{
		Kind:              core.RecognizeSpeech,
		Target:            sess.CallerID,
		Prompt:            c.say(prompt, "MainMenu"),
		EndSilenceTimeout: time.Second,
	})
}

func (c *ContosoBank) mainMenuReconfirm(sess *core.CallSession) core.Action {
	return core.RecognizeAction(StepMainMenuReconfirm, core.RecognizeOptions{
		Kind:   core.RecognizeSpeechOrDTMF,
		Target: sess.CallerID,
		Prompt: c.say("Sorry I didn't quite get that. Please say account balance or press 1 for checking your account balance. "+
			"Say credit card or press 2 for information about Contoso credit cards. Press 0 for agent.", "MainMenuReconfirmResult"),
		MaxTones:          1,
		InterruptPrompt:   true,
		EndSilenceTimeout: time.Second,
	})
}

func (c *ContosoBank) readBalance(sess *core.CallSession) core.Action {
	return core.RecognizeAction(StepBalanceEnd, core.RecognizeOptions{
		Kind:   core.RecognizeDTMF,
		Target: sess.CallerID,
		Prompt: c.say(fmt.Sprintf("Your balance is %s. To return to the main menu press 0. Press any other button to hangup.", c.opts.Balance),
			"BalancePrompt"),
		MaxTones:              1,
		InitialSilenceTimeout: 2 * time.Second,
		InterruptPrompt:       true,
	})
}

func (c *ContosoBank) addressChoiceReconfirm(sess *core.CallSession) core.Action {
	return core.RecognizeAction(StepAddressChangeChoiceReconfirm, core.RecognizeOptions{
		Kind:              core.RecognizeSpeech,
		Target:            sess.CallerID,
		Prompt:            c.say("Do I understand correctly you would like to update the address associated with your credit card", "ConfirmAddressChangeChoicePrompt"),
		EndSilenceTimeout: time.Second,
	})
}

func (c *ContosoBank) addressChange(sess *core.CallSession) core.Action {
	return core.RecognizeAction(StepAddressChange, core.RecognizeOptions{
		Kind:              core.RecognizeSpeech,
		Target:            sess.CallerID,
		Prompt:            c.say("Please provide me the new address you would like to be associated with your credit card.", "AddressChangePrompt"),
		EndSilenceTimeout: 2 * time.Second,
	})
}

func (c *ContosoBank) addressReconfirm(sess *core.CallSession, address string) core.Action {
	return core.RecognizeAction(StepAddressReconfirm, core.RecognizeOptions{
		Kind:              core.RecognizeSpeech,
		Target:            sess.CallerID,
		Prompt:            c.say(fmt.Sprintf("You provided %s please confirm by saying 'Confirm' or to try again say 'Try again'", address), "ReconfirmNewAddressPrompt"),
		EndSilenceTimeout: time.Second,
	})
}

func (c *ContosoBank) endCall(prompt string) core.Action {
	if prompt == "" {
		prompt = "This call will be ended. Good Bye!"
	}
	return core.PlayAction(StepEndCall, *c.say(prompt, "EndCallPrompt"))
}

// Recognition helpers

func (c *ContosoBank) selection(ctx context.Context, r *core.RecognizeResult) (core.Tone, error) {
	switch r.Variant {
	case core.VariantDTMF:
		if len(r.Tones) > 0 {
			return r.Tones[0], nil
		}
	case core.VariantChoice:
		for _, cl := range ContosoBankClasses() {
			if strings.EqualFold(cl.Label, r.Label) {
				return cl.Tone, nil
			}
		}
		fallthrough
	case core.VariantSpeech:
		m, err := c.opts.Classifier.Classify(ctx, r.Text())
		return m.Tone, err
	}
	return core.ToneNine, nil
}

func (c *ContosoBank) validPIN(r *core.RecognizeResult, callerID string) bool {
	pin := pinFrom(r)
	n := c.opts.PINLength
	if len(pin) != n || len(callerID) < n {
		return false
	}
	return pin == callerID[len(callerID)-n:]
}

func pinFrom(r *core.RecognizeResult) string {
	if r == nil {
		return ""
	}
	switch r.Variant {
	case core.VariantDTMF:
		return r.Digits()
	case core.VariantSpeech:
		s := strings.TrimSpace(r.Speech)
		return strings.NewReplacer(" ", "", ".", "", ",", "", "-", "").Replace(s)
	}
	return ""
}

// spellLast returns the last n characters of s separated by commas so the
// voice reads them digit by digit.
func spellLast(s string, n int) string {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return strings.Join(strings.Split(s, ""), ",")
}

func containsWord(text, word string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	}) {
		if f == word {
			return true
		}
	}
	return false
}
