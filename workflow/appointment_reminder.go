package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/callflow/core"
)

// AppointmentReminder steps.
const (
	StepReminderMenu    = "AppointmentMenu"
	StepReminderClosing = "AppointmentClosing"
)

// Choice labels offered by the reminder menu.
const (
	LabelConfirm = "Confirm"
	LabelCancel  = "Cancel"
)

// VarAppointment holds the callee's answer: confirmed, cancelled or
// confirmed_by_default.
const VarAppointment = "appointment"

// AppointmentReminderOptions configures the AppointmentReminder workflow.
type AppointmentReminderOptions struct {
	Voice Voice
	// Business introduces the call.
	Business string
	// Appointment describes the slot, e.g. "tomorrow at 9am".
	Appointment string
	// Purpose completes "in regard to your appointment ... to".
	Purpose string
	// MaxAttempts bounds menu prompts. Once exhausted the appointment is
	// kept and the call ends.
	MaxAttempts int
	// TranscribeLocale starts live transcription when the callee answers.
	TranscribeLocale string
	RecordCalls      bool
}

// AppointmentReminder is an outbound confirm-or-cancel call.
type AppointmentReminder struct {
	*Table
	opts AppointmentReminderOptions
}

// NewAppointmentReminder creates the AppointmentReminder workflow.
func NewAppointmentReminder(optFns ...func(o *AppointmentReminderOptions)) *AppointmentReminder {
	opts := AppointmentReminderOptions{
		Voice:       Voice{Name: "en-US-NancyNeural", Locale: "en-US"},
		Business:    "Contoso Bank",
		Appointment: "tomorrow at 9am",
		Purpose:     "open a new account",
		MaxAttempts: 2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	a := &AppointmentReminder{Table: NewTable("appointment_reminder"), opts: opts}
	a.On(StepNone, core.EventCallConnected, a.onConnected).
		OnVariant(StepReminderMenu, core.EventRecognizeCompleted, core.VariantChoice, a.onChoice).
		On(StepReminderMenu, core.EventRecognizeCompleted, func(_ context.Context, in Input) Decision {
			return a.retry(in, core.ReasonInvalidInput)
		}).
		On(StepReminderMenu, core.EventRecognizeFailed, func(_ context.Context, in Input) Decision {
			return a.retry(in, in.Event.Reason())
		}).
		On(StepReminderClosing, core.EventPlayCompleted, hangUp).
		On(StepReminderClosing, core.EventPlayFailed, hangUp).
		On(StepAny, core.EventPlayCanceled, ignore).
		On(StepAny, core.EventRecognizeCanceled, ignore)
	return a
}

// ReminderChoices are the options of the reminder menu.
func ReminderChoices() []core.Choice {
	return []core.Choice{
		{Label: LabelConfirm, Phrases: []string{"Confirm", "First", "One"}, Tone: core.ToneOne},
		{Label: LabelCancel, Phrases: []string{"Cancel", "Second", "Two"}, Tone: core.ToneTwo},
	}
}

func (a *AppointmentReminder) onConnected(_ context.Context, in Input) Decision {
	d := Advance(a.menu(in.Session, fmt.Sprintf(
		"Hello this is %s, we're calling in regard to your appointment %s to %s. "+
			"Please say confirm if this time is still suitable for you or say cancel if you would like to cancel this appointment.",
		a.opts.Business, a.opts.Appointment, a.opts.Purpose)))
	d.Transcribe = a.opts.TranscribeLocale
	if a.opts.RecordCalls {
		d.Recording = core.RecordingStart
	}
	return d
}

func (a *AppointmentReminder) onChoice(_ context.Context, in Input) Decision {
	label := in.Event.Recognition.Label
	switch {
	case strings.EqualFold(label, LabelConfirm):
		return a.close(fmt.Sprintf("Thank you for confirming your appointment %s, we look forward to meeting with you.", a.opts.Appointment), "confirmed")
	case strings.EqualFold(label, LabelCancel):
		return a.close(fmt.Sprintf("Your appointment %s has been cancelled. Please call the bank directly if you would like to rebook for another date and time.", a.opts.Appointment), "cancelled")
	}
	return a.retry(in, core.ReasonInvalidInput)
}

// retry re-prompts until MaxAttempts is spent, then keeps the appointment.
func (a *AppointmentReminder) retry(in Input, reason core.ReasonCode) Decision {
	if in.Session.RetryCount+1 >= a.opts.MaxAttempts {
		return a.close("I didn't receive an input, we will go ahead and confirm your appointment. Goodbye", "confirmed_by_default")
	}
	prompt := "I'm sorry I didn't receive a response, please try again."
	if reason == core.ReasonIncorrectTone || reason == core.ReasonInvalidInput || reason == core.ReasonSpeechNotMatched {
		prompt = "I'm sorry, I didn't understand your response, please try again."
	}
	return Retry(a.menu(in.Session, prompt), reason)
}

func (a *AppointmentReminder) close(text, outcome string) Decision {
	d := Advance(core.PlayAction(StepReminderClosing, a.opts.Voice.Text(text)))
	d.Set = map[string]string{VarAppointment: outcome}
	return d
}

func (a *AppointmentReminder) menu(sess *core.CallSession, text string) core.Action {
	prompt := a.opts.Voice.Text(text)
	return core.RecognizeAction(StepReminderMenu, core.RecognizeOptions{
		Kind:                  core.RecognizeChoice,
		Target:                sess.CallerID,
		Prompt:                &prompt,
		Choices:               ReminderChoices(),
		InitialSilenceTimeout: 10 * time.Second,
	})
}
