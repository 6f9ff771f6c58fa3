package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/callflow/core"
)

// Delivery is one decoded webhook body.
type Delivery struct {
	// Events are call events in delivery order.
	Events []core.Event
	// Incoming are incoming call notifications.
	Incoming []IncomingCall
	// ValidationCode is set when the body carried an Event Grid
	// subscription validation event.
	ValidationCode string
	// Errors holds one *core.EventError per item that could not be decoded.
	Errors []error
}

// IncomingCall is the part of an IncomingCall notification needed to answer it.
type IncomingCall struct {
	Context       string
	From          string
	To            string
	CorrelationID string
}

type envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	EventType string          `json:"eventType"`
	Time      time.Time       `json:"time"`
	EventTime time.Time       `json:"eventTime"`
	Data      json.RawMessage `json:"data"`
}

type identifier struct {
	RawID       string `json:"rawId"`
	PhoneNumber *struct {
		Value string `json:"value"`
	} `json:"phoneNumber"`
	CommunicationUser *struct {
		ID string `json:"id"`
	} `json:"communicationUser"`
}

func (i *identifier) String() string {
	switch {
	case i == nil:
		return ""
	case i.RawID != "":
		return i.RawID
	case i.PhoneNumber != nil && i.PhoneNumber.Value != "":
		return "4:" + i.PhoneNumber.Value
	case i.CommunicationUser != nil:
		return i.CommunicationUser.ID
	}
	return ""
}

type recordingChunk struct {
	DocumentID       string `json:"documentId"`
	ContentLocation  string `json:"contentLocation"`
	MetadataLocation string `json:"metadataLocation"`
	DeleteLocation   string `json:"deleteLocation"`
}

type payload struct {
	CallConnectionID  string                  `json:"callConnectionId"`
	ServerCallID      string                  `json:"serverCallId"`
	CorrelationID     string                  `json:"correlationId"`
	OperationContext  string                  `json:"operationContext"`
	ResultInformation *core.ResultInformation `json:"resultInformation"`

	RecognitionType string `json:"recognitionType"`
	DtmfResult      *struct {
		Tones []string `json:"tones"`
	} `json:"dtmfResult"`
	ChoiceResult *struct {
		Label            string `json:"label"`
		RecognizedPhrase string `json:"recognizedPhrase"`
	} `json:"choiceResult"`
	SpeechResult *struct {
		Speech     string  `json:"speech"`
		Confidence float64 `json:"confidence"`
	} `json:"speechResult"`

	Participant *identifier `json:"participant"`

	RecordingID          string `json:"recordingId"`
	State                string `json:"state"`
	RecordingStorageInfo *struct {
		RecordingChunks []recordingChunk `json:"recordingChunks"`
	} `json:"recordingStorageInfo"`

	Tone string `json:"tone"`

	ValidationCode      string      `json:"validationCode"`
	IncomingCallContext string      `json:"incomingCallContext"`
	From                *identifier `json:"from"`
	To                  *identifier `json:"to"`
}

// Decode parses a webhook body. The body may be a JSON array of items or a
// single item. A body that is not JSON at all is an error; items that fail to
// decode are reported in Delivery.Errors and skipped.
func Decode(body []byte) (Delivery, error) {
	var items []json.RawMessage
	trimmed := strings.TrimSpace(string(body))
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(body, &items); err != nil {
			return Delivery{}, fmt.Errorf("%w: %v", core.ErrMalformedPayload, err)
		}
	case strings.HasPrefix(trimmed, "{"):
		items = []json.RawMessage{json.RawMessage(trimmed)}
	default:
		return Delivery{}, fmt.Errorf("%w: body is not a JSON object or array", core.ErrMalformedPayload)
	}

	var d Delivery
	for _, raw := range items {
		decodeItem(&d, raw)
	}
	return d, nil
}

func decodeItem(d *Delivery, raw json.RawMessage) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.Errors = append(d.Errors, &core.EventError{RawData: raw, Cause: err})
		return
	}

	typ := env.Type
	if typ == "" {
		typ = env.EventType
	}
	if typ == "" {
		d.Errors = append(d.Errors, &core.EventError{RawData: raw, Cause: errors.New("missing event type")})
		return
	}

	// The flattened form carries the payload fields on the item itself.
	data := []byte(env.Data)
	if len(data) == 0 || string(data) == "null" {
		data = raw
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		d.Errors = append(d.Errors, &core.EventError{EventType: typ, RawData: raw, Cause: err})
		return
	}

	kind := kindOf(typ)
	switch kind {
	case core.EventSubscriptionValidation:
		d.ValidationCode = p.ValidationCode
		return
	case core.EventIncomingCall:
		if p.IncomingCallContext == "" {
			d.Errors = append(d.Errors, &core.EventError{EventType: typ, RawData: raw, Cause: errors.New("missing incomingCallContext")})
			return
		}
		d.Incoming = append(d.Incoming, IncomingCall{
			Context:       p.IncomingCallContext,
			From:          p.From.String(),
			To:            p.To.String(),
			CorrelationID: p.CorrelationID,
		})
		return
	}

	ev := core.Event{
		ID:               env.ID,
		Kind:             kind,
		CallConnectionID: p.CallConnectionID,
		ServerCallID:     p.ServerCallID,
		CorrelationID:    p.CorrelationID,
		OperationContext: p.OperationContext,
		Result:           p.ResultInformation,
		Participant:      p.Participant.String(),
		RecordingID:      p.RecordingID,
		RecordingState:   p.State,
		Timestamp:        env.Time,
	}
	if ev.ID == "" {
		ev.ID = core.NewID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = env.EventTime
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if kind == core.EventRecognizeCompleted {
		ev.Recognition = p.recognition()
	}
	if p.Tone != "" {
		if t, ok := core.ParseTone(p.Tone); ok {
			ev.Tone = t
		}
	}
	if info := p.RecordingStorageInfo; info != nil && len(info.RecordingChunks) > 0 {
		c := info.RecordingChunks[0]
		ev.RecordingFile = &core.RecordingLocation{
			RecordingID:      p.RecordingID,
			DocumentID:       c.DocumentID,
			ContentLocation:  c.ContentLocation,
			MetadataLocation: c.MetadataLocation,
			DeleteLocation:   c.DeleteLocation,
		}
	}
	d.Events = append(d.Events, ev)
}

// kindOf strips the namespace from a platform event type, so
// "Microsoft.Communication.PlayCompleted" becomes PlayCompleted.
func kindOf(typ string) core.EventKind {
	if i := strings.LastIndexByte(typ, '.'); i >= 0 {
		typ = typ[i+1:]
	}
	return core.EventKind(typ)
}

func (p payload) recognition() *core.RecognizeResult {
	variant := core.RecognitionVariant(strings.ToLower(p.RecognitionType))
	if variant == core.VariantAny {
		switch {
		case p.DtmfResult != nil:
			variant = core.VariantDTMF
		case p.ChoiceResult != nil:
			variant = core.VariantChoice
		case p.SpeechResult != nil:
			variant = core.VariantSpeech
		}
	}

	r := &core.RecognizeResult{Variant: variant}
	switch variant {
	case core.VariantDTMF:
		if p.DtmfResult != nil {
			for _, s := range p.DtmfResult.Tones {
				if t, ok := core.ParseTone(s); ok {
					r.Tones = append(r.Tones, t)
				}
			}
		}
	case core.VariantChoice:
		if p.ChoiceResult != nil {
			r.Label = p.ChoiceResult.Label
			r.RecognizedPhrase = p.ChoiceResult.RecognizedPhrase
		}
	case core.VariantSpeech:
		if p.SpeechResult != nil {
			r.Speech = p.SpeechResult.Speech
			r.Confidence = p.SpeechResult.Confidence
		}
	}
	return r
}
