package webhook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/callflow/core"
)

func TestDecodeCloudEvents(t *testing.T) {
	body := `[
	  {
	    "id": "e1",
	    "source": "calling/callConnections/c1",
	    "type": "Microsoft.Communication.RecognizeCompleted",
	    "time": "2024-05-01T10:00:00Z",
	    "data": {
	      "callConnectionId": "c1",
	      "serverCallId": "srv-1",
	      "correlationId": "corr-1",
	      "operationContext": "PIN.1.1.abcd",
	      "resultInformation": {"code": 200, "subCode": 8533, "message": "ok"},
	      "recognitionType": "dtmf",
	      "dtmfResult": {"tones": ["one", "two", "pound"]}
	    }
	  },
	  {
	    "id": "e2",
	    "type": "Microsoft.Communication.PlayFailed",
	    "data": {
	      "callConnectionId": "c1",
	      "operationContext": "Greeting.1.1.ffff",
	      "resultInformation": {"code": 400, "subCode": 8535}
	    }
	  }
	]`

	d, err := Decode([]byte(body))
	require.NoError(t, err)
	require.Empty(t, d.Errors)
	require.Len(t, d.Events, 2)

	ev := d.Events[0]
	assert.Equal(t, "e1", ev.ID)
	assert.Equal(t, core.EventRecognizeCompleted, ev.Kind)
	assert.Equal(t, "c1", ev.CallConnectionID)
	assert.Equal(t, "srv-1", ev.ServerCallID)
	assert.Equal(t, "corr-1", ev.CorrelationID)
	assert.Equal(t, "PIN.1.1.abcd", ev.OperationContext)
	assert.Equal(t, core.ReasonCode(8533), ev.Reason())
	require.NotNil(t, ev.Recognition)
	assert.Equal(t, core.VariantDTMF, ev.Recognition.Variant)
	assert.Equal(t, "12#", ev.Recognition.Digits())
	assert.Equal(t, 2024, ev.Timestamp.Year())

	assert.Equal(t, core.EventPlayFailed, d.Events[1].Kind)
	assert.Equal(t, core.ReasonCode(8535), d.Events[1].Reason())
}

func TestDecodeRecognitionVariants(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		variant core.RecognitionVariant
		text    string
	}{
		{"choice", `"recognitionType":"choices","choiceResult":{"label":"Balance","recognizedPhrase":"check balance"}`, core.VariantChoice, "check balance"},
		{"speech", `"recognitionType":"speech","speechResult":{"speech":"1 2 3 4.","confidence":0.9}`, core.VariantSpeech, "1 2 3 4."},
		{"inferred dtmf", `"dtmfResult":{"tones":["four"]}`, core.VariantDTMF, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"type":"Microsoft.Communication.RecognizeCompleted","data":{"callConnectionId":"c1",` + tt.data + `}}`
			d, err := Decode([]byte(body))
			require.NoError(t, err)
			require.Len(t, d.Events, 1)
			r := d.Events[0].Recognition
			require.NotNil(t, r)
			assert.Equal(t, tt.variant, r.Variant)
			assert.Equal(t, tt.text, r.Text())
		})
	}
}

func TestDecodeFlattenedForm(t *testing.T) {
	body := `[{"eventType":"CallConnected","callConnectionId":"c9","serverCallId":"srv-9","correlationId":"x"}]`

	d, err := Decode([]byte(body))
	require.NoError(t, err)
	require.Len(t, d.Events, 1)
	assert.Equal(t, core.EventCallConnected, d.Events[0].Kind)
	assert.Equal(t, "c9", d.Events[0].CallConnectionID)
	assert.NotEmpty(t, d.Events[0].ID)
	assert.False(t, d.Events[0].Timestamp.IsZero())
}

func TestDecodeParticipantAndRecording(t *testing.T) {
	body := `[
	  {"type":"Microsoft.Communication.AddParticipantSucceeded","data":{"callConnectionId":"c1","operationContext":"Agent.1.1.a","participant":{"phoneNumber":{"value":"+14255550000"}}}},
	  {"type":"Microsoft.Communication.RecordingStateChanged","data":{"callConnectionId":"c1","recordingId":"rec-1","state":"active"}},
	  {"type":"Microsoft.Communication.RecordingFileStatusUpdated","data":{"callConnectionId":"c1","serverCallId":"srv-1","recordingStorageInfo":{"recordingChunks":[{"documentId":"doc-1","contentLocation":"https://store/doc-1","deleteLocation":"https://store/doc-1/delete"}]}}},
	  {"type":"Microsoft.Communication.ContinuousDtmfRecognitionToneReceived","data":{"callConnectionId":"c1","tone":"five"}}
	]`

	d, err := Decode([]byte(body))
	require.NoError(t, err)
	require.Len(t, d.Events, 4)

	assert.Equal(t, "4:+14255550000", d.Events[0].Participant)
	assert.Equal(t, "rec-1", d.Events[1].RecordingID)
	assert.Equal(t, "active", d.Events[1].RecordingState)

	file := d.Events[2].RecordingFile
	require.NotNil(t, file)
	assert.Equal(t, "doc-1", file.DocumentID)
	assert.Equal(t, "https://store/doc-1", file.ContentLocation)
	assert.Equal(t, "https://store/doc-1/delete", file.DeleteLocation)

	assert.Equal(t, core.ToneFive, d.Events[3].Tone)
}

func TestDecodeSubscriptionValidation(t *testing.T) {
	body := `[{"id":"v1","eventType":"Microsoft.EventGrid.SubscriptionValidationEvent","data":{"validationCode":"abc-123"}}]`

	d, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", d.ValidationCode)
	assert.Empty(t, d.Events)
}

func TestDecodeIncomingCall(t *testing.T) {
	body := `[{"eventType":"Microsoft.Communication.IncomingCall","data":{"incomingCallContext":"ctx-token","correlationId":"corr","from":{"rawId":"4:+14255551234"},"to":{"rawId":"4:+18005550100"}}}]`

	d, err := Decode([]byte(body))
	require.NoError(t, err)
	require.Len(t, d.Incoming, 1)
	assert.Equal(t, IncomingCall{Context: "ctx-token", From: "4:+14255551234", To: "4:+18005550100", CorrelationID: "corr"}, d.Incoming[0])
}

func TestDecodeSkipsBadItems(t *testing.T) {
	body := `[
	  {"data":{"callConnectionId":"c1"}},
	  {"type":"Microsoft.Communication.PlayCompleted","data":{"callConnectionId":42}},
	  {"type":"Microsoft.Communication.PlayCompleted","data":{"callConnectionId":"c1"}},
	  {"type":"Microsoft.Communication.CallTransferAccepted","data":{"callConnectionId":"c1"}}
	]`

	d, err := Decode([]byte(body))
	require.NoError(t, err)
	require.Len(t, d.Errors, 2)
	for _, e := range d.Errors {
		var evErr *core.EventError
		assert.True(t, errors.As(e, &evErr))
		assert.ErrorIs(t, e, core.ErrMalformedPayload)
	}

	// Unknown types are passed on; the engine drops them as malformed.
	require.Len(t, d.Events, 2)
	assert.Equal(t, core.EventPlayCompleted, d.Events[0].Kind)
	assert.False(t, d.Events[1].Kind.Known())
}

func TestDecodeRejectsNonJSON(t *testing.T) {
	_, err := Decode([]byte("hello"))
	assert.ErrorIs(t, err, core.ErrMalformedPayload)

	_, err = Decode([]byte("[{"))
	assert.ErrorIs(t, err, core.ErrMalformedPayload)
}
