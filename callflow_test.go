package callflow

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/callflow/config"
	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/intent"
	"github.com/hupe1980/callflow/internal/testutil"
	"github.com/hupe1980/callflow/logging"
	"github.com/hupe1980/callflow/model"
	"github.com/hupe1980/callflow/workflow"
)

type silentModel struct{}

func (silentModel) Generate(context.Context, model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response)
	errs := make(chan error)
	close(out)
	close(errs)
	return out, errs
}

func (silentModel) Info() model.Info { return model.Info{} }

func newTestCallflow(t *testing.T, client core.CallClient, mutate func(c *config.Config)) *Callflow {
	t.Helper()
	cfg := config.Default()
	cfg.Server.CallbackBaseURI = "https://calls.example.com"
	if mutate != nil {
		mutate(&cfg)
	}
	cf, err := New(client, func(o *Options) {
		o.Config = cfg
		o.Logger = logging.NoOpLogger{}
	})
	require.NoError(t, err)
	return cf
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(testutil.NewFakeClient(), func(o *Options) {
		o.Config = config.Default()
		o.Config.Workflow.Name = "unknown"
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow.name")
}

func TestIncomingCallToGreeting(t *testing.T) {
	client := testutil.NewFakeClient()
	cf := newTestCallflow(t, client, nil)
	h := cf.Handler()

	res := post(t, h, "/api/incomingCall",
		`[{"eventType":"Microsoft.Communication.IncomingCall","data":{"incomingCallContext":"ctx","from":{"rawId":"4:+14255551234"}}}]`)
	require.Equal(t, http.StatusOK, res.Code)

	answers := client.CallsTo("AnswerCall")
	require.Len(t, answers, 1)
	assert.True(t, strings.HasPrefix(answers[0].OperationContext, "https://calls.example.com/api/callbacks/"))

	sess, err := cf.Engine().Session(client.ConnectionID)
	require.NoError(t, err)
	assert.Equal(t, "4:+14255551234", sess.CallerID)

	res = post(t, h, "/api/callbacks/abc?callerId=4%3A%2B14255551234",
		`[{"type":"Microsoft.Communication.CallConnected","data":{"callConnectionId":"call-answered","serverCallId":"srv-1"}}]`)
	require.Equal(t, http.StatusOK, res.Code)

	sess, err = cf.Engine().Session(client.ConnectionID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepGreeting, sess.CurrentStep)
	assert.NotEmpty(t, sess.PendingOperation)
	assert.Len(t, client.CallsTo("Play"), 1)
	assert.Len(t, client.CallsTo("StartRecording"), 1)
}

func TestSimpleIVRFromConfig(t *testing.T) {
	client := testutil.NewFakeClient()
	cf := newTestCallflow(t, client, func(c *config.Config) {
		c.Workflow.Name = config.WorkflowSimpleIVR
		c.Workflow.RecordCalls = false
		c.Workflow.AudioBaseURL = "https://cdn.example.com/audio"
	})
	assert.Equal(t, "simple_ivr", cf.Engine().Machine().Name())

	res := post(t, cf.Handler(), "/api/callbacks/x",
		`[{"eventType":"CallConnected","callConnectionId":"c1","serverCallId":"srv-1"}]`)
	require.Equal(t, http.StatusOK, res.Code)

	recognize := client.CallsTo("StartRecognizing")
	require.Len(t, recognize, 1)
	require.NotNil(t, recognize[0].Recognize)
	assert.Empty(t, client.CallsTo("StartRecording"))
}

func TestOutboundReminderFromConfig(t *testing.T) {
	client := testutil.NewFakeClient()
	cf := newTestCallflow(t, client, func(c *config.Config) {
		c.Workflow.Name = config.WorkflowAppointmentReminder
		c.Workflow.CallerID = "4:+18005550100"
		c.Workflow.RecordCalls = false
		c.Workflow.Transcribe = true
	})
	h := cf.Handler()
	assert.Equal(t, "appointment_reminder", cf.Engine().Machine().Name())

	res := post(t, h, "/api/outboundCall", `{"target":"4:+14255551234"}`)
	require.Equal(t, http.StatusOK, res.Code)

	created := client.CallsTo("CreateCall")
	require.Len(t, created, 1)
	assert.Equal(t, "4:+18005550100", created[0].CallerID)

	res = post(t, h, "/api/callbacks/abc",
		`[{"type":"Microsoft.Communication.CallConnected","data":{"callConnectionId":"call-answered","serverCallId":"srv-1"}}]`)
	require.Equal(t, http.StatusOK, res.Code)

	sess, err := cf.Engine().Session(client.ConnectionID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepReminderMenu, sess.CurrentStep)
	assert.True(t, sess.Outbound)

	recognize := client.CallsTo("StartRecognizing")
	require.Len(t, recognize, 1)
	assert.Equal(t, "4:+14255551234", recognize[0].Recognize.Target)
	assert.Len(t, client.CallsTo("StartTranscription"), 1)
}

func TestMetricsRoute(t *testing.T) {
	cf := newTestCallflow(t, testutil.NewFakeClient(), nil)
	h := cf.Handler()

	post(t, h, "/api/callbacks/x", `[{"eventType":"PlayCompleted","callConnectionId":"nobody"}]`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "callflow_engine_events_dropped_total")
	assert.Contains(t, string(body), "callflow_http_requests_total")
}

func TestMetricsDisabled(t *testing.T) {
	cf, err := New(testutil.NewFakeClient(), func(o *Options) {
		o.DisableMetrics = true
		o.Logger = logging.NoOpLogger{}
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	res := httptest.NewRecorder()
	cf.Handler().ServeHTTP(res, req)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestNewClassifier(t *testing.T) {
	c := newClassifier(config.IntentConfig{Provider: config.IntentNone}, nil, logging.NoOpLogger{})
	_, ok := c.(*intent.Keyword)
	assert.True(t, ok)

	c = newClassifier(config.IntentConfig{Provider: config.IntentNone}, silentModel{}, logging.NoOpLogger{})
	chain, ok := c.(intent.Chain)
	require.True(t, ok)
	assert.Len(t, chain, 2)

	m, err := c.Classify(context.Background(), "what is my account balance")
	require.NoError(t, err)
	assert.Equal(t, core.ToneOne, m.Tone)
}
