package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/engine"
	"github.com/hupe1980/callflow/internal/testutil"
	"github.com/hupe1980/callflow/workflow"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	m := &dto.Metric{}
	require.NoError(t, (<-ch).Write(m))
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("POST", "/api/callbacks", 200, 12*time.Millisecond)
}

func TestInstrumentCountsEngineLifecycle(t *testing.T) {
	client := testutil.NewFakeClient()
	eng := engine.New(workflow.NewContosoBank(), client)
	Instrument(eng.Callbacks())

	dropped := eventsDropped.WithLabelValues(string(engine.DropStale))
	played := actionsTotal.WithLabelValues(string(core.ActionPlay), "ok")
	greeting := transitionsTotal.WithLabelValues(workflow.StepGreeting)
	before := []float64{counterValue(t, dropped), counterValue(t, played), counterValue(t, greeting), counterValue(t, activeSessions)}

	ctx := context.Background()
	eng.Handle(ctx, testutil.NewEventBuilder(core.EventCallConnected, "metrics-call").Caller("4:+14255551234").Build())
	eng.Handle(ctx, testutil.NewEventBuilder(core.EventPlayCompleted, "metrics-call").Tag("Greeting.1.9.bad").Build())

	assert.Equal(t, before[0]+1, counterValue(t, dropped))
	assert.Equal(t, before[1]+1, counterValue(t, played))
	assert.Equal(t, before[2]+1, counterValue(t, greeting))
	assert.Equal(t, before[3]+1, counterValue(t, activeSessions))

	eng.Handle(ctx, testutil.NewEventBuilder(core.EventCallDisconnected, "metrics-call").Build())
	assert.Equal(t, before[3], counterValue(t, activeSessions))
}

func TestHTTPMiddlewareAndHandler(t *testing.T) {
	teapot := HTTPMiddleware("/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	teapot.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `callflow_http_requests_total{method="GET",path="/teapot",status="418"}`))
}
