// Package metrics exposes Prometheus collectors for the call pipeline.
//
// Collectors are registered once with the default registry. Instrument wires
// them to an engine's lifecycle callbacks; HTTPMiddleware records webhook
// requests; Handler serves the scrape endpoint.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/callflow/engine"
)

const namespace = "callflow"

var (
	registerOnce sync.Once

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_total",
			Help:      "Inbound call events by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	eventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_dropped_total",
			Help:      "Inbound call events dropped before reaching a workflow.",
		},
		[]string{"reason"},
	)
	eventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "event_duration_seconds",
			Help:      "Time spent handling one inbound event.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "actions_total",
			Help:      "Platform requests issued by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "steps_entered_total",
			Help:      "Workflow steps entered.",
		},
		[]string{"step"},
	)
	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "retries_total",
			Help:      "Steps re-issued after a recoverable failure.",
		},
		[]string{"step", "reason"},
	)
	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "fallbacks_total",
			Help:      "Calls that ended in the apology and hang-up path.",
		},
		[]string{"reason"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "active_sessions",
			Help:      "Live call sessions.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total webhook HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Webhook HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterMetrics registers all collectors with the default registry. It is
// safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			eventsTotal, eventsDropped, eventDuration, actionsTotal,
			transitionsTotal, retriesTotal, fallbacksTotal, activeSessions,
			httpRequests, httpDuration,
		)
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

// Instrument registers callbacks on cm that feed the collectors.
func Instrument(cm *engine.CallbackManager) {
	RegisterMetrics()

	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnEvent, func(_ context.Context, c *engine.CallbackContext) error {
		if c.Event == nil || c.Result == nil {
			return nil
		}
		kind := kindLabel(string(c.Event.Kind))
		outcome := "handled"
		if !c.Result.Handled {
			outcome = "dropped"
		}
		eventsTotal.WithLabelValues(kind, outcome).Inc()
		eventDuration.WithLabelValues(kind).Observe(c.Duration.Seconds())
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnDrop, func(_ context.Context, c *engine.CallbackContext) error {
		eventsDropped.WithLabelValues(c.Reason).Inc()
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnAction, func(_ context.Context, c *engine.CallbackContext) error {
		if c.Action == nil {
			return nil
		}
		outcome := "ok"
		if c.Err != nil {
			outcome = "error"
		}
		actionsTotal.WithLabelValues(string(c.Action.Kind), outcome).Inc()
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnTransition, func(_ context.Context, c *engine.CallbackContext) error {
		transitionsTotal.WithLabelValues(c.To).Inc()
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnRetry, func(_ context.Context, c *engine.CallbackContext) error {
		retriesTotal.WithLabelValues(c.To, c.Reason).Inc()
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnFallback, func(_ context.Context, c *engine.CallbackContext) error {
		fallbacksTotal.WithLabelValues(c.Reason).Inc()
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnSessionStart, func(context.Context, *engine.CallbackContext) error {
		activeSessions.Inc()
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnSessionEnd, func(context.Context, *engine.CallbackContext) error {
		activeSessions.Dec()
		return nil
	}))
}

func kindLabel(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}

// RecordHTTPRequest records one webhook request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// HTTPMiddleware records every request served by next under the given
// path label. The label is fixed per route to keep cardinality bounded.
func HTTPMiddleware(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		RecordHTTPRequest(r.Method, path, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
