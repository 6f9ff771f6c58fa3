package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/callflow/core"
	"github.com/hupe1980/callflow/engine"
	"github.com/hupe1980/callflow/logging"
)

// Route paths.
const (
	IncomingCallPath = "/api/incomingCall"
	CallbacksPath    = "/api/callbacks/"
	OutboundCallPath = "/api/outboundCall"
)

// maxBodyBytes bounds a single delivery.
const maxBodyBytes = 4 << 20

// Engine is the part of *engine.Engine the handlers need.
type Engine interface {
	HandleBatch(ctx context.Context, events []core.Event) []engine.Result
	AnswerCall(ctx context.Context, incomingCallContext, callbackURI, callerID string) (string, error)
	PlaceCall(ctx context.Context, target, callerID, callbackURI string) (string, error)
}

// Options configures a Handler.
type Options struct {
	// CallbackBaseURI is the public base URL of this service. Answered calls
	// post their events to CallbackBaseURI + CallbacksPath + <id>.
	CallbackBaseURI string
	// SourceCallerID is presented on outbound calls that name no caller id.
	SourceCallerID string
	Logger         logging.Logger
}

// Handler serves the incoming call and callback endpoints.
type Handler struct {
	engine Engine
	opts   Options
	logger logging.Logger
}

// New creates a Handler for eng.
func New(eng Engine, optFns ...func(o *Options)) *Handler {
	opts := Options{CallbackBaseURI: "http://localhost:8080"}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Handler{engine: eng, opts: opts, logger: logger}
}

// Register mounts the handlers on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(IncomingCallPath, h.IncomingCall)
	mux.HandleFunc(CallbacksPath, h.Callbacks)
	mux.HandleFunc(OutboundCallPath, h.OutboundCall)
}

// IncomingCall answers the subscription handshake and every incoming call
// in the delivery.
func (h *Handler) IncomingCall(w http.ResponseWriter, r *http.Request) {
	d, ok := h.read(w, r)
	if !ok {
		return
	}
	if d.ValidationCode != "" {
		h.validate(w, d.ValidationCode)
		return
	}

	for _, in := range d.Incoming {
		callbackURI, err := h.callbackURI(in.From)
		if err != nil {
			h.logger.Error("Invalid callback base URI", "error", err.Error())
			continue
		}
		id, err := h.engine.AnswerCall(r.Context(), in.Context, callbackURI, in.From)
		if err != nil {
			h.logger.Error("Answer call failed", "caller_id", in.From, "correlation_id", in.CorrelationID, "error", err.Error())
			continue
		}
		h.logger.Debug("Incoming call answered", "call_connection_id", id, "callback_uri", callbackURI)
	}
	if n := len(d.Events); n > 0 {
		h.logger.Warn("Call events posted to incoming call endpoint", "count", n)
	}
	w.WriteHeader(http.StatusOK)
}

// OutboundCallRequest is the body of an outbound call request.
type OutboundCallRequest struct {
	Target   string `json:"target"`
	CallerID string `json:"callerId,omitempty"`
}

// OutboundCall places a call to the requested target. Its events arrive on
// the callbacks endpoint like those of answered calls.
func (h *Handler) OutboundCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req OutboundCallRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outbound call request"})
		return
	}
	req.Target = strings.TrimSpace(req.Target)
	if req.Target == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target is required"})
		return
	}
	if req.CallerID == "" {
		req.CallerID = h.opts.SourceCallerID
	}

	callbackURI, err := h.callbackURI(req.Target)
	if err != nil {
		h.logger.Error("Invalid callback base URI", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "callback base URI misconfigured"})
		return
	}
	id, err := h.engine.PlaceCall(r.Context(), req.Target, req.CallerID, callbackURI)
	if err != nil {
		h.logger.Error("Place call failed", "target", req.Target, "error", err.Error())
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "place call failed"})
		return
	}
	h.logger.Info("Outbound call placed", "call_connection_id", id, "target", req.Target)
	writeJSON(w, http.StatusOK, map[string]string{"callConnectionId": id})
}

// Callbacks hands call events to the engine. The callerId query parameter
// set at answer time is stamped on every event. Handling is detached from
// the request context so a dropped connection does not abort a batch
// midway.
func (h *Handler) Callbacks(w http.ResponseWriter, r *http.Request) {
	d, ok := h.read(w, r)
	if !ok {
		return
	}
	if d.ValidationCode != "" {
		h.validate(w, d.ValidationCode)
		return
	}

	callerID := r.URL.Query().Get("callerId")
	for i := range d.Events {
		if d.Events[i].CallerID == "" {
			d.Events[i].CallerID = callerID
		}
	}
	if len(d.Events) > 0 {
		for _, res := range h.engine.HandleBatch(context.WithoutCancel(r.Context()), d.Events) {
			if !res.Handled {
				h.logger.Debug("Event dropped",
					"event_id", res.EventID,
					"kind", string(res.Kind),
					"call_connection_id", res.CallConnectionID,
					"reason", string(res.DropReason))
			}
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) (Delivery, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return Delivery{}, false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return Delivery{}, false
	}
	d, err := Decode(body)
	if err != nil {
		h.logger.Warn("Malformed delivery", "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return Delivery{}, false
	}
	for _, err := range d.Errors {
		var evErr *core.EventError
		if errors.As(err, &evErr) {
			h.logger.Warn("Skipping undecodable event", "type", evErr.EventType, "error", evErr.Cause.Error())
		}
	}
	return d, true
}

func (h *Handler) validate(w http.ResponseWriter, code string) {
	h.logger.Info("Subscription validation received")
	writeJSON(w, http.StatusOK, map[string]string{"validationResponse": code})
}

func (h *Handler) callbackURI(callerID string) (string, error) {
	base, err := url.Parse(strings.TrimRight(h.opts.CallbackBaseURI, "/"))
	if err != nil {
		return "", err
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("callback base %q is not absolute", h.opts.CallbackBaseURI)
	}
	u := base.JoinPath(CallbacksPath, uuid.NewString())
	u.RawQuery = url.Values{"callerId": {callerID}}.Encode()
	return u.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
