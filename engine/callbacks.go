package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/callflow/core"
)

// CallbackType defines the lifecycle points where callbacks are executed.
//
// Callbacks hook metrics, auditing and tests into the per-call pipeline
// without touching the engine. They run synchronously and must be fast.
// Most run while the call lock is held and must not call back into the
// engine for the same call. The exceptions run unlocked: CallbackOnEvent,
// CallbackOnDrop for filtered or malformed events, and CallbackOnSessionEnd
// for idle eviction.
type CallbackType string

const (
	// CallbackOnEvent is triggered once per inbound event after handling,
	// whether it was applied or dropped. CallbackContext.Result is set.
	CallbackOnEvent CallbackType = "on_event"

	// CallbackOnDrop is triggered when an event is dropped as filtered,
	// malformed, unknown or stale.
	CallbackOnDrop CallbackType = "on_drop"

	// CallbackOnTransition is triggered when a session moves to a new step.
	CallbackOnTransition CallbackType = "on_transition"

	// CallbackOnAction is triggered after every dispatched action, with Err
	// set when the platform rejected it.
	CallbackOnAction CallbackType = "on_action"

	// CallbackOnRetry is triggered when a step is re-issued after a
	// recoverable failure.
	CallbackOnRetry CallbackType = "on_retry"

	// CallbackOnFallback is triggered when a call enters the apology and
	// hang-up path.
	CallbackOnFallback CallbackType = "on_fallback"

	// CallbackOnSessionStart is triggered when a session is created.
	CallbackOnSessionStart CallbackType = "on_session_start"

	// CallbackOnSessionEnd is triggered when a session is removed, on
	// disconnect or idle eviction.
	CallbackOnSessionEnd CallbackType = "on_session_end"
)

// CallbackContext carries what a callback needs to know about the lifecycle
// point it was triggered for. Fields that do not apply are zero.
type CallbackContext struct {
	CallbackType     CallbackType
	CallConnectionID string

	// Event is the inbound event being handled, if any.
	Event *core.Event
	// Action is the dispatched action for CallbackOnAction.
	Action *core.Action
	// Result is the handling result for CallbackOnEvent and CallbackOnDrop.
	Result *Result

	// From and To are the steps of a transition.
	From, To string
	// Reason is the failure or drop reason, in string form.
	Reason string
	// Attempt is the retry count after a CallbackOnRetry.
	Attempt int
	// Duration is the handling time for CallbackOnEvent.
	Duration time.Duration
	// Err is the error associated with the lifecycle point.
	Err error

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for lifecycle hooks.
//
// Errors returned by Execute are logged by the engine; they never change how
// an event is handled.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(CallbackOnFallback, func(ctx context.Context, c *CallbackContext) error {
//	    alert(c.CallConnectionID, c.Reason)
//	    return nil
//	})
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager is the registry of callbacks consulted by the engine.
//
// Callbacks are executed in registration order. All of them run even when
// one fails; the errors are joined. Registration and execution are safe for
// concurrent use since calls are handled on parallel goroutines.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback for its type.
//
// Example:
//
//	manager := NewCallbackManager()
//	manager.RegisterCallback(loggingCallback)
//	manager.RegisterCallback(metricsCallback)
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all registered callbacks for the specified type.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := cm.callbacks[callbackType]
	cm.mu.RUnlock()
	if len(callbacks) == 0 {
		return nil
	}

	callbackCtx.CallbackType = callbackType
	var errs []error
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("callbacks %s: %w", callbackType, errors.Join(errs...))
	}
	return nil
}

// LoggingCallback forwards lifecycle points to a logging function.
//
// Example:
//
//	callback := NewLoggingCallback(CallbackOnDrop, func(message string) {
//	    log.Printf("[ENGINE] %s", message)
//	})
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the lifecycle point with the call id and event kind.
func (c *LoggingCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	kind := "-"
	if callbackCtx.Event != nil {
		kind = string(callbackCtx.Event.Kind)
	}
	message := fmt.Sprintf("[%s] call=%s event=%s", c.callbackType, callbackCtx.CallConnectionID, kind)
	if callbackCtx.To != "" {
		message += fmt.Sprintf(" step=%s->%s", callbackCtx.From, callbackCtx.To)
	}
	if callbackCtx.Reason != "" {
		message += " reason=" + callbackCtx.Reason
	}
	c.logger(message)
	return nil
}
