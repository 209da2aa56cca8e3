package router

import (
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	ErrHandlerPanic = errors.New("handler panicked")
	ErrEmptyPayload = errors.New("event has no payload")
)

// Event is a named event delivered to listeners.
type Event struct {
	Name       string          // Event name (e.g., "new_inquiry", "connect")
	Data       json.RawMessage // Raw payload, nil for lifecycle events without data
	ReceivedAt time.Time       // Local timestamp when the event arrived
}

// HandlerFunc handles a single event. A returned error is logged by the
// router and never reaches the transport.
type HandlerFunc func(Event) error

// Listener is the handle returned by On. Off matches on handle identity.
type Listener struct {
	event string
	fn    HandlerFunc
}

// Event returns the event name the listener was registered for.
func (l *Listener) Event() string {
	return l.event
}

// Stats contains runtime statistics.
type Stats struct {
	EventsDispatched int64 // Events passed to Dispatch
	Invocations      int64 // Individual handler calls
	HandlerFailures  int64 // Handler calls that returned an error or panicked
	Unhandled        int64 // Events with no registered listener
}
