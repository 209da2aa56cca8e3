package router

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Router dispatches named events to registered listeners.
type Router struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]*Listener

	statsMu sync.Mutex
	stats   Stats
}

// New creates an empty Router.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		logger:   logger,
		handlers: make(map[string][]*Listener),
	}
}

// On registers fn for event. Multiple listeners per event are allowed and
// are invoked in registration order.
func (r *Router) On(event string, fn HandlerFunc) *Listener {
	l := &Listener{event: event, fn: fn}

	r.mu.Lock()
	r.handlers[event] = append(r.handlers[event], l)
	r.mu.Unlock()

	return l
}

// Off removes exactly one registered listener. Unknown listeners are ignored.
func (r *Router) Off(event string, l *Listener) {
	if l == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.handlers[event]
	for i, existing := range list {
		if existing != l {
			continue
		}
		// Copy so snapshots taken by in-flight dispatches stay intact
		next := make([]*Listener, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(r.handlers, event)
		} else {
			r.handlers[event] = next
		}
		return
	}
}

// Count returns the number of listeners registered for event.
func (r *Router) Count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[event])
}

// Dispatch invokes every listener registered for ev.Name and returns how
// many were invoked. Listener errors and panics are logged and counted;
// they never stop the remaining listeners.
func (r *Router) Dispatch(ev Event) int {
	r.mu.RLock()
	list := r.handlers[ev.Name]
	r.mu.RUnlock()

	var failures int64
	for _, l := range list {
		if err := invoke(l.fn, ev); err != nil {
			failures++
			r.logger.Error("event handler failed",
				"event", ev.Name,
				"error", err,
			)
		}
	}

	r.statsMu.Lock()
	r.stats.EventsDispatched++
	r.stats.Invocations += int64(len(list))
	r.stats.HandlerFailures += failures
	if len(list) == 0 {
		r.stats.Unhandled++
	}
	r.statsMu.Unlock()

	if len(list) == 0 {
		r.logger.Debug("no listeners for event", "event", ev.Name)
	}

	return len(list)
}

// Stats returns current statistics.
func (r *Router) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// invoke calls fn, converting a panic into an error.
func invoke(fn HandlerFunc, ev Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
		}
	}()
	return fn(ev)
}

// OnJSON registers a listener that decodes the event payload into T before
// calling fn. Decode failures are reported as handler errors.
func OnJSON[T any](r *Router, event string, fn func(T, Event) error) *Listener {
	return r.On(event, func(ev Event) error {
		if len(ev.Data) == 0 {
			return ErrEmptyPayload
		}
		var payload T
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Name, err)
		}
		return fn(payload, ev)
	})
}
