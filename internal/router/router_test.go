package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestRouter_DispatchOrder(t *testing.T) {
	r := New(slog.Default())

	var calls []string
	r.On("new_inquiry", func(Event) error {
		calls = append(calls, "first")
		return nil
	})
	r.On("new_inquiry", func(Event) error {
		calls = append(calls, "second")
		return nil
	})
	r.On("escalation", func(Event) error {
		calls = append(calls, "other")
		return nil
	})

	n := r.Dispatch(Event{Name: "new_inquiry", ReceivedAt: time.Now()})
	if n != 2 {
		t.Errorf("Dispatch invoked %d handlers, want 2", n)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v, want [first second]", calls)
	}
}

func TestRouter_FailingHandlerIsolated(t *testing.T) {
	tests := []struct {
		name  string
		first HandlerFunc
	}{
		{
			name:  "error",
			first: func(Event) error { return errors.New("boom") },
		},
		{
			name:  "panic",
			first: func(Event) error { panic("boom") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(nil)

			var order []int
			r.On("escalation", func(ev Event) error {
				order = append(order, 1)
				return tt.first(ev)
			})
			r.On("escalation", func(Event) error {
				order = append(order, 2)
				return nil
			})

			r.Dispatch(Event{Name: "escalation"})

			if len(order) != 2 || order[0] != 1 || order[1] != 2 {
				t.Errorf("order = %v, want [1 2]", order)
			}

			stats := r.Stats()
			if stats.HandlerFailures != 1 {
				t.Errorf("HandlerFailures = %d, want 1", stats.HandlerFailures)
			}
			if stats.Invocations != 2 {
				t.Errorf("Invocations = %d, want 2", stats.Invocations)
			}
		})
	}
}

func TestRouter_Off(t *testing.T) {
	r := New(nil)

	var a, b int
	la := r.On("notification", func(Event) error { a++; return nil })
	r.On("notification", func(Event) error { b++; return nil })

	if got := r.Dispatch(Event{Name: "notification"}); got != 2 {
		t.Fatalf("Dispatch = %d, want 2", got)
	}

	r.Off("notification", la)

	if got := r.Dispatch(Event{Name: "notification"}); got != 1 {
		t.Errorf("Dispatch after Off = %d, want 1", got)
	}
	if a != 1 {
		t.Errorf("removed handler called %d times, want 1", a)
	}
	if b != 2 {
		t.Errorf("remaining handler called %d times, want 2", b)
	}

	// Removing again, or under the wrong name, is a no-op
	r.Off("notification", la)
	r.Off("escalation", la)
	r.Off("notification", nil)
	if got := r.Count("notification"); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}
}

func TestRouter_OffSameFunctionTwice(t *testing.T) {
	r := New(nil)

	calls := 0
	fn := func(Event) error { calls++; return nil }
	l1 := r.On("connect", fn)
	r.On("connect", fn)

	r.Off("connect", l1)
	r.Dispatch(Event{Name: "connect"})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRouter_OffDuringDispatch(t *testing.T) {
	r := New(nil)

	var second *Listener
	secondCalls := 0
	r.On("disconnect", func(Event) error {
		r.Off("disconnect", second)
		return nil
	})
	second = r.On("disconnect", func(Event) error {
		secondCalls++
		return nil
	})

	// The in-flight dispatch uses the list as it was when dispatch began
	r.Dispatch(Event{Name: "disconnect"})
	r.Dispatch(Event{Name: "disconnect"})

	if secondCalls != 1 {
		t.Errorf("secondCalls = %d, want 1", secondCalls)
	}
}

func TestRouter_Unhandled(t *testing.T) {
	r := New(nil)

	if got := r.Dispatch(Event{Name: "inquiry_updated"}); got != 0 {
		t.Errorf("Dispatch = %d, want 0", got)
	}
	if got := r.Stats().Unhandled; got != 1 {
		t.Errorf("Unhandled = %d, want 1", got)
	}
}

func TestOnJSON(t *testing.T) {
	type payload struct {
		ID      int64  `json:"id"`
		Subject string `json:"subject"`
	}

	r := New(nil)

	var got payload
	OnJSON(r, "new_inquiry", func(p payload, ev Event) error {
		got = p
		return nil
	})

	data, _ := json.Marshal(payload{ID: 7, Subject: "Login problem"})
	r.Dispatch(Event{Name: "new_inquiry", Data: data})

	if got.ID != 7 {
		t.Errorf("ID = %d, want 7", got.ID)
	}
	if got.Subject != "Login problem" {
		t.Errorf("Subject = %q, want %q", got.Subject, "Login problem")
	}

	r.Dispatch(Event{Name: "new_inquiry", Data: []byte(`{not json`)})
	r.Dispatch(Event{Name: "new_inquiry"})

	if got := r.Stats().HandlerFailures; got != 2 {
		t.Errorf("HandlerFailures = %d, want 2", got)
	}
}
