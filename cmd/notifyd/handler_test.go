package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rickgao/supportdesk/internal/config"
	"github.com/rickgao/supportdesk/internal/console"
	"github.com/rickgao/supportdesk/internal/model"
	"github.com/rickgao/supportdesk/internal/notification"
	"github.com/rickgao/supportdesk/internal/router"
	"github.com/rickgao/supportdesk/internal/writer"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func newTestHandler(t *testing.T) *handler {
	t.Helper()
	c := console.New(console.Config{MaxNotifications: 10}, nil, nil)
	c.Store().Add(notification.Notification{
		ID:         "new-inquiry-7",
		Type:       notification.TypeNewInquiry,
		Message:    `New inquiry #7: "Login issue"`,
		EntityID:   7,
		EntityType: notification.EntityInquiry,
		Timestamp:  time.Now(),
	})
	return &handler{console: c, logger: slog.Default()}
}

func serve(h *handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.routes().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHandler_ListNotifications(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/notifications")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Unread        int                         `json:"unread"`
		Notifications []notification.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Unread != 1 || len(body.Notifications) != 1 {
		t.Errorf("unread/len = %d/%d, want 1/1", body.Unread, len(body.Notifications))
	}
	if body.Notifications[0].ID != "new-inquiry-7" {
		t.Errorf("ID = %q, want new-inquiry-7", body.Notifications[0].ID)
	}
}

func TestHandler_MarkRead(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/notifications/new-inquiry-7/read")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var ref notification.Ref
	if err := json.Unmarshal(rec.Body.Bytes(), &ref); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if ref.ID != 7 || ref.Type != notification.EntityInquiry {
		t.Errorf("ref = %+v, want inquiry 7", ref)
	}
	if got := h.console.Store().UnreadCount(); got != 0 {
		t.Errorf("UnreadCount() = %d, want 0", got)
	}

	if rec := serve(h, http.MethodPost, "/notifications/missing/read"); rec.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", rec.Code)
	}
}

func TestHandler_MarkAllRead(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/notifications/read")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := h.console.Store().UnreadCount(); got != 0 {
		t.Errorf("UnreadCount() = %d, want 0", got)
	}
}

func TestHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		archive    pinger
		wantCode   int
		wantStatus string
	}{
		{name: "disconnected without archive", wantCode: http.StatusOK, wantStatus: "degraded"},
		{name: "archive healthy", archive: fakePinger{}, wantCode: http.StatusOK, wantStatus: "degraded"},
		{name: "archive down", archive: fakePinger{err: errors.New("refused")}, wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)
			h.archive = tt.archive
			h.archiveStats = func() writer.Metrics { return writer.Metrics{Inserts: 1} }

			rec := serve(h, http.MethodGet, "/health")
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}

			var body struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("health status = %q, want %q", body.Status, tt.wantStatus)
			}
		})
	}
}

func TestHandler_RouterStats(t *testing.T) {
	h := newTestHandler(t)
	h.console.Router().On(model.EventEscalation, func(router.Event) error { return nil })
	h.console.Router().Dispatch(router.Event{Name: model.EventEscalation})

	rec := serve(h, http.MethodGet, "/debug/router")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Stats     router.Stats   `json:"stats"`
		Listeners map[string]int `json:"listeners"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Stats.EventsDispatched != 1 {
		t.Errorf("EventsDispatched = %d, want 1", body.Stats.EventsDispatched)
	}
	if got := body.Listeners[model.EventEscalation]; got != 1 {
		t.Errorf("listeners[%s] = %d, want 1", model.EventEscalation, got)
	}
	if got, ok := body.Listeners[model.EventNewInquiry]; !ok || got != 0 {
		t.Errorf("listeners[%s] = %d (present %v), want 0", model.EventNewInquiry, got, ok)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		cfg       config.LogConfig
		wantDebug bool
	}{
		{cfg: config.LogConfig{Level: "debug", Format: "json"}, wantDebug: true},
		{cfg: config.LogConfig{Level: "warn", Format: "text"}, wantDebug: false},
		{cfg: config.LogConfig{Level: "bogus"}, wantDebug: false},
	}

	for _, tt := range tests {
		logger := newLogger(tt.cfg)
		if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
			t.Errorf("newLogger(%+v) debug enabled = %v, want %v", tt.cfg, got, tt.wantDebug)
		}
	}
}
