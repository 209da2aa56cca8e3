package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/supportdesk/internal/console"
	"github.com/rickgao/supportdesk/internal/router"
	"github.com/rickgao/supportdesk/internal/writer"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// handler serves health and notification endpoints for one console.
type handler struct {
	console *console.Console
	logger  *slog.Logger

	// Set only when the archive is enabled
	archive      pinger
	archiveStats func() writer.Metrics
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /notifications", h.listNotifications)
	mux.HandleFunc("POST /notifications/read", h.markAllRead)
	mux.HandleFunc("POST /notifications/{id}/read", h.markRead)
	mux.HandleFunc("GET /debug/router", h.routerStats)
	return mux
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.console.Status()
	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: map[string]any{"realtime": status},
	}

	switch status.State {
	case "failed":
		health.Status = "unhealthy"
	case "connected":
	default:
		health.Status = "degraded"
	}

	if h.archive != nil {
		archive := map[string]any{"status": "connected"}
		if err := h.archive.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			archive["status"] = "disconnected"
			archive["error"] = err.Error()
		}
		if h.archiveStats != nil {
			archive["writer"] = h.archiveStats()
		}
		health.Components["archive"] = archive
	}

	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, health)
}

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	store := h.console.Store()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"unread":        store.UnreadCount(),
		"notifications": store.Notifications(),
	})
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.console.Open(r.PathValue("id"))
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, ref)
}

func (h *handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	h.console.Store().MarkAllAsRead()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) routerStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, struct {
		Stats     router.Stats   `json:"stats"`
		Listeners map[string]int `json:"listeners"`
	}{
		Stats:     h.console.Router().Stats(),
		Listeners: h.console.Listeners(),
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", "error", err)
	}
}
