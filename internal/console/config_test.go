package console

import (
	"slices"
	"testing"
	"time"

	"github.com/rickgao/supportdesk/internal/config"
	"github.com/rickgao/supportdesk/internal/model"
	"github.com/rickgao/supportdesk/internal/router"
)

func TestConfigFrom(t *testing.T) {
	cfg := &config.ConsoleConfig{
		Realtime: config.RealtimeConfig{
			URL:                  "ws://localhost:8000/ws",
			MaxReconnectAttempts: 5,
			ReconnectDelay:       3 * time.Second,
			PingInterval:         20 * time.Second,
			PingTimeout:          60 * time.Second,
			WriteTimeout:         5 * time.Second,
			HandshakeTimeout:     10 * time.Second,
			BufferSize:           64,
			Rooms:                []string{"inquiries"},
		},
		Notifications: config.NotificationsConfig{MaxEntries: 50},
	}

	got := ConfigFrom(cfg, "agents", " inquiries ", "")

	mc := got.Connection
	if mc.URL != cfg.Realtime.URL || mc.MaxReconnectAttempts != 5 || mc.ReconnectDelay != 3*time.Second {
		t.Errorf("Connection = %+v, want realtime settings", mc)
	}
	if mc.PingInterval != 20*time.Second || mc.PingTimeout != 60*time.Second {
		t.Errorf("ping settings = %v/%v, want 20s/60s", mc.PingInterval, mc.PingTimeout)
	}
	if mc.WriteTimeout != 5*time.Second || mc.HandshakeTimeout != 10*time.Second {
		t.Errorf("timeouts = %v/%v, want 5s/10s", mc.WriteTimeout, mc.HandshakeTimeout)
	}
	if mc.MessageBufferSize != 64 {
		t.Errorf("MessageBufferSize = %d, want 64", mc.MessageBufferSize)
	}
	if want := []string{"inquiries", "agents"}; !slices.Equal(got.Rooms, want) {
		t.Errorf("Rooms = %v, want %v", got.Rooms, want)
	}
	if got.MaxNotifications != 50 {
		t.Errorf("MaxNotifications = %d, want 50", got.MaxNotifications)
	}

	// The loaded config is left untouched
	if len(cfg.Realtime.Rooms) != 1 {
		t.Errorf("config rooms mutated: %v", cfg.Realtime.Rooms)
	}
}

func TestConsole_Listeners(t *testing.T) {
	c := New(Config{MaxNotifications: 10}, nil, nil)

	for name, n := range c.Listeners() {
		if n != 0 {
			t.Errorf("listeners[%s] = %d before bind, want 0", name, n)
		}
	}

	c.bind()
	c.Router().On(model.EventEscalation, func(router.Event) error { return nil })

	got := c.Listeners()
	if len(got) != len(Events) {
		t.Errorf("Listeners() has %d events, want %d", len(got), len(Events))
	}
	if got[model.EventEscalation] != 2 {
		t.Errorf("listeners[%s] = %d, want 2", model.EventEscalation, got[model.EventEscalation])
	}
	if got[model.EventInquiryUpdated] != 0 {
		t.Errorf("listeners[%s] = %d, want 0", model.EventInquiryUpdated, got[model.EventInquiryUpdated])
	}

	c.Close()
	if got := c.Listeners()[model.EventNewInquiry]; got != 0 {
		t.Errorf("listeners[%s] after Close = %d, want 0", model.EventNewInquiry, got)
	}
}
