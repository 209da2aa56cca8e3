package console

import (
	"slices"
	"strings"

	"github.com/rickgao/supportdesk/internal/config"
	"github.com/rickgao/supportdesk/internal/connection"
	"github.com/rickgao/supportdesk/internal/model"
)

// Events lists the lifecycle and inbound server events a console session
// can route.
var Events = []string{
	connection.EventConnect,
	connection.EventDisconnect,
	connection.EventError,
	model.EventNewInquiry,
	model.EventInquiryUpdated,
	model.EventNewResponse,
	model.EventEscalation,
	model.EventNotification,
}

// ConfigFrom builds a console Config from the loaded file configuration.
// extraRooms are joined in addition to realtime.rooms; duplicates and blank
// names are skipped.
func ConfigFrom(cfg *config.ConsoleConfig, extraRooms ...string) Config {
	rt := cfg.Realtime

	rooms := slices.Clone(rt.Rooms)
	for _, room := range extraRooms {
		room = strings.TrimSpace(room)
		if room != "" && !slices.Contains(rooms, room) {
			rooms = append(rooms, room)
		}
	}

	return Config{
		Connection: connection.ManagerConfig{
			URL:                  rt.URL,
			MaxReconnectAttempts: rt.MaxReconnectAttempts,
			ReconnectDelay:       rt.ReconnectDelay,
			PingInterval:         rt.PingInterval,
			PingTimeout:          rt.PingTimeout,
			WriteTimeout:         rt.WriteTimeout,
			HandshakeTimeout:     rt.HandshakeTimeout,
			MessageBufferSize:    rt.BufferSize,
		},
		Rooms:            rooms,
		MaxNotifications: cfg.Notifications.MaxEntries,
	}
}
