package connection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rickgao/supportdesk/internal/model"
)

// JoinRoom asks the server to add this connection to room. When not
// connected it logs an error and does nothing; requests are never queued.
func (m *Manager) JoinRoom(room string) {
	err := m.Emit(model.EventJoin, model.RoomRequest{Room: room})
	switch {
	case errors.Is(err, ErrNotConnected):
		m.logger.Error("cannot join room: realtime not connected", "room", room)
	case err != nil:
		m.logger.Error("failed to send join request", "room", room, "error", err)
	default:
		m.logger.Info("joined room", "room", room)
	}
}

// LeaveRoom asks the server to remove this connection from room. It is
// silently ignored when not connected.
func (m *Manager) LeaveRoom(room string) {
	err := m.Emit(model.EventLeave, model.RoomRequest{Room: room})
	if err != nil && !errors.Is(err, ErrNotConnected) {
		m.logger.Warn("failed to send leave request", "room", room, "error", err)
	}
}

// Emit sends event with payload over the live connection. It returns
// ErrNotConnected unless the manager is Connected.
func (m *Manager) Emit(event string, payload any) error {
	client := m.liveClient()
	if client == nil {
		return ErrNotConnected
	}
	return send(client, event, payload)
}

func send(client Client, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}

	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", event, err)
	}

	return client.Send(frame)
}
