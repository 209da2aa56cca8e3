package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/supportdesk/internal/router"
)

// Dispatcher receives decoded inbound and lifecycle events.
type Dispatcher interface {
	Dispatch(ev router.Event) int
}

// StateObserver is called after every state transition.
type StateObserver func(from, to State)

// Option configures a Manager.
type Option func(*Manager)

// WithClientFactory replaces the gorilla/websocket client, mainly for tests.
func WithClientFactory(f ClientFactory) Option {
	return func(m *Manager) {
		m.newClient = f
	}
}

// WithStateObserver registers fn to be called on every state transition.
// Transitions are delivered one at a time in the order they happen; fn must
// not call Disconnect.
func WithStateObserver(fn StateObserver) Option {
	return func(m *Manager) {
		m.observer = fn
	}
}

// Manager owns the lifecycle of one real-time connection.
//
// Each Connect starts a session goroutine that dials, reads, and dispatches;
// all inbound events of a session are therefore dispatched sequentially.
// Disconnect cancels the session and never waits for it, so it is safe to
// call from inside an event handler.
type Manager struct {
	cfg        ManagerConfig
	dispatcher Dispatcher
	logger     *slog.Logger
	newClient  ClientFactory
	observer   StateObserver

	notifyMu sync.Mutex // Held across a state change and its notification

	mu       sync.Mutex
	state    State
	attempts int
	gen      uint64             // Incremented per session; stale sessions compare unequal
	cancel   context.CancelFunc // Non-nil while a session is active
	client   Client             // Non-nil only while Connected
}

// NewManager creates a new Connection Manager.
func NewManager(cfg ManagerConfig, dispatcher Dispatcher, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultManagerConfig()
	if cfg.MaxReconnectAttempts < 1 {
		cfg.MaxReconnectAttempts = defaults.MaxReconnectAttempts
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaults.ReconnectDelay
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if cfg.MessageBufferSize < 1 {
		cfg.MessageBufferSize = defaults.MessageBufferSize
	}

	m := &Manager{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
		newClient:  NewClient,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect starts connecting with token and returns immediately. Progress
// is observable through lifecycle events and State. Calling Connect while a
// session is active logs a warning and does nothing.
func (m *Manager) Connect(token string) {
	m.mu.Lock()
	if m.cancel != nil {
		state := m.state
		m.mu.Unlock()
		m.logger.Warn("realtime connection already active", "state", state)
		return
	}

	m.gen++
	gen := m.gen
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.attempts = 0
	m.mu.Unlock()

	go m.run(ctx, gen, token)
}

// Disconnect tears down the active session, stopping any pending
// reconnection. It is a no-op when no session is active.
func (m *Manager) Disconnect() {
	m.notifyMu.Lock()
	m.mu.Lock()
	if m.cancel == nil {
		m.mu.Unlock()
		m.notifyMu.Unlock()
		return
	}

	m.cancel()
	m.cancel = nil
	m.gen++
	client := m.client
	m.client = nil
	from := m.state
	m.state = StateDisconnected
	m.attempts = 0
	m.mu.Unlock()

	if client != nil {
		client.Close()
	}
	m.notify(from, StateDisconnected)
	m.notifyMu.Unlock()

	m.logger.Info("realtime disconnected")

	if client != nil {
		m.dispatch(EventDisconnect, nil)
	}
}

// IsConnected reports whether a live connection is established.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the number of consecutive failed connection attempts.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// run drives one session until it is cancelled or fails terminally.
func (m *Manager) run(ctx context.Context, gen uint64, token string) {
	for {
		if !m.transition(gen, StateConnecting) {
			return
		}

		sessionID := uuid.NewString()
		logger := m.logger.With("session_id", sessionID)
		client := m.newClient(m.clientConfig(token, sessionID), logger)

		err := client.Connect(ctx)
		if err == nil {
			if !m.adopt(gen, client) {
				// Disconnect won the race; the socket must not become live
				client.Close()
				return
			}

			logger.Info("realtime connected", "url", m.cfg.URL)
			m.dispatch(EventConnect, nil)

			err = m.pump(ctx, client)
			if !m.release(gen, client) || ctx.Err() != nil {
				return
			}

			logger.Warn("realtime connection lost", "error", err)
			m.dispatch(EventDisconnect, nil)

			if !m.wait(ctx, gen) {
				return
			}
			continue
		}

		client.Close()
		if ctx.Err() != nil {
			return
		}

		attempt, ok := m.recordFailure(gen)
		if !ok {
			return
		}

		logger.Error("realtime connection error",
			"error", err,
			"attempt", attempt,
			"max_attempts", m.cfg.MaxReconnectAttempts,
		)
		m.dispatch(EventError, ErrorPayload{
			Message:     err.Error(),
			Attempt:     attempt,
			MaxAttempts: m.cfg.MaxReconnectAttempts,
		})

		if attempt >= m.cfg.MaxReconnectAttempts {
			m.fail(gen)
			return
		}

		if !m.wait(ctx, gen) {
			return
		}
	}
}

// pump forwards inbound frames to the dispatcher until the connection ends.
func (m *Manager) pump(ctx context.Context, client Client) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-client.Errors():
			// The client reports its error only after queueing every frame
			// read before it, so those still belong to this connection.
			m.drain(client)
			return err
		case msg, ok := <-client.Messages():
			if !ok {
				return ErrNotConnected
			}
			m.route(msg)
		}
	}
}

// drain routes the frames still queued in client without blocking.
func (m *Manager) drain(client Client) {
	for {
		select {
		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			m.route(msg)
		default:
			return
		}
	}
}

// route decodes a frame and dispatches it by event name.
func (m *Manager) route(msg TimestampedMessage) {
	if m.dispatcher == nil {
		return
	}

	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		m.logger.Warn("failed to decode frame", "error", err, "size", len(msg.Data))
		return
	}
	if env.Event == "" {
		m.logger.Warn("frame without event name", "size", len(msg.Data))
		return
	}

	m.dispatcher.Dispatch(router.Event{
		Name:       env.Event,
		Data:       env.Data,
		ReceivedAt: msg.ReceivedAt,
	})
}

// wait sits in ReconnectPending for the configured delay.
func (m *Manager) wait(ctx context.Context, gen uint64) bool {
	if !m.transition(gen, StateReconnectPending) {
		return false
	}

	timer := time.NewTimer(m.cfg.ReconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// transition moves to state if gen is still the current session.
func (m *Manager) transition(gen uint64, to State) bool {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if gen != m.gen || m.cancel == nil {
		m.mu.Unlock()
		return false
	}
	from := m.state
	m.state = to
	m.mu.Unlock()

	m.notify(from, to)
	return true
}

// adopt makes client the live connection and resets the attempt counter.
func (m *Manager) adopt(gen uint64, client Client) bool {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if gen != m.gen || m.cancel == nil {
		m.mu.Unlock()
		return false
	}
	from := m.state
	m.state = StateConnected
	m.client = client
	m.attempts = 0
	m.mu.Unlock()

	m.notify(from, StateConnected)
	return true
}

// release drops client after its connection ended. Returns false when the
// session was superseded in the meantime.
func (m *Manager) release(gen uint64, client Client) bool {
	client.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.cancel == nil {
		return false
	}
	if m.client == client {
		m.client = nil
	}
	return true
}

// recordFailure increments the attempt counter for the current session.
func (m *Manager) recordFailure(gen uint64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.cancel == nil {
		return 0, false
	}
	m.attempts++
	return m.attempts, true
}

// fail ends the session in the terminal Failed state.
func (m *Manager) fail(gen uint64) {
	m.notifyMu.Lock()
	m.mu.Lock()
	if gen != m.gen || m.cancel == nil {
		m.mu.Unlock()
		m.notifyMu.Unlock()
		return
	}
	m.cancel()
	m.cancel = nil
	client := m.client
	m.client = nil
	from := m.state
	m.state = StateFailed
	m.mu.Unlock()

	if client != nil {
		client.Close()
	}
	m.notify(from, StateFailed)
	m.notifyMu.Unlock()

	m.logger.Error("max reconnect attempts reached, giving up",
		"max_attempts", m.cfg.MaxReconnectAttempts,
	)
}

// liveClient returns the connected client, or nil.
func (m *Manager) liveClient() Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected {
		return nil
	}
	return m.client
}

func (m *Manager) clientConfig(token, sessionID string) ClientConfig {
	return ClientConfig{
		URL:              m.cfg.URL,
		Token:            token,
		SessionID:        sessionID,
		PingInterval:     m.cfg.PingInterval,
		PingTimeout:      m.cfg.PingTimeout,
		WriteTimeout:     m.cfg.WriteTimeout,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		BufferSize:       m.cfg.MessageBufferSize,
	}
}

func (m *Manager) dispatch(name string, payload any) {
	if m.dispatcher == nil {
		return
	}

	ev := router.Event{Name: name, ReceivedAt: time.Now()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			m.logger.Warn("failed to encode lifecycle payload", "event", name, "error", err)
		} else {
			ev.Data = data
		}
	}
	m.dispatcher.Dispatch(ev)
}

func (m *Manager) notify(from, to State) {
	if from != to {
		m.logger.Debug("realtime state changed", "from", from, "to", to)
	}
	if m.observer != nil {
		m.observer(from, to)
	}
}
