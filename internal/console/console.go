package console

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rickgao/supportdesk/internal/auth"
	"github.com/rickgao/supportdesk/internal/connection"
	"github.com/rickgao/supportdesk/internal/model"
	"github.com/rickgao/supportdesk/internal/notification"
	"github.com/rickgao/supportdesk/internal/router"
)

// Config configures a Console.
type Config struct {
	Connection       connection.ManagerConfig
	Rooms            []string // Joined on every connect
	MaxNotifications int
}

// Option configures a Console.
type Option func(*options)

type options struct {
	clock    notification.Clock
	connOpts []connection.Option
}

// WithClock overrides the arrival clock used for derived notifications.
func WithClock(clock notification.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithConnectionOptions passes options through to the connection manager.
func WithConnectionOptions(opts ...connection.Option) Option {
	return func(o *options) {
		o.connOpts = append(o.connOpts, opts...)
	}
}

// Status is a point-in-time view of the session.
type Status struct {
	State         string    `json:"state"`
	Connected     bool      `json:"connected"`
	Attempts      int       `json:"attempts"`
	Notifications int       `json:"notifications"`
	Unread        int       `json:"unread"`
	LastError     string    `json:"last_error,omitempty"`
	LastErrorAt   time.Time `json:"last_error_at,omitzero"`
}

// Console is one agent's realtime session.
type Console struct {
	provider auth.Provider
	rooms    []string
	clock    notification.Clock
	logger   *slog.Logger

	router *router.Router
	store  *notification.Store
	conn   *connection.Manager

	mu        sync.Mutex
	unbind    func()
	lifecycle []*router.Listener
	lastErr   string
	lastErrAt time.Time
}

// New creates a Console. Nothing connects until Initialize is called.
func New(cfg Config, provider auth.Provider, logger *slog.Logger, opts ...Option) *Console {
	if logger == nil {
		logger = slog.Default()
	}

	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	r := router.New(logger.With("component", "router"))
	c := &Console{
		provider: provider,
		rooms:    slices.Clone(cfg.Rooms),
		clock:    o.clock,
		logger:   logger,
		router:   r,
		store:    notification.NewStore(cfg.MaxNotifications, logger.With("component", "notifications")),
	}
	c.conn = connection.NewManager(cfg.Connection, r, logger.With("component", "connection"), o.connOpts...)
	return c
}

// Initialize connects to the server with the provider's token. Without a
// token it logs an error and does nothing. Handlers are bound once, so
// repeated calls never duplicate notifications.
func (c *Console) Initialize() {
	token := ""
	if c.provider != nil {
		token = c.provider.Token()
	}
	if token == "" {
		c.logger.Error("cannot initialize realtime: no auth token")
		return
	}

	c.bind()
	c.conn.Connect(token)
}

// Disconnect closes the realtime connection. Bindings stay in place so a
// later Initialize resumes with the same store.
func (c *Console) Disconnect() {
	c.conn.Disconnect()
}

// Reconnect drops the current connection and connects again with the
// provider's current token, e.g. after the token was rotated.
func (c *Console) Reconnect() {
	c.conn.Disconnect()
	c.Initialize()
}

// Close disconnects and removes every handler the console registered.
func (c *Console) Close() {
	c.conn.Disconnect()

	c.mu.Lock()
	unbind := c.unbind
	lifecycle := c.lifecycle
	c.unbind = nil
	c.lifecycle = nil
	c.mu.Unlock()

	if unbind != nil {
		unbind()
	}
	for _, l := range lifecycle {
		c.router.Off(l.Event(), l)
	}
}

// Open marks the notification read and returns the entity to navigate to.
func (c *Console) Open(id string) (notification.Ref, bool) {
	n, ok := c.store.Get(id)
	if !ok {
		return notification.Ref{}, false
	}
	c.store.MarkAsRead(id)
	return n.Ref(), true
}

// Status returns the current session status.
func (c *Console) Status() Status {
	c.mu.Lock()
	lastErr, lastErrAt := c.lastErr, c.lastErrAt
	c.mu.Unlock()

	state := c.conn.State()
	return Status{
		State:         state.String(),
		Connected:     state == connection.StateConnected,
		Attempts:      c.conn.Attempts(),
		Notifications: c.store.Len(),
		Unread:        c.store.UnreadCount(),
		LastError:     lastErr,
		LastErrorAt:   lastErrAt,
	}
}

// IsConnected reports whether the realtime connection is live.
func (c *Console) IsConnected() bool {
	return c.conn.IsConnected()
}

// Router returns the event router for additional listeners.
func (c *Console) Router() *router.Router {
	return c.router
}

// Listeners returns how many handlers are registered for each of Events.
func (c *Console) Listeners() map[string]int {
	counts := make(map[string]int, len(Events))
	for _, name := range Events {
		counts[name] = c.router.Count(name)
	}
	return counts
}

// Store returns the notification store.
func (c *Console) Store() *notification.Store {
	return c.store
}

// Connection returns the connection manager.
func (c *Console) Connection() *connection.Manager {
	return c.conn
}

func (c *Console) bind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unbind != nil {
		return
	}

	c.unbind = notification.Bind(c.router, c.store, c.clock)
	c.lifecycle = []*router.Listener{
		c.router.On(connection.EventConnect, c.onConnect),
		c.router.On(connection.EventError, c.onError),
	}
}

// onConnect restores room membership after every (re)connect.
func (c *Console) onConnect(router.Event) error {
	c.mu.Lock()
	c.lastErr = ""
	c.lastErrAt = time.Time{}
	c.mu.Unlock()

	for _, room := range c.roomsToJoin() {
		c.conn.JoinRoom(room)
	}
	return nil
}

func (c *Console) onError(ev router.Event) error {
	var p connection.ErrorPayload
	if err := json.Unmarshal(ev.Data, &p); err != nil {
		return err
	}

	c.mu.Lock()
	c.lastErr = p.Message
	c.lastErrAt = ev.ReceivedAt
	c.mu.Unlock()
	return nil
}

// roomsToJoin returns the configured rooms plus the agents room for admins.
func (c *Console) roomsToJoin() []string {
	rooms := slices.Clone(c.rooms)
	if auth.IsAdmin(c.provider) && !slices.Contains(rooms, model.RoomAgents) {
		rooms = append(rooms, model.RoomAgents)
	}
	return rooms
}
