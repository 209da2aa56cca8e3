package connection

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/supportdesk/internal/version"
)

// Client is one WebSocket connection to the support backend. A Client is
// single-use: once Close is called it cannot be reconnected.
type Client interface {
	// Connect performs the authenticated handshake and starts reading.
	Connect(ctx context.Context) error

	// Close sends a normal closure and releases the socket.
	Close() error

	// Send writes one text frame.
	Send(data []byte) error

	// Messages yields inbound frames in arrival order, stamped with the
	// local receive time.
	Messages() <-chan TimestampedMessage

	// Errors yields at most one error, after every frame read before it has
	// been queued on Messages.
	Errors() <-chan error

	// IsConnected reports whether the socket is open.
	IsConnected() bool
}

// ClientFactory builds a Client for one connection attempt.
type ClientFactory func(cfg ClientConfig, logger *slog.Logger) Client

type client struct {
	cfg    ClientConfig
	logger *slog.Logger

	frames chan TimestampedMessage
	failed chan error
	done   chan struct{}

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu       sync.RWMutex
	conn     *websocket.Conn
	open     bool
	closed   bool
	lastSeen time.Time
}

// NewClient creates a gorilla-backed Client.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &client{
		cfg:    cfg,
		logger: logger,
		frames: make(chan TimestampedMessage, cfg.BufferSize),
		failed: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

func (c *client) Connect(ctx context.Context) error {
	if c.isClosed() {
		return ErrAlreadyClosed
	}
	if c.cfg.URL == "" {
		return ErrMissingURL
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, c.handshakeHeader())
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyClosed
	}
	c.conn = conn
	c.open = true
	c.lastSeen = time.Now()
	c.mu.Unlock()

	conn.SetPingHandler(func(data string) error {
		c.touch()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	go c.readLoop(conn)
	if c.cfg.PingInterval > 0 {
		go c.keepalive(conn)
	}

	c.logger.Debug("websocket connected", "url", c.cfg.URL)
	return nil
}

// handshakeHeader carries the bearer token and the per-dial session ID.
func (c *client) handshakeHeader() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("User-Agent", version.UserAgent())
	if c.cfg.SessionID != "" {
		h.Set("X-Client-Session", c.cfg.SessionID)
	}
	if c.cfg.Token == "" {
		c.logger.Warn("connecting without a token, the server will likely reject it")
		return h
	}
	h.Set("Authorization", "Bearer "+c.cfg.Token)
	return h
}

func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.open = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	return conn.Close()
}

func (c *client) Send(data []byte) error {
	c.mu.RLock()
	conn, open := c.conn, c.open
	c.mu.RUnlock()
	if !open {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) Messages() <-chan TimestampedMessage { return c.frames }

func (c *client) Errors() <-chan error { return c.failed }

func (c *client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// readLoop delivers frames until the socket errors or the client is closed.
// Delivery blocks while the buffer is full so no frame is lost; a stalled
// consumer eventually trips stale detection instead.
func (c *client) readLoop(conn *websocket.Conn) {
	defer c.setOpen(false)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				c.reportError(err)
			}
			return
		}

		select {
		case c.frames <- TimestampedMessage{Data: data, ReceivedAt: time.Now()}:
		case <-c.done:
			return
		}
	}
}

// keepalive pings on every tick and reports ErrStaleConnection once nothing
// has been heard from the server for PingTimeout.
func (c *client) keepalive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		c.writeMu.Lock()
		err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), time.Now().Add(c.cfg.WriteTimeout))
		c.writeMu.Unlock()
		if err != nil {
			c.logger.Debug("failed to send ping", "error", err)
		}

		if c.cfg.PingTimeout <= 0 {
			continue
		}
		if idle := time.Since(c.seen()); idle > c.cfg.PingTimeout {
			c.logger.Warn("no ping received, connection stale", "idle", idle, "timeout", c.cfg.PingTimeout)
			c.reportError(ErrStaleConnection)
			return
		}
	}
}

func (c *client) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *client) seen() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSeen
}

func (c *client) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func (c *client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// reportError publishes err without blocking; only the first error is kept.
func (c *client) reportError(err error) {
	select {
	case c.failed <- err:
	default:
	}
}
