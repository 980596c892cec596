// Package transport maintains one bidirectional connection to a room's
// event stream, shielding callers from connection churn. Unclean closes are
// retried with exponential backoff; a clean Disconnect never reconnects.
package transport

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/collectiveminds/chatkit/internal/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	defaultHandshakeTimeout = 10 * time.Second
	defaultBaseDelay        = time.Second
	defaultMaxAttempts      = 5
)

// Config holds the connection parameters for one Transport.
type Config struct {
	// URL is the ws:// or wss:// endpoint for one room.
	URL string

	// HandshakeTimeout bounds the dial. Zero means 10s.
	HandshakeTimeout time.Duration

	// BaseDelay is the first reconnect delay; attempt n waits
	// BaseDelay * 2^(n-1). Zero means 1s.
	BaseDelay time.Duration

	// MaxAttempts bounds reconnection. Zero means 5.
	MaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	return c
}

// Callbacks receive transport lifecycle and message events. Nil callbacks
// are skipped. Callbacks run on the transport's goroutines; receivers own
// any synchronization.
type Callbacks struct {
	OnMessage    func(domain.Event)
	OnConnect    func()
	OnDisconnect func()
	OnError      func(error)
}

// Transport is a reconnection-aware WebSocket connection to one room.
type Transport struct {
	cfg    Config
	cb     Callbacks
	dialer *websocket.Dialer

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
	attempts   int
	closed     bool
}

// New creates a Transport for the given endpoint. No connection is made
// until Connect.
func New(cfg Config, cb Callbacks) *Transport {
	cfg = cfg.withDefaults()
	return &Transport{
		cfg: cfg,
		cb:  cb,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Connect initiates the handshake. It is idempotent: a no-op while a dial
// is in flight or a connection is open.
func (t *Transport) Connect() {
	t.mu.Lock()
	if t.connecting || t.conn != nil {
		t.mu.Unlock()
		return
	}
	t.connecting = true
	t.mu.Unlock()

	go t.dial()
}

func (t *Transport) dial() {
	log.Printf("transport: connecting to %s", t.cfg.URL)
	conn, _, err := t.dialer.Dial(t.cfg.URL, nil)
	if err != nil {
		log.Printf("transport: dial %s: %v", t.cfg.URL, err)
		t.mu.Lock()
		t.connecting = false
		t.mu.Unlock()
		if t.cb.OnError != nil {
			t.cb.OnError(err)
		}
		t.scheduleReconnect()
		return
	}

	t.mu.Lock()
	if t.closed {
		// Disconnect raced the handshake; drop the fresh connection.
		t.connecting = false
		t.mu.Unlock()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		return
	}
	t.conn = conn
	t.connecting = false
	t.attempts = 0
	t.mu.Unlock()

	log.Printf("transport: connected to %s", t.cfg.URL)
	if t.cb.OnConnect != nil {
		t.cb.OnConnect()
	}
	go t.readLoop(conn)
}

func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.handleClose(conn, err)
			return
		}
		ev := domain.Normalize(data, time.Now().UTC())
		if t.cb.OnMessage != nil {
			t.cb.OnMessage(ev)
		}
	}
}

func (t *Transport) handleClose(conn *websocket.Conn, err error) {
	conn.Close()

	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	clean := t.closed || websocket.IsCloseError(err, websocket.CloseNormalClosure)
	t.mu.Unlock()

	log.Printf("transport: disconnected from %s: %v", t.cfg.URL, err)
	if t.cb.OnDisconnect != nil {
		t.cb.OnDisconnect()
	}
	if !clean {
		if t.cb.OnError != nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway) {
			t.cb.OnError(err)
		}
		t.scheduleReconnect()
	}
}

func (t *Transport) scheduleReconnect() {
	t.mu.Lock()
	if t.attempts >= t.cfg.MaxAttempts {
		t.mu.Unlock()
		log.Printf("transport: giving up on %s after %d attempts", t.cfg.URL, t.cfg.MaxAttempts)
		return
	}
	t.attempts++
	attempt := t.attempts
	delay := t.cfg.BaseDelay << (attempt - 1)
	t.mu.Unlock()

	log.Printf("transport: reconnect attempt %d/%d in %s", attempt, t.cfg.MaxAttempts, delay)
	time.AfterFunc(delay, func() {
		t.mu.Lock()
		abandoned := t.closed || t.attempts > t.cfg.MaxAttempts
		t.mu.Unlock()
		if abandoned {
			return
		}
		t.Connect()
	})
}

// SendMessage transmits chat text as an outbound frame. It reports false,
// without blocking on delivery, when the socket is not open or the write
// fails; the caller owns any retry decision.
func (t *Transport) SendMessage(content string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		log.Printf("transport: not connected, dropping send")
		return false
	}

	data, err := domain.Encode(domain.NewOutbound(content))
	if err != nil {
		return false
	}
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("transport: send: %v", err)
		return false
	}
	return true
}

// Disconnect performs a clean close and permanently disables reconnection
// for this Transport.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.closed = true
	// Exhaust the retry budget so a pending timer cannot reconnect.
	t.attempts = t.cfg.MaxAttempts
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		log.Printf("transport: disconnecting from %s", t.cfg.URL)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
}

// IsConnected reports whether the socket is open right now. It is false
// during handshakes and reconnection waits.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil && !t.connecting
}
