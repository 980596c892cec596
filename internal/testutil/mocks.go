package testutil

import (
	"context"
	"sync"

	"github.com/collectiveminds/chatkit/internal/domain"
	"github.com/collectiveminds/chatkit/internal/transport"
)

// MockTransport implements session.Transport for testing. Tests drive the
// connection state through Open, Drop, and Deliver; callbacks always fire
// from the test goroutine, never from inside the interface methods.
type MockTransport struct {
	mu              sync.Mutex
	cb              transport.Callbacks
	open            bool
	sent            []string
	SendOK          bool
	connectCalls    int
	disconnectCalls int
}

// NewMockTransport creates a MockTransport wired to the given callbacks.
func NewMockTransport(cb transport.Callbacks) *MockTransport {
	return &MockTransport{cb: cb, SendOK: true}
}

// Connect records the call; the connection opens only via Open.
func (m *MockTransport) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
}

// SendMessage records content when the mock is open and sends are allowed.
func (m *MockTransport) SendMessage(content string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || !m.SendOK {
		return false
	}
	m.sent = append(m.sent, content)
	return true
}

// Disconnect marks the mock closed without firing callbacks.
func (m *MockTransport) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	m.disconnectCalls++
}

// IsConnected reports the mock's open flag.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Open marks the mock connected and fires OnConnect.
func (m *MockTransport) Open() {
	m.mu.Lock()
	m.open = true
	m.mu.Unlock()
	if m.cb.OnConnect != nil {
		m.cb.OnConnect()
	}
}

// Drop marks the mock disconnected and fires OnDisconnect.
func (m *MockTransport) Drop() {
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
	if m.cb.OnDisconnect != nil {
		m.cb.OnDisconnect()
	}
}

// Deliver fires OnMessage with the given event.
func (m *MockTransport) Deliver(ev domain.Event) {
	if m.cb.OnMessage != nil {
		m.cb.OnMessage(ev)
	}
}

// Sent returns a copy of everything sent through the mock.
func (m *MockTransport) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

// ConnectCalls returns how many times Connect was called.
func (m *MockTransport) ConnectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls
}

// DisconnectCalls returns how many times Disconnect was called.
func (m *MockTransport) DisconnectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnectCalls
}

// MockDirectory implements session.Directory for testing.
type MockDirectory struct {
	mu sync.Mutex

	// History holds the per-room history returned by JoinRoom.
	History map[string][]domain.HistoryMessage
	// JoinErr, when set, fails every JoinRoom call.
	JoinErr error
	// CreateErr, when set, fails every CreateRoom call.
	CreateErr error
	// Gate, when set for a room, blocks that room's JoinRoom until the
	// channel is closed or the context ends.
	Gate map[string]chan struct{}
	// Started, when set for a room, receives one signal as that room's
	// JoinRoom begins, before any gating.
	Started map[string]chan struct{}

	joined  []string
	created []string
}

// NewMockDirectory creates an empty MockDirectory.
func NewMockDirectory() *MockDirectory {
	return &MockDirectory{
		History: make(map[string][]domain.HistoryMessage),
		Gate:    make(map[string]chan struct{}),
		Started: make(map[string]chan struct{}),
	}
}

// JoinRoom records the join and returns the room's configured history.
func (d *MockDirectory) JoinRoom(ctx context.Context, roomID, userID string) (domain.JoinResponse, error) {
	d.mu.Lock()
	gate := d.Gate[roomID]
	started := d.Started[roomID]
	d.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.JoinResponse{}, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.joined = append(d.joined, roomID)
	if d.JoinErr != nil {
		return domain.JoinResponse{}, d.JoinErr
	}
	return domain.JoinResponse{Success: true, History: d.History[roomID]}, nil
}

// CreateRoom records the creation.
func (d *MockDirectory) CreateRoom(ctx context.Context, name, topic, createdBy string) (domain.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.created = append(d.created, name)
	if d.CreateErr != nil {
		return domain.Room{}, d.CreateErr
	}
	return domain.Room{ID: name, Name: name, Topic: topic, CreatedBy: createdBy}, nil
}

// Joined returns the rooms joined so far, in order.
func (d *MockDirectory) Joined() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.joined))
	copy(out, d.joined)
	return out
}
