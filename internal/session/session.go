// Package session reconciles the three message sources of a chat room
// (REST history fetched at join time, locally originated optimistic sends,
// and live transport events) into one append-only timeline per room. It is
// the single writer of that state; presentation layers only read.
package session

import (
	"context"
	"log"
	"sync"

	"github.com/collectiveminds/chatkit/internal/domain"
	"github.com/collectiveminds/chatkit/internal/transport"
)

// Transport is the live-connection surface the session drives. Satisfied by
// *transport.Transport.
type Transport interface {
	Connect()
	SendMessage(content string) bool
	Disconnect()
	IsConnected() bool
}

// Directory is the subset of the room-directory client the session uses.
type Directory interface {
	JoinRoom(ctx context.Context, roomID, userID string) (domain.JoinResponse, error)
	CreateRoom(ctx context.Context, name, topic, createdBy string) (domain.Room, error)
}

// TransportFactory opens a Transport for one room with the given callbacks.
type TransportFactory func(roomID string, cb transport.Callbacks) Transport

// Session owns the per-room timelines and the single live Transport.
// Connecting to a new room tears down the previous Transport first; at most
// one is alive at a time.
type Session struct {
	dir  Directory
	user domain.User
	dial TransportFactory

	// UpdateFunc, when set before the first ConnectToRoom, is invoked with
	// the room id after every timeline or connection-state change.
	UpdateFunc func(roomID string)

	mu        sync.RWMutex
	timelines map[string][]domain.ChatMessage
	seeded    map[string]bool
	current   Transport
	room      string
	gen       int
	connected bool
}

// New creates a Session for the given user.
func New(dir Directory, username string, dial TransportFactory) *Session {
	return &Session{
		dir:       dir,
		user:      domain.User{ID: username, Name: username, Online: true},
		dial:      dial,
		timelines: make(map[string][]domain.ChatMessage),
		seeded:    make(map[string]bool),
	}
}

// ConnectToRoom joins roomID and opens its live connection. Any previous
// room's Transport is torn down first. The REST join is advisory: a failed
// join is logged and the socket is opened anyway. History returned by the
// join seeds the room's timeline once; a later rejoin never reseeds, so the
// timeline only ever grows.
func (s *Session) ConnectToRoom(ctx context.Context, roomID string) {
	s.mu.Lock()
	if s.current != nil {
		s.current.Disconnect()
		s.current = nil
		s.connected = false
	}
	s.gen++
	gen := s.gen
	s.room = roomID
	s.mu.Unlock()

	// Best-effort create-then-join; demo backends may reject either call
	// yet still accept the socket.
	if _, err := s.dir.CreateRoom(ctx, roomID, "", s.user.Name); err != nil {
		log.Printf("session: create room %s: %v (continuing)", roomID, err)
	}
	resp, err := s.dir.JoinRoom(ctx, roomID, s.user.ID)
	if err != nil {
		log.Printf("session: join room %s: %v (continuing)", roomID, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		// A newer ConnectToRoom superseded this one while the join was in
		// flight; its history must not race the new room's state.
		s.mu.Unlock()
		log.Printf("session: stale join for room %s dropped", roomID)
		return
	}
	if len(resp.History) > 0 && !s.seeded[roomID] {
		for _, h := range resp.History {
			s.timelines[roomID] = append(s.timelines[roomID], h.ChatMessage(roomID))
		}
		s.seeded[roomID] = true
	}

	t := s.dial(roomID, s.callbacks(roomID, gen))
	s.current = t
	s.mu.Unlock()

	s.notify(roomID)
	t.Connect()
}

// callbacks wires a transport for roomID. Every write is keyed by the room
// id and generation captured here, never by the current room, so events
// from a superseded transport cannot corrupt another room's state.
func (s *Session) callbacks(roomID string, gen int) transport.Callbacks {
	return transport.Callbacks{
		OnConnect: func() {
			s.mu.Lock()
			if s.gen == gen {
				s.connected = true
			}
			s.mu.Unlock()
			s.notify(roomID)
		},
		OnDisconnect: func() {
			s.mu.Lock()
			if s.gen == gen {
				s.connected = false
			}
			s.mu.Unlock()
			s.notify(roomID)
		},
		OnMessage: func(ev domain.Event) {
			if ev.Type != domain.EventMessage {
				log.Printf("session: room %s: %s %s", roomID, ev.Type, ev.Sender)
				return
			}
			msg := domain.ChatMessage{
				ID:        domain.NewID(),
				Content:   ev.Content,
				Sender:    domain.NamedUser(ev.Sender),
				RoomID:    roomID,
				CreatedAt: ev.Timestamp,
				UpdatedAt: ev.Timestamp,
			}
			s.mu.Lock()
			s.timelines[roomID] = append(s.timelines[roomID], msg)
			s.mu.Unlock()
			s.notify(roomID)
		},
		OnError: func(err error) {
			log.Printf("session: room %s: transport error: %v", roomID, err)
		},
	}
}

// DisconnectFromRoom closes the live connection. Accumulated timelines are
// kept for the rest of the session.
func (s *Session) DisconnectFromRoom() {
	s.mu.Lock()
	t := s.current
	room := s.room
	s.current = nil
	s.connected = false
	s.gen++
	s.mu.Unlock()

	if t != nil {
		t.Disconnect()
		s.notify(room)
	}
}

// SendMessage sends content to roomID. When the live connection is up the
// message is expected to round-trip back through the event path, so no
// local copy is appended. Otherwise one optimistic message is appended
// immediately so the sender always sees it.
func (s *Session) SendMessage(roomID, content string) {
	s.mu.RLock()
	t := s.current
	live := t != nil && s.room == roomID
	s.mu.RUnlock()

	if live && t.SendMessage(content) {
		return
	}

	msg := domain.NewLocalMessage(roomID, content, s.user)
	s.mu.Lock()
	s.timelines[roomID] = append(s.timelines[roomID], msg)
	s.mu.Unlock()
	log.Printf("session: room %s: queued optimistic message", roomID)
	s.notify(roomID)
}

// Messages returns a copy of the room's current timeline, oldest first.
func (s *Session) Messages(roomID string) []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.timelines[roomID]
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// Connected reports whether the live socket is open right now. It is false
// while the transport is internally retrying.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// CurrentRoom returns the id of the room the session is attached to, or ""
// before the first ConnectToRoom.
func (s *Session) CurrentRoom() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

func (s *Session) notify(roomID string) {
	if s.UpdateFunc != nil {
		s.UpdateFunc(roomID)
	}
}
