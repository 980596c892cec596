// Package devserver is a minimal in-memory implementation of the chat
// backend this client speaks: the room-directory REST surface plus the
// room-scoped WebSocket endpoint. It backs the integration tests and the
// tools/devserver binary; it is not a production server.
package devserver

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/collectiveminds/chatkit/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server holds the in-memory backend state.
type Server struct {
	mu      sync.Mutex
	rooms   map[string]domain.RoomDetails
	history map[string][]domain.HistoryMessage
	users   map[string]domain.User
	conns   map[string]map[*websocket.Conn]bool
}

// New creates an empty Server.
func New() *Server {
	return &Server{
		rooms:   make(map[string]domain.RoomDetails),
		history: make(map[string][]domain.HistoryMessage),
		users:   make(map[string]domain.User),
		conns:   make(map[string]map[*websocket.Conn]bool),
	}
}

// Handler returns the backend's HTTP surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /rooms", s.listRooms)
	mux.HandleFunc("POST /rooms", s.createRoom)
	mux.HandleFunc("POST /rooms/join", s.joinRoom)
	mux.HandleFunc("GET /rooms/{id}", s.roomDetails)
	mux.HandleFunc("GET /users", s.listUsers)
	mux.HandleFunc("GET /ws/{room}/{user}", s.serveWS)
	return mux
}

// AddUser registers a user in the directory.
func (s *Server) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddRoom registers a room without going through the REST surface.
func (s *Server) AddRoom(r domain.RoomDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

// SetHistory replaces a room's history snapshot.
func (s *Server) SetHistory(roomID string, msgs []domain.HistoryMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[roomID] = msgs
}

// Broadcast sends one raw frame to every connection in a room. Frames are
// passed through verbatim, so tests can exercise bare-text and legacy
// payload shapes.
func (s *Server) Broadcast(roomID string, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns[roomID] {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		conn.WriteMessage(websocket.TextMessage, frame)
	}
}

// DropConnections closes every connection in a room without a close
// handshake, which clients see as an unclean close.
func (s *Server) DropConnections(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns[roomID] {
		conn.Close()
	}
	s.conns[roomID] = make(map[*websocket.Conn]bool)
}

// ConnectionCount returns the number of live connections in a room.
func (s *Server) ConnectionCount(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns[roomID])
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rooms := make([]domain.Room, 0, len(s.rooms))
	for _, rm := range s.rooms {
		rooms = append(rooms, rm.Room)
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rooms)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RoomName  string `json:"room_name"`
		Topic     string `json:"topic"`
		CreatedBy string `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RoomName == "" {
		http.Error(w, `{"error":"room_name required"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	// Re-creating an existing room is a no-op returning the original.
	for _, rm := range s.rooms {
		if rm.Name == body.RoomName {
			s.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(rm.Room)
			return
		}
	}
	room := domain.RoomDetails{Room: domain.Room{
		ID:        uuid.NewString(),
		Name:      body.RoomName,
		Topic:     body.Topic,
		CreatedBy: body.CreatedBy,
	}}
	s.rooms[room.ID] = room
	s.mu.Unlock()

	log.Printf("devserver: room created: %s", body.RoomName)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(room.Room)
}

func (s *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RoomID string `json:"room_id"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RoomID == "" {
		http.Error(w, `{"error":"room_id required"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	resp := domain.JoinResponse{Success: true, History: s.history[body.RoomID]}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) roomDetails(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	room, ok := s.rooms[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, `{"error":"room not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(room)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	userID := r.PathValue("user")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("devserver: ws upgrade: %v", err)
		return
	}

	s.mu.Lock()
	if s.conns[roomID] == nil {
		s.conns[roomID] = make(map[*websocket.Conn]bool)
	}
	s.conns[roomID][conn] = true
	s.mu.Unlock()

	log.Printf("devserver: %s connected to room %s", userID, roomID)
	go s.readLoop(roomID, userID, conn)
}

func (s *Server) readLoop(roomID, userID string, conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns[roomID], conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var in struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(data, &in); err != nil || in.Type != "message" {
			continue
		}

		ts := time.Now().UTC().Format(time.RFC3339)
		s.mu.Lock()
		s.history[roomID] = append(s.history[roomID], domain.HistoryMessage{
			Sender:    userID,
			Content:   in.Content,
			Timestamp: ts,
		})
		s.mu.Unlock()

		out, err := json.Marshal(map[string]string{
			"type":      "message",
			"content":   in.Content,
			"username":  userID,
			"timestamp": ts,
		})
		if err != nil {
			continue
		}
		s.Broadcast(roomID, out)
	}
}
