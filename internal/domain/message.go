package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnknownSender is used for inbound frames that carry no sender identity.
const UnknownSender = "unknown"

// User identifies a message sender.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// NamedUser synthesizes a User from a bare sender name. History payloads
// carry only a name string, so the name doubles as the id.
func NamedUser(name string) User {
	if name == "" {
		name = UnknownSender
	}
	return User{ID: name, Name: name}
}

// ChatMessage is one delivered or sent chat utterance. Messages are never
// mutated after creation and never removed from a timeline.
type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    User      `json:"sender"`
	RoomID    string    `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewID returns a fresh client-generated message id.
func NewID() string {
	return uuid.NewString()
}

// NewLocalMessage builds an optimistic message originated by the local user.
func NewLocalMessage(roomID, content string, sender User) ChatMessage {
	now := time.Now().UTC()
	return ChatMessage{
		ID:        NewID(),
		Content:   content,
		Sender:    sender,
		RoomID:    roomID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Room is a named conversation channel.
type Room struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Topic     string `json:"topic,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

// RoomDetails extends Room with optional markdown documentation.
type RoomDetails struct {
	Room
	Documentation string `json:"documentation,omitempty"`
}
