package domain

import (
	"testing"
	"time"
)

func TestHistoryMessageConversion(t *testing.T) {
	t.Parallel()
	h := HistoryMessage{
		Sender:    "alice",
		Content:   "hi",
		Timestamp: "2025-03-01T10:00:00Z",
	}
	msg := h.ChatMessage("room-1")

	if msg.Content != "hi" {
		t.Errorf("content: got %q, want %q", msg.Content, "hi")
	}
	if msg.Sender.Name != "alice" || msg.Sender.ID != "alice" {
		t.Errorf("sender: got %+v, want name and id alice", msg.Sender)
	}
	if msg.RoomID != "room-1" {
		t.Errorf("room: got %q, want %q", msg.RoomID, "room-1")
	}
	if msg.ID == "" {
		t.Error("expected a generated id")
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !msg.CreatedAt.Equal(want) {
		t.Errorf("created at: got %v, want %v", msg.CreatedAt, want)
	}
}

func TestHistoryMessageUnwrapsDoubleEncoding(t *testing.T) {
	t.Parallel()
	h := HistoryMessage{
		Sender:    "bob",
		Content:   `{"content": "hello", "timestamp": "2025-03-01T10:00:00Z"}`,
		Timestamp: "2025-03-01T10:00:00Z",
	}
	msg := h.ChatMessage("room-1")
	if msg.Content != "hello" {
		t.Errorf("content: got %q, want unwrapped %q", msg.Content, "hello")
	}
}

func TestHistoryMessageBadTimestamp(t *testing.T) {
	t.Parallel()
	h := HistoryMessage{Sender: "bob", Content: "x", Timestamp: "not a time"}
	msg := h.ChatMessage("room-1")
	if msg.CreatedAt.IsZero() {
		t.Error("expected fallback timestamp, got zero")
	}
}

func TestHistoryMessageEmptySender(t *testing.T) {
	t.Parallel()
	h := HistoryMessage{Content: "x", Timestamp: "2025-03-01T10:00:00Z"}
	msg := h.ChatMessage("room-1")
	if msg.Sender.Name != UnknownSender {
		t.Errorf("sender: got %q, want %q", msg.Sender.Name, UnknownSender)
	}
}

func TestNewLocalMessage(t *testing.T) {
	t.Parallel()
	sender := User{ID: "u1", Name: "alice", Online: true}
	msg := NewLocalMessage("room-1", "hello", sender)

	if msg.ID == "" {
		t.Error("expected a generated id")
	}
	if msg.Content != "hello" {
		t.Errorf("content: got %q, want %q", msg.Content, "hello")
	}
	if msg.Sender != sender {
		t.Errorf("sender: got %+v, want %+v", msg.Sender, sender)
	}
	if msg.RoomID != "room-1" {
		t.Errorf("room: got %q, want %q", msg.RoomID, "room-1")
	}
	if msg.CreatedAt.IsZero() || !msg.CreatedAt.Equal(msg.UpdatedAt) {
		t.Error("expected matching created/updated timestamps")
	}
}

func TestNewIDUnique(t *testing.T) {
	t.Parallel()
	if NewID() == NewID() {
		t.Error("expected distinct ids")
	}
}
