package domain

import (
	"encoding/json"
	"time"
)

// Event types emitted by the transport.
const (
	EventMessage    = "message"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	EventError      = "error"
)

// Event is the normalized form of one inbound frame. Exactly one Event is
// produced per frame, whatever its shape.
type Event struct {
	Type      string
	Sender    string
	Content   string
	Timestamp time.Time
}

// Outbound is the frame shape the backend accepts.
type Outbound struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOutbound wraps chat text in the outbound frame envelope.
func NewOutbound(content string) Outbound {
	return Outbound{Type: EventMessage, Content: content, Timestamp: time.Now().UTC()}
}

// Encode serializes a value to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// wireFrame covers every inbound JSON shape the backend has been observed to
// emit: {type, content, username, timestamp} and the legacy {sender, message}
// where message may itself be a JSON-encoded {content, timestamp} envelope.
type wireFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Message   string `json:"message"`
	Sender    string `json:"sender"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

// Normalize converts one raw frame into an Event. The fallback order is
// total: a JSON object is taken as a structured event; anything else is
// plain chat text from an unknown sender stamped with now. Normalize never
// fails and never drops a frame.
func Normalize(raw []byte, now time.Time) Event {
	var f wireFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Event{
			Type:      EventMessage,
			Sender:    UnknownSender,
			Content:   string(raw),
			Timestamp: now,
		}
	}

	ev := Event{Type: f.Type, Sender: f.Username, Timestamp: now}
	if ev.Type == "" {
		ev.Type = EventMessage
	}
	if ev.Sender == "" {
		ev.Sender = f.Sender
	}
	if ev.Sender == "" {
		ev.Sender = UnknownSender
	}

	content := f.Content
	if content == "" {
		content = f.Message
	}
	ev.Content, _ = UnwrapContent(content)

	if ts, err := time.Parse(time.RFC3339, f.Timestamp); err == nil {
		ev.Timestamp = ts
	}
	return ev
}

// envelope is the legacy double-encoded content shape.
type envelope struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// UnwrapContent strips the legacy double-JSON-encoding from a content string.
// If s is itself a JSON object carrying a content field, the inner content is
// returned with ok=true; otherwise s is returned untouched.
func UnwrapContent(s string) (string, bool) {
	var e envelope
	if err := json.Unmarshal([]byte(s), &e); err != nil || e.Content == "" {
		return s, false
	}
	return e.Content, true
}
