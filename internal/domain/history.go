package domain

import "time"

// HistoryMessage is one entry of the history snapshot returned by the join
// endpoint. Content may still carry the legacy double-JSON-encoding.
type HistoryMessage struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ChatMessage converts a history entry into the canonical message shape,
// unwrapping double-encoded content and synthesizing the sender identity
// from the bare sender name.
func (h HistoryMessage) ChatMessage(roomID string) ChatMessage {
	content, _ := UnwrapContent(h.Content)
	ts, err := time.Parse(time.RFC3339, h.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	return ChatMessage{
		ID:        NewID(),
		Content:   content,
		Sender:    NamedUser(h.Sender),
		RoomID:    roomID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// JoinResponse is the body returned by the join endpoint. History is
// optional; a nil slice means the backend sent none.
type JoinResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	History []HistoryMessage `json:"history,omitempty"`
}
