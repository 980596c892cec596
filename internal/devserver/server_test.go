package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/collectiveminds/chatkit/internal/domain"
)

func newServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	backend := New()
	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)
	return backend, server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateRoomIdempotentByName(t *testing.T) {
	t.Parallel()
	_, server := newServer(t)

	var first, second domain.Room
	resp := postJSON(t, server.URL+"/rooms", map[string]string{"room_name": "Ethics", "topic": "Ethics"})
	json.NewDecoder(resp.Body).Decode(&first)
	resp = postJSON(t, server.URL+"/rooms", map[string]string{"room_name": "Ethics"})
	json.NewDecoder(resp.Body).Decode(&second)

	if first.ID == "" {
		t.Fatal("expected an id")
	}
	if first.ID != second.ID {
		t.Errorf("re-create: got new id %q, want existing %q", second.ID, first.ID)
	}
}

func TestJoinReturnsHistory(t *testing.T) {
	t.Parallel()
	backend, server := newServer(t)
	backend.SetHistory("r1", []domain.HistoryMessage{
		{Sender: "bob", Content: "hi", Timestamp: "2025-03-01T10:00:00Z"},
	})

	resp := postJSON(t, server.URL+"/rooms/join", map[string]string{"room_id": "r1", "userId": "alice"})
	var join domain.JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&join); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !join.Success || len(join.History) != 1 {
		t.Errorf("unexpected join response: %+v", join)
	}
}

func TestRoomDetailsNotFound(t *testing.T) {
	t.Parallel()
	_, server := newServer(t)
	resp, err := http.Get(server.URL + "/rooms/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestWSEchoAndHistoryRecording(t *testing.T) {
	t.Parallel()
	_, server := newServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/r1/alice"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	out, _ := json.Marshal(map[string]string{"type": "message", "content": "hello"})
	if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var echo map[string]string
	if err := json.Unmarshal(data, &echo); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if echo["content"] != "hello" || echo["username"] != "alice" {
		t.Errorf("unexpected echo: %v", echo)
	}

	resp := postJSON(t, server.URL+"/rooms/join", map[string]string{"room_id": "r1", "userId": "bob"})
	var join domain.JoinResponse
	json.NewDecoder(resp.Body).Decode(&join)
	if len(join.History) != 1 || join.History[0].Sender != "alice" {
		t.Errorf("history: got %+v, want the echoed message", join.History)
	}
}
