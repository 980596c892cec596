package domain

import (
	"testing"
	"time"
)

func TestNormalizeStructuredFrame(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	raw := []byte(`{"type":"message","content":"hello","username":"alice","timestamp":"2025-03-01T10:00:00Z"}`)

	ev := Normalize(raw, now)
	if ev.Type != EventMessage {
		t.Errorf("type: got %q, want %q", ev.Type, EventMessage)
	}
	if ev.Content != "hello" {
		t.Errorf("content: got %q, want %q", ev.Content, "hello")
	}
	if ev.Sender != "alice" {
		t.Errorf("sender: got %q, want %q", ev.Sender, "alice")
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !ev.Timestamp.Equal(want) {
		t.Errorf("timestamp: got %v, want %v", ev.Timestamp, want)
	}
}

func TestNormalizeLegacySenderMessageFrame(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	raw := []byte(`{"sender":"bob","message":"hi there"}`)

	ev := Normalize(raw, now)
	if ev.Type != EventMessage {
		t.Errorf("type: got %q, want %q", ev.Type, EventMessage)
	}
	if ev.Sender != "bob" {
		t.Errorf("sender: got %q, want %q", ev.Sender, "bob")
	}
	if ev.Content != "hi there" {
		t.Errorf("content: got %q, want %q", ev.Content, "hi there")
	}
	if !ev.Timestamp.Equal(now) {
		t.Errorf("timestamp: got %v, want arrival time %v", ev.Timestamp, now)
	}
}

func TestNormalizeDoubleEncodedMessage(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	raw := []byte(`{"sender":"bob","message":"{\"content\":\"inner text\",\"timestamp\":\"2025-03-01T10:00:00Z\"}"}`)

	ev := Normalize(raw, now)
	if ev.Content != "inner text" {
		t.Errorf("content: got %q, want unwrapped %q", ev.Content, "inner text")
	}
	if ev.Sender != "bob" {
		t.Errorf("sender: got %q, want %q", ev.Sender, "bob")
	}
}

func TestNormalizePlainText(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	ev := Normalize([]byte("just some text"), now)

	if ev.Type != EventMessage {
		t.Errorf("type: got %q, want %q", ev.Type, EventMessage)
	}
	if ev.Content != "just some text" {
		t.Errorf("content: got %q, want raw text", ev.Content)
	}
	if ev.Sender != UnknownSender {
		t.Errorf("sender: got %q, want %q", ev.Sender, UnknownSender)
	}
	if !ev.Timestamp.Equal(now) {
		t.Errorf("timestamp: got %v, want %v", ev.Timestamp, now)
	}
}

func TestNormalizeNeverDrops(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	frames := [][]byte{
		[]byte(""),
		[]byte("{}"),
		[]byte("[1,2,3]"),
		[]byte(`"quoted"`),
		[]byte("{broken json"),
		[]byte(`{"type":"user_joined","username":"carol"}`),
		{0xff, 0xfe},
	}
	for i, raw := range frames {
		ev := Normalize(raw, now)
		if ev.Type == "" {
			t.Errorf("frame %d: empty event type", i)
		}
		if ev.Timestamp.IsZero() {
			t.Errorf("frame %d: zero timestamp", i)
		}
	}
}

func TestNormalizeBadTimestampFallsBack(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	ev := Normalize([]byte(`{"content":"x","timestamp":"yesterday"}`), now)
	if !ev.Timestamp.Equal(now) {
		t.Errorf("timestamp: got %v, want arrival time %v", ev.Timestamp, now)
	}
}

func TestUnwrapContent(t *testing.T) {
	t.Parallel()
	inner, ok := UnwrapContent(`{"content": "hello", "timestamp": "2025-03-01T10:00:00Z"}`)
	if !ok {
		t.Fatal("expected unwrap to succeed")
	}
	if inner != "hello" {
		t.Errorf("got %q, want %q", inner, "hello")
	}
}

func TestUnwrapContentPassthrough(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"plain", `{"timestamp":"x"}`, `{"content":""}`, "42", ""} {
		got, ok := UnwrapContent(s)
		if ok {
			t.Errorf("%q: unexpected unwrap", s)
		}
		if got != s {
			t.Errorf("%q: got %q, want input untouched", s, got)
		}
	}
}

func TestNewOutbound(t *testing.T) {
	t.Parallel()
	out := NewOutbound("hello")
	if out.Type != EventMessage {
		t.Errorf("type: got %q, want %q", out.Type, EventMessage)
	}
	if out.Content != "hello" {
		t.Errorf("content: got %q, want %q", out.Content, "hello")
	}
	if out.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}
