package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(zerolog.Nop())
	conn := dialHub(t, h)
	waitFor(t, func() bool { return h.Clients() == 1 })

	h.Broadcast("navigate", map[string]string{"url": "https://example.org/"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
		Time int64             `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if msg.Type != "navigate" {
		t.Errorf("type = %q, want navigate", msg.Type)
	}
	if msg.Data["url"] != "https://example.org/" {
		t.Errorf("url = %q", msg.Data["url"])
	}
	if msg.Time == 0 {
		t.Error("expected a timestamp")
	}
}

func TestHub_DropsDisconnectedClients(t *testing.T) {
	h := NewHub(zerolog.Nop())
	conn := dialHub(t, h)
	waitFor(t, func() bool { return h.Clients() == 1 })

	conn.Close()
	waitFor(t, func() bool { return h.Clients() == 0 })
}

func TestHub_Close(t *testing.T) {
	h := NewHub(zerolog.Nop())
	conn := dialHub(t, h)
	waitFor(t, func() bool { return h.Clients() == 1 })

	h.Close()

	if h.Clients() != 0 {
		t.Errorf("Clients() = %d after Close, want 0", h.Clients())
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed")
	}
}
