package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// writeWait bounds how long a slow client can hold up a broadcast.
const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is the envelope pushed to websocket clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time int64       `json:"timestamp"`
}

// Hub pushes live events to websocket clients of /api/events.
type Hub struct {
	log     zerolog.Logger
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// NewHub creates an empty Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log.With().Str("component", "events").Logger(),
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends an event to every client. Clients that fail a write are dropped.
func (h *Hub) Broadcast(kind string, data interface{}) {
	msg, err := json.Marshal(Message{Type: kind, Data: data, Time: time.Now().UnixMilli()})
	if err != nil {
		h.log.Error().Err(err).Str("type", kind).Msg("failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug().Err(err).Msg("dropping websocket client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		conn.Close()
		delete(h.clients, conn)
	}
}
