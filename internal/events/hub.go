package events

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub broadcasts domain events to connected dashboard clients (floor
// plan, kitchen board). Clients are write-only from the server's side.
type Hub struct {
	mu      sync.RWMutex
	nextID  int64
	clients map[int64]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]*websocket.Conn)}
}

func (h *Hub) Register(conn *websocket.Conn) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	h.clients[h.nextID] = conn
	return h.nextID
}

func (h *Hub) Unregister(clientID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.clients[clientID]; ok && conn != nil {
		_ = conn.Close()
		delete(h.clients, clientID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

type wsMessage struct {
	Event   string    `json:"event"`
	SentAt  time.Time `json:"sent_at"`
	Payload any       `json:"payload"`
}

// Publish implements Publisher. A client whose write fails is dropped.
func (h *Hub) Publish(event string, payload any) {
	msg := wsMessage{Event: event, SentAt: time.Now().UTC(), Payload: payload}

	h.mu.RLock()
	conns := make(map[int64]*websocket.Conn, len(h.clients))
	for id, conn := range h.clients {
		conns[id] = conn
	}
	h.mu.RUnlock()

	for id, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("ws client %d dropped: %v", id, err)
			h.Unregister(id)
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		if conn != nil {
			_ = conn.Close()
		}
		delete(h.clients, id)
	}
}
