package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Hub tracks live sockets per user. A user may hold several connections
// (multiple devices), all of which receive the same notifications.
type Hub struct {
	clients    map[uint]map[*websocket.Conn]bool
	clientsMux sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]map[*websocket.Conn]bool),
	}
}

func (h *Hub) Register(userID uint, conn *websocket.Conn) {
	h.clientsMux.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
	total := len(h.clients)
	h.clientsMux.Unlock()

	log.Printf("User %d connected to hub (users online: %d)", userID, total)
}

func (h *Hub) Unregister(userID uint, conn *websocket.Conn) {
	h.clientsMux.Lock()
	if conns, exists := h.clients[userID]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
	total := len(h.clients)
	h.clientsMux.Unlock()

	log.Printf("User %d disconnected from hub (users online: %d)", userID, total)
}

func (h *Hub) IsOnline(userID uint) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// NotifyUsers sends one payload to every live connection of the given users.
// Delivery is best effort; a dead connection is dropped and the client is
// expected to catch up over the sync endpoint.
func (h *Hub) NotifyUsers(userIDs []uint, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling notification: %v", err)
		return
	}

	type target struct {
		userID uint
		conn   *websocket.Conn
	}

	h.clientsMux.RLock()
	targets := make([]target, 0)
	for _, userID := range userIDs {
		for conn := range h.clients[userID] {
			targets = append(targets, target{userID: userID, conn: conn})
		}
	}
	h.clientsMux.RUnlock()

	for _, t := range targets {
		t.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := t.conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			log.Printf("Error notifying user %d: %v", t.userID, err)
			h.Unregister(t.userID, t.conn)
		}
	}
}
