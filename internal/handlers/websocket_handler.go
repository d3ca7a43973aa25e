package handlers

import (
	"github.com/gofiber/websocket/v2"
	"github.com/pjt3591oo/chat-go/internal/handlers/ws"
)

type WebSocketHandler struct {
	hub *ws.Hub
}

func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

// HandleWebSocket keeps the socket registered for notification fan-out until
// the client goes away. The socket is push-only: clients send and read over
// REST, inbound frames are drained and ignored.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		c.Close()
		return
	}

	h.hub.Register(userID, c)
	defer h.hub.Unregister(userID, c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
