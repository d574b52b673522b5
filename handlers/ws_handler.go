package handlers

import (
	"log"

	"github.com/anjiri1684/quizmaster/middleware"
	"github.com/anjiri1684/quizmaster/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// ServeWs expects {"type":"auth","token":...} as the first frame, then keeps
// the connection registered with the hub until the client goes away. Frames
// sent after authentication are read and discarded.
func (h *Handler) ServeWs(c *websocketcontrib.Conn) {
	var authMsg wsAuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	requester, err := middleware.ParseToken(h.Options.JWTSecret, authMsg.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid token, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}
	if err := c.WriteJSON(websocket.Notification{Type: "authenticated"}); err != nil {
		c.Close()
		return
	}

	client := &websocket.Client{UserID: requester.ID, Conn: c}
	h.Hub.Register(client)
	log.Printf("WebSocket client authenticated and registered: %s", requester.ID)
	defer func() {
		log.Printf("Unregistering client: %s", requester.ID)
		h.Hub.Unregister(client)
		c.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := c.ReadJSON(&msg); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for client %s: %v", requester.ID, err)
			} else {
				log.Printf("WebSocket read error for client %s: %v", requester.ID, err)
			}
			return
		}
	}
}
