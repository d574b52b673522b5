package websocket

import (
	"context"
	"log"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

type Notification struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type delivery struct {
	userID       uuid.UUID
	notification Notification
}

// Hub fans notifications out to every open connection of a user. All
// bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[uuid.UUID]map[Conn]struct{}
	register   chan *Client
	unregister chan *Client
	deliveries chan delivery
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[Conn]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for conn := range conns {
					conn.Close()
				}
			}
			return
		case client := <-h.register:
			log.Printf("Client registered: %s", client.UserID)
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[Conn]struct{})
			}
			h.clients[client.UserID][client.Conn] = struct{}{}
		case client := <-h.unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			h.remove(client.UserID, client.Conn)
		case d := <-h.deliveries:
			for conn := range h.clients[d.userID] {
				if err := conn.WriteJSON(d.notification); err != nil {
					log.Printf("Error sending %s to client %s: %v", d.notification.Type, d.userID, err)
					conn.Close()
					h.remove(d.userID, conn)
				}
			}
		}
	}
}

func (h *Hub) remove(userID uuid.UUID, conn Conn) {
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// NotifyUser queues a notification. When the queue is full the notification
// is dropped rather than blocking the caller.
func (h *Hub) NotifyUser(userID uuid.UUID, event string, payload interface{}) {
	select {
	case h.deliveries <- delivery{userID: userID, notification: Notification{Type: event, Payload: payload}}:
	default:
		log.Printf("⚠️ Notification queue full, dropping %s for user %s", event, userID)
	}
}

func (h *Hub) AttemptStarted(ctx context.Context, attempt *models.Attempt) {
	h.NotifyUser(attempt.UserID, "attempt_started", fiber.Map{
		"attempt_id": attempt.ID,
		"quiz_id":    attempt.QuizID,
	})
}

func (h *Hub) AttemptCompleted(ctx context.Context, attempt *models.Attempt, results models.AttemptResults) {
	h.NotifyUser(attempt.UserID, "attempt_completed", fiber.Map{
		"attempt_id": attempt.ID,
		"quiz_id":    attempt.QuizID,
		"results":    results,
	})
}
