// Package events publishes attempt lifecycle events to a RabbitMQ topic
// exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/rabbitmq/amqp091-go"
)

const (
	AttemptStarted   = "attempt.started"
	AttemptCompleted = "attempt.completed"
)

type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type AttemptStartedPayload struct {
	AttemptID string    `json:"attempt_id"`
	UserID    string    `json:"user_id"`
	QuizID    string    `json:"quiz_id"`
	StartTime time.Time `json:"start_time"`
}

type AttemptCompletedPayload struct {
	AttemptID string                `json:"attempt_id"`
	UserID    string                `json:"user_id"`
	QuizID    string                `json:"quiz_id"`
	Results   models.AttemptResults `json:"results"`
}

// channel is the part of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  channel
	exchange string
	enabled  bool
}

// NewPublisher connects and declares the durable topic exchange. An empty URI
// returns a disabled publisher that only logs.
func NewPublisher(rabbitURI, exchange string) (*Publisher, error) {
	if rabbitURI == "" {
		log.Println("⚠️ RABBITMQ_URI is empty, event publishing is disabled")
		return &Publisher{exchange: exchange}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Printf("✅ Event publisher initialized with exchange: %s", exchange)
	return &Publisher{conn: conn, channel: ch, exchange: exchange, enabled: true}, nil
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	if !p.enabled {
		return nil
	}

	event := Event{Type: routingKey, OccurredAt: time.Now().UTC(), Payload: payload}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
		Headers:      amqp091.Table{"event_type": routingKey},
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *Publisher) AttemptStarted(ctx context.Context, attempt *models.Attempt) {
	err := p.Publish(ctx, AttemptStarted, AttemptStartedPayload{
		AttemptID: attempt.ID.String(),
		UserID:    attempt.UserID.String(),
		QuizID:    attempt.QuizID.String(),
		StartTime: attempt.StartTime,
	})
	if err != nil {
		log.Printf("🔥 Failed to publish %s for attempt %s: %v", AttemptStarted, attempt.ID, err)
	}
}

func (p *Publisher) AttemptCompleted(ctx context.Context, attempt *models.Attempt, results models.AttemptResults) {
	err := p.Publish(ctx, AttemptCompleted, AttemptCompletedPayload{
		AttemptID: attempt.ID.String(),
		UserID:    attempt.UserID.String(),
		QuizID:    attempt.QuizID.String(),
		Results:   results,
	})
	if err != nil {
		log.Printf("🔥 Failed to publish %s for attempt %s: %v", AttemptCompleted, attempt.ID, err)
	}
}

func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		log.Printf("Error closing RabbitMQ channel: %v", err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}
