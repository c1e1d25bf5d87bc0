package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"standardizer/internal/domain"
)

// MessageType — тип события.
type MessageType string

// Типы событий.
const (
	MessageTypeBatchCompleted MessageType = "batch.completed"
)

// Message — конверт события.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// BatchCompletedPayload — payload события о завершённом батче.
type BatchCompletedPayload struct {
	BatchID      string `json:"batch_id"`
	Total        int    `json:"total"`
	Standardized int    `json:"standardized"`
	Failed       int    `json:"failed"`
}

// Publisher публикует события стандартизации.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// PublishBatchCompleted публикует событие о завершённом батче.
func (p *Publisher) PublishBatchCompleted(ctx context.Context, result domain.BatchResult) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeBatchCompleted,
		Payload: BatchCompletedPayload{
			BatchID:      result.BatchID,
			Total:        result.Total,
			Standardized: result.Standardized,
			Failed:       result.Failed,
		},
		Timestamp: time.Now(),
	}
	return p.publish(ctx, ExchangeBatches, RoutingKeyCompleted, msg)
}

func (p *Publisher) publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published event",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}
