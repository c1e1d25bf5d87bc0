package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Топология событий стандартизации.
const (
	ExchangeBatches Exchange = "standardizer.batches"

	QueueBatchesCompleted Queue = "batches.completed"

	RoutingKeyCompleted RoutingKey = "completed"
)

// SetupTopology объявляет exchange, очередь и binding событий.
// Идемпотентна: повторное объявление существующей топологии — no-op.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeBatches),
			"direct",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeBatches, err)
		}

		_, err = ch.QueueDeclare(
			string(QueueBatchesCompleted),
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueBatchesCompleted, err)
		}

		err = ch.QueueBind(
			string(QueueBatchesCompleted),
			string(RoutingKeyCompleted),
			string(ExchangeBatches),
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueBatchesCompleted, ExchangeBatches, err)
		}
		return nil
	})
}
