package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to RabbitMQ via the default exchange. Publishing is
// best-effort: callers log and continue, the booking flow never depends on it.
type Publisher interface {
	Publish(ctx context.Context, queueName string, event any) error
}

type AMQPPublisher struct {
	conn   *amqp.Connection
	logger *slog.Logger
}

func NewAMQPPublisher(url string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	return &AMQPPublisher{conn: conn, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, queueName string, event any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	// Idempotent declare; durable so messages survive broker restarts.
	_, err = ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error {
	return nil
}
