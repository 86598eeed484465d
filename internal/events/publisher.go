package events

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aprendia/aprendia-lms/internal/assess"
	"github.com/aprendia/aprendia-lms/internal/grading"
)

// Publisher pushes attempt events to a RabbitMQ topic exchange so
// downstream consumers (analytics, certificate issuance) can react without
// polling the event_log table.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(map[string]any{"type": eventType, "payload": payload})
	if err != nil {
		return err
	}
	// Event type doubles as the routing key on the topic exchange.
	return p.channel.PublishWithContext(ctx, p.exchange, eventType, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// AttemptSubmitted implements grading.EventSink over AMQP.
func (p *Publisher) AttemptSubmitted(ctx context.Context, a assess.Attempt, sum grading.Summary) error {
	data, err := marshalAttempt(a, sum)
	if err != nil {
		return err
	}
	return p.Publish(ctx, TypeAttemptSubmitted, json.RawMessage(data))
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Fanout delivers each event to every sink; the first error wins but all
// sinks are attempted.
type Fanout []grading.EventSink

func (f Fanout) AttemptSubmitted(ctx context.Context, a assess.Attempt, sum grading.Summary) error {
	var firstErr error
	for _, sink := range f {
		if err := sink.AttemptSubmitted(ctx, a, sum); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
