package notifier

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQNotifier struct {
	conn  *amqp.Connection
	ch    publisher
	queue string
}

// 接続して durable なキューを用意する
func NewRabbitMQNotifier(url string, queue string) (*RabbitMQNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &RabbitMQNotifier{conn: conn, ch: ch, queue: queue}, nil
}

func (n *RabbitMQNotifier) Send(ctx context.Context, event string, payload any) error {
	env, body, err := encode(event, payload, time.Now())
	if err != nil {
		return err
	}
	return n.ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Type:         event,
		Timestamp:    env.OccurredAt,
		Body:         body,
	})
}

func (n *RabbitMQNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
