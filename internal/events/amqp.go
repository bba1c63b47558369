package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/julianstephens/huddle/internal/constants"
	"github.com/julianstephens/huddle/internal/logger"
)

// AMQP publishes events as persistent messages on a durable queue.
type AMQP struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQP dials the broker and declares the notification queue.
func NewAMQP(url string) (*AMQP, error) {
	a := &AMQP{url: url, queue: constants.NotificationQueue}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.connect(); err != nil {
		return nil, err
	}
	return a, nil
}

// connect must be called with mu held.
func (a *AMQP) connect() error {
	conn, err := amqp.Dial(a.url)
	if err != nil {
		return fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("error opening channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		a.queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("error declaring queue: %w", err)
	}

	closed := make(chan *amqp.Error, 1)
	conn.NotifyClose(closed)
	go func() {
		if err := <-closed; err != nil {
			logger.Warn("RabbitMQ connection closed", "error", err)
		}
	}()

	a.conn, a.ch = conn, ch
	return nil
}

// Publish sends e, redialling once if the connection has dropped.
func (a *AMQP) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil || a.conn.IsClosed() {
		if err := a.connect(); err != nil {
			return err
		}
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.NotificationID,
		Type:         string(e.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := a.ch.Publish("", a.queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn, a.ch = nil, nil
	return err
}
