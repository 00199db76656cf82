// Package notify publishes order confirmation events to RabbitMQ. Delivery
// is best-effort: a broker outage is logged and reported to the caller, and
// never affects the order that triggered the event.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

// AMQPNotifier publishes domain.OrderCompletedEvent messages to a durable
// queue on the default exchange.
type AMQPNotifier struct {
	url   string
	queue string
	log   zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPNotifier connects to the broker and declares the queue. The
// connection is re-established transparently when it drops.
func NewAMQPNotifier(url, queue string, log zerolog.Logger) (*AMQPNotifier, error) {
	n := &AMQPNotifier{url: url, queue: queue, log: log}
	if err := n.connect(); err != nil {
		return nil, err
	}
	return n, nil
}

// connect dials the broker and declares the durable queue. Callers must hold
// n.mu or be the constructor.
func (n *AMQPNotifier) connect() error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	// Durable so confirmations survive a broker restart.
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare queue %s: %w", n.queue, err)
	}

	n.conn = conn
	n.ch = ch
	return nil
}

// OrderCompleted implements domain.Notifier.
func (n *AMQPNotifier) OrderCompleted(ctx context.Context, event domain.OrderCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil || n.conn.IsClosed() {
		if err := n.connect(); err != nil {
			return err
		}
	}

	err = n.ch.PublishWithContext(ctx,
		"",      // default exchange
		n.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    event.OrderID,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish order completed: %w", err)
	}

	n.log.Debug().
		Str("order_id", event.OrderID).
		Str("queue", n.queue).
		Msg("Order confirmation published")
	return nil
}

// Close releases the broker connection.
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
