package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"foodslink_backend/internal/models"
	"foodslink_backend/pkg/utils"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange receiving order lifecycle events. Fanout, so kitchen displays and
// notification subscribers each get their own queue binding.
const orderEventsExchange = "order_events_fanout"

// Publisher fans order events out to RabbitMQ. Delivery is best-effort: a
// broker outage degrades the system back to pure polling, it never fails a
// mutation.
type Publisher struct {
	url  string
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher dials RabbitMQ and declares the order events exchange.
func NewPublisher(url string) (*Publisher, error) {
	p := &Publisher{url: url}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(orderEventsExchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return err
	}
	p.conn = conn
	p.ch = ch
	return nil
}

// NotifyOrderChanged implements services.OrderNotifier.
func (p *Publisher) NotifyOrderChanged(ctx context.Context, event models.OrderEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		utils.LogError(err, "Publisher: failed to marshal order event")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		if err := p.connect(); err != nil {
			utils.LogError(err, "Publisher: reconnect to broker failed, event dropped")
			return
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		orderEventsExchange,
		"",    // routing key, ignored by fanout
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		utils.LogError(err, "Publisher: failed to publish order event")
	}
}

// Close closes the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
