package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/dispatch/internal/domain"
	"github.com/ignite/dispatch/internal/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher fans events out to a topic exchange. Routing keys follow
// "mail.event.<type>" so consumers can bind to a subset (e.g. only opens).
type AMQPPublisher struct {
	mu       sync.RWMutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher connects to the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	p := &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}
	go p.watchClose()
	return p, nil
}

func (p *AMQPPublisher) watchClose() {
	errCh := make(chan *amqp.Error)
	p.conn.NotifyClose(errCh)
	if err := <-errCh; err != nil {
		logger.Error("AMQP connection closed", "error", err.Error())
	}
}

// Publish sends one event to the exchange as persistent JSON.
func (p *AMQPPublisher) Publish(ctx context.Context, e *domain.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	p.mu.RLock()
	ch := p.channel
	p.mu.RUnlock()

	return ch.PublishWithContext(
		ctx,
		p.exchange,
		"mail.event."+string(e.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// Close shuts down the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
