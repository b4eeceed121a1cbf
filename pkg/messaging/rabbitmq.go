package messaging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lumigente/lumigente-backend/pkg/config"
	"github.com/lumigente/lumigente-backend/pkg/logger"
)

// DeadLetterExchange receives user events that exhausted MaxRedeliveries
const DeadLetterExchange = "lumigente.dlx"

// Broker states reported by Health
const (
	BrokerUp       = "up"
	BrokerDown     = "down"
	BrokerDisabled = "disabled"
)

// RabbitMQ holds the single connection and channel shared by the user-event
// consumer and the path-synced publisher.
type RabbitMQ struct {
	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool

	reconnects atomic.Int64

	config *config.RabbitMQConfig
	logger *logger.Logger
}

// BrokerHealth is the broker section of /health
type BrokerHealth struct {
	Status     string `json:"status"`
	Reconnects int64  `json:"reconnects,omitempty"`
	Error      string `json:"error,omitempty"`
}

// New dials the broker and opens the shared channel
func New(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		config: cfg,
		logger: log.WithComponent("rabbitmq"),
	}
	if err := r.dial(); err != nil {
		return nil, err
	}
	return r, nil
}

// dial replaces conn and channel. Callers other than New hold mu.
func (r *RabbitMQ) dial() error {
	conn, err := amqp.Dial(r.config.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	// prefetch bounds how many user events resync concurrently
	if err := ch.Qos(r.config.PrefetchCount, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("set prefetch: %w", err)
	}

	r.conn, r.channel = conn, ch
	r.logger.Info().Int("prefetch", r.config.PrefetchCount).Msg("connected to RabbitMQ")
	return nil
}

// Channel returns the current channel; it changes after Reconnect
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// Close shuts the channel and connection down; Reconnect fails afterwards
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close channel")
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}

// Health reports the broker state. A nil broker means messaging is turned off.
func (r *RabbitMQ) Health() BrokerHealth {
	if r == nil {
		return BrokerHealth{Status: BrokerDisabled}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	h := BrokerHealth{Status: BrokerUp, Reconnects: r.reconnects.Load()}
	switch {
	case r.closed:
		h.Status, h.Error = BrokerDown, "closed by service"
	case r.conn == nil || r.conn.IsClosed():
		h.Status, h.Error = BrokerDown, "connection lost"
	}
	return h
}

// DeclareExchange declares a durable topic exchange
func (r *RabbitMQ) DeclareExchange(name string) error {
	return r.Channel().ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
}

// DeclareQueue declares a durable queue that dead-letters to DeadLetterExchange
func (r *RabbitMQ) DeclareQueue(name string) (amqp.Queue, error) {
	return r.Channel().QueueDeclare(name, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	})
}

// DeclareDeadLetterQueue declares DeadLetterExchange and a "dlq.<queue>" queue
// bound to it, so rejected user events are kept for inspection.
func (r *RabbitMQ) DeclareDeadLetterQueue(queueName string) error {
	if err := r.DeclareExchange(DeadLetterExchange); err != nil {
		return fmt.Errorf("declare dead letter exchange: %w", err)
	}

	dlq := "dlq." + queueName
	if _, err := r.Channel().QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", dlq, err)
	}
	if err := r.BindQueue(dlq, DeadLetterExchange, "#"); err != nil {
		return fmt.Errorf("bind %s: %w", dlq, err)
	}
	return nil
}

// BindQueue binds a queue to an exchange with a routing key pattern
func (r *RabbitMQ) BindQueue(queueName, exchange, routingKey string) error {
	return r.Channel().QueueBind(queueName, routingKey, exchange, false, nil)
}

// Reconnect redials up to MaxRetries times, waiting ReconnectDelay between attempts
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("rabbitmq connection closed by service")
	}

	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.dial()
		if err == nil {
			r.reconnects.Add(1)
			return nil
		}
		r.logger.Warn().Err(err).Int("attempt", attempt).Msg("reconnect to RabbitMQ failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.config.ReconnectDelay):
		}
	}

	return fmt.Errorf("rabbitmq unreachable after %d attempts", r.config.MaxRetries)
}
