package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/enjeyisback/HRMS/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher handles publishing events to RabbitMQ
type Publisher struct {
	mu       sync.Mutex
	channel  channel
	exchange string
	source   string
	logger   *logger.Logger
	// reopen returns a fresh channel after the connection was lost. Nil disables retry.
	reopen func(ctx context.Context) (channel, error)
}

// NewPublisher declares the exchange and returns a publisher bound to it
func NewPublisher(rmq *RabbitMQ, exchange, source string, log *logger.Logger) (*Publisher, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	p := newPublisher(rmq.Channel(), exchange, source, log)
	p.reopen = func(ctx context.Context) (channel, error) {
		if err := rmq.Reconnect(ctx); err != nil {
			return nil, err
		}
		return rmq.Channel(), nil
	}
	return p, nil
}

func newPublisher(ch channel, exchange, source string, log *logger.Logger) *Publisher {
	return &Publisher{
		channel:  ch,
		exchange: exchange,
		source:   source,
		logger:   log,
	}
}

// Publish wraps data in an Event envelope and publishes it with eventType as routing key
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	correlationID := getCorrelationID(ctx)

	event, err := NewEvent(eventType, p.source, correlationID, data)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     event.ID,
		CorrelationId: correlationID,
		Body:          body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, eventType, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) && p.reopen != nil {
		p.logger.Warn().Err(err).Str("event_type", eventType).Msg("channel closed, reconnecting")
		ch, rerr := p.reopen(ctx)
		if rerr != nil {
			return fmt.Errorf("failed to publish event: %w (reconnect: %v)", err, rerr)
		}
		p.channel = ch
		err = p.channel.PublishWithContext(ctx, p.exchange, eventType, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("event_id", event.ID).
		Str("correlation_id", correlationID).
		Msg("event published")

	return nil
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID adds a correlation ID to the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

func getCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}
