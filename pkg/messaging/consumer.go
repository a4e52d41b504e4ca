package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/worktime/worktime-backend/pkg/logger"
)

// MessageHandler is a function that handles a message
type MessageHandler func(ctx context.Context, event *Event) error

// acknowledger is the part of amqp.Delivery the consumer settles messages with
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
	Reject(requeue bool) error
}

// Consumer reads events from one queue and hands them to a handler
type Consumer struct {
	rmq     *RabbitMQ
	queue   string
	handler MessageHandler
	logger  *logger.Logger
}

// NewConsumer declares queue and binds it to exchange with pattern
func NewConsumer(rmq *RabbitMQ, queue, exchange, pattern string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if _, err := rmq.DeclareQueue(queue); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := rmq.BindQueue(queue, exchange, pattern); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &Consumer{
		rmq:     rmq,
		queue:   queue,
		handler: handler,
		logger:  log.WithComponent("consumer"),
	}, nil
}

// Run consumes until ctx is done or the delivery channel closes
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.rmq.Channel().ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info().Str("queue", c.queue).Msg("consumer started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, msg.Body, msg.Redelivered, &msg)
		}
	}
}

// handle settles one delivery. Malformed bodies are dead-lettered, a
// handler error requeues once and dead-letters on redelivery.
func (c *Consumer) handle(ctx context.Context, body []byte, redelivered bool, ack acknowledger) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		c.logger.Error().Err(err).Msg("failed to unmarshal event")
		_ = ack.Reject(false)
		return
	}

	ctx = WithCorrelationID(ctx, event.CorrelationID)

	if err := c.handler(ctx, &event); err != nil {
		c.logger.Error().
			Err(err).
			Str("event_type", event.Type).
			Str("event_id", event.ID).
			Bool("redelivered", redelivered).
			Msg("failed to process event")

		if redelivered {
			_ = ack.Reject(false)
		} else {
			_ = ack.Nack(false, true)
		}
		return
	}

	_ = ack.Ack(false)
}
