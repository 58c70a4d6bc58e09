package rabbitmq

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	prefetch       = 50
	retryBaseDelay = time.Second
	retryMaxDelay  = 30 * time.Second
)

// DeliveryChannel is the part of *amqp.Channel the consumer uses.
type DeliveryChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// ConsumerChannels opens channels for consuming; *Client implements it.
type ConsumerChannels interface {
	NewConsumerChannel(prefetch int) (DeliveryChannel, error)
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithRetryBackoff sets the delay bounds used when a channel cannot be opened
// or has closed.
func WithRetryBackoff(base, maxDelay time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if base > 0 {
			c.baseDelay = base
		}
		if maxDelay >= c.baseDelay {
			c.maxDelay = maxDelay
		}
	}
}

// Consumer reads event messages from the notification queue and hands each
// notification to a sink.
type Consumer struct {
	channels ConsumerChannels
	queue    string
	sink     ports.NotificationSink
	logger   *slog.Logger

	baseDelay time.Duration
	maxDelay  time.Duration
}

func NewConsumer(channels ConsumerChannels, queue string, sink ports.NotificationSink, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}
	c := &Consumer{
		channels:  channels,
		queue:     queue,
		sink:      sink,
		logger:    logger.With("component", "notification_consumer"),
		baseDelay: retryBaseDelay,
		maxDelay:  retryMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes until ctx is done, reopening the channel with backoff when it closes.
func (c *Consumer) Run(ctx context.Context) {
	backoff := c.baseDelay
	for {
		if ctx.Err() != nil {
			return
		}

		ch, err := c.channels.NewConsumerChannel(prefetch)
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to open consumer channel", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = c.nextBackoff(backoff)
			continue
		}

		deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
			c.logger.ErrorContext(ctx, "failed to start consuming", "queue", c.queue, "error", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = c.nextBackoff(backoff)
			continue
		}
		backoff = c.baseDelay

		closed := ch.NotifyClose(make(chan *amqp.Error, 1))
		c.consume(ctx, deliveries, closed)
		_ = ch.Close()

		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = c.nextBackoff(backoff)
	}
}

func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery, closed <-chan *amqp.Error) {
	for {
		select {
		case <-ctx.Done():
			return
		case amqpErr := <-closed:
			c.logger.ErrorContext(ctx, "consumer channel closed", "error", amqpErr)
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.ErrorContext(ctx, "deliveries channel closed")
				return
			}
			c.Handle(ctx, d)
		}
	}
}

// Handle delivers one message. Malformed messages are rejected without requeue;
// a sink failure is requeued once and dropped on redelivery.
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	notifications, err := decodeNotifications(d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to decode event message", "message_id", d.MessageId, "error", err)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.ErrorContext(ctx, "failed to nack message", "error", nackErr)
		}
		return
	}

	var failures []error
	for _, n := range notifications {
		if notifyErr := c.sink.Notify(ctx, n); notifyErr != nil {
			failures = append(failures, notifyErr)
		}
	}

	if err = errors.Join(failures...); err != nil {
		requeue := !d.Redelivered
		c.logger.ErrorContext(ctx, "failed to deliver notifications",
			"message_id", d.MessageId,
			"requeue", requeue,
			"error", err,
		)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			c.logger.ErrorContext(ctx, "failed to nack message", "error", nackErr)
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		c.logger.ErrorContext(ctx, "failed to ack message", "error", ackErr)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) nextBackoff(current time.Duration) time.Duration {
	return min(current*2, c.maxDelay)
}
