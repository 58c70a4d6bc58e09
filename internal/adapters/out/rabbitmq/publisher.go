package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Channel is the publishing side of an AMQP channel; *Client implements it.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher implements ports.EventPublisher by sending one persistent JSON
// message per event, routed by the event name.
type Publisher struct {
	ch       Channel
	exchange string
	clock    kernel.Clock
}

func NewPublisher(ch Channel, exchange string, clock kernel.Clock) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{ch: ch, exchange: exchange, clock: clock}
}

// Publish sends every event and reports all failures joined.
func (p *Publisher) Publish(ctx context.Context, events ...event.Event) error {
	var problems []error
	for _, e := range events {
		if err := p.publishOne(ctx, e); err != nil {
			problems = append(problems, fmt.Errorf("publish %s: %w", e.Name(), err))
		}
	}
	return errors.Join(problems...)
}

func (p *Publisher) publishOne(ctx context.Context, e event.Event) error {
	now := p.clock.Now()
	body, err := encodeEvent(e, now)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(ctx, p.exchange, e.Name(), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    kernel.NewUUID().String(),
		Timestamp:    now,
		Type:         e.Name(),
		Body:         body,
	})
}
