package rabbitmq_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/adapters/out/rabbitmq"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var publishedAt = time.Date(2024, 9, 10, 15, 4, 5, 0, time.UTC)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

type MockAcknowledger struct {
	mock.Mock
}

func (m *MockAcknowledger) Ack(tag uint64, multiple bool) error {
	return m.Called(tag, multiple).Error(0)
}

func (m *MockAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	return m.Called(tag, multiple, requeue).Error(0)
}

func (m *MockAcknowledger) Reject(tag uint64, requeue bool) error {
	return m.Called(tag, requeue).Error(0)
}

type failingSink struct{}

func (failingSink) Notify(context.Context, event.Notification) error {
	return errors.New("database unavailable")
}

func clock() time.Time { return publishedAt }

// flakyChannels fails the first failures calls, then hands out channel.
type flakyChannels struct {
	mu       sync.Mutex
	failures int
	attempts int
	channel  *fakeDeliveryChannel
}

func (f *flakyChannels) NewConsumerChannel(int) (rabbitmq.DeliveryChannel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failures {
		return nil, errors.New("connection is not ready")
	}
	return f.channel, nil
}

func (f *flakyChannels) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

type fakeDeliveryChannel struct {
	deliveries chan amqp.Delivery
}

func (c *fakeDeliveryChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func (c *fakeDeliveryChannel) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return receiver
}

func (c *fakeDeliveryChannel) Close() error { return nil }

func TestPublisher_SendsPersistentJSONRoutedByEventName(t *testing.T) {
	ch := new(MockChannel)
	clientID := kernel.NewUUID()
	orderID := kernel.NewUUID()
	var sent amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, "order_events", "order.status_changed", false, false, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(5).(amqp.Publishing) }).
		Return(nil).Once()

	err := rabbitmq.NewPublisher(ch, "", clock).Publish(t.Context(), event.StatusChanged{
		OrderID: orderID, OrderTitle: "Poster", ClientID: clientID,
		From: order.Pending, To: order.Approved, ToDisplay: "Approved",
	})

	require.NoError(t, err)
	ch.AssertExpectations(t)
	assert.Equal(t, amqp.Persistent, sent.DeliveryMode)
	assert.Equal(t, "application/json", sent.ContentType)
	assert.Equal(t, publishedAt, sent.Timestamp)

	var msg rabbitmq.EventMessage
	require.NoError(t, json.Unmarshal(sent.Body, &msg))
	assert.Equal(t, "order.status_changed", msg.Event)
	require.Len(t, msg.Notifications, 1)
	assert.Equal(t, clientID.String(), msg.Notifications[0].UserID)
	assert.Equal(t, orderID.String(), msg.Notifications[0].RelatedOrderID)
	assert.Equal(t, "status_change", msg.Notifications[0].Kind)
}

func TestPublisher_JoinsFailures(t *testing.T) {
	ch := new(MockChannel)
	ch.On("PublishWithContext", mock.Anything, "custom", "order.status_changed", false, false, mock.Anything).
		Return(errors.New("channel closed")).Once()
	ch.On("PublishWithContext", mock.Anything, "custom", "order.payment_received", false, false, mock.Anything).
		Return(nil).Once()

	err := rabbitmq.NewPublisher(ch, "custom", clock).Publish(t.Context(),
		event.StatusChanged{OrderID: kernel.NewUUID(), ClientID: kernel.NewUUID(), To: order.PaymentDone},
		event.PaymentReceived{OrderID: kernel.NewUUID(), Recipients: []kernel.UUID{kernel.NewUUID()}},
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order.status_changed")
	assert.Contains(t, err.Error(), "channel closed")
	ch.AssertExpectations(t)
}

func delivery(t *testing.T, ack *MockAcknowledger, body []byte, redelivered bool) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: body, Redelivered: redelivered}
}

func encoded(t *testing.T, recipients ...kernel.UUID) []byte {
	t.Helper()
	msg := rabbitmq.EventMessage{Event: "order.payment_received", PublishedAt: publishedAt}
	for _, r := range recipients {
		msg.Notifications = append(msg.Notifications, rabbitmq.NotificationPayload{
			UserID: r.String(), Title: "Payment received", Message: "paid", Kind: "payment",
		})
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestConsumer_DeliversAndAcks(t *testing.T) {
	sink := memory.NewNotificationLog()
	ack := new(MockAcknowledger)
	ack.On("Ack", uint64(7), false).Return(nil).Once()
	admins := []kernel.UUID{kernel.NewUUID(), kernel.NewUUID()}

	rabbitmq.NewConsumer(nil, "", sink, slog.New(slog.DiscardHandler)).
		Handle(t.Context(), delivery(t, ack, encoded(t, admins...), false))

	ack.AssertExpectations(t)
	delivered := sink.Notifications()
	require.Len(t, delivered, 2)
	assert.Equal(t, admins[0], delivered[0].UserID)
	assert.Equal(t, event.KindPayment, delivered[1].Kind)
}

func TestConsumer_MalformedMessageIsDroppedWithoutRequeue(t *testing.T) {
	for name, body := range map[string][]byte{
		"not json":     []byte("{"),
		"bad user id":  []byte(`{"event":"x","notifications":[{"user_id":"nope"}]}`),
		"bad order id": []byte(`{"event":"x","notifications":[{"user_id":"` + kernel.NewUUID().String() + `","related_order_id":"nope"}]}`),
	} {
		t.Run(name, func(t *testing.T) {
			sink := memory.NewNotificationLog()
			ack := new(MockAcknowledger)
			ack.On("Nack", uint64(7), false, false).Return(nil).Once()

			rabbitmq.NewConsumer(nil, "", sink, slog.New(slog.DiscardHandler)).
				Handle(t.Context(), delivery(t, ack, body, false))

			ack.AssertExpectations(t)
			assert.Empty(t, sink.Notifications())
		})
	}
}

func TestConsumer_SinkFailureRequeuesOnce(t *testing.T) {
	body := encoded(t, kernel.NewUUID())

	first := new(MockAcknowledger)
	first.On("Nack", uint64(7), false, true).Return(nil).Once()
	consumer := rabbitmq.NewConsumer(nil, "", failingSink{}, slog.New(slog.DiscardHandler))
	consumer.Handle(t.Context(), delivery(t, first, body, false))
	first.AssertExpectations(t)

	second := new(MockAcknowledger)
	second.On("Nack", uint64(7), false, false).Return(nil).Once()
	consumer.Handle(t.Context(), delivery(t, second, body, true))
	second.AssertExpectations(t)
}

func TestConsumer_RecoversAfterChannelFailures(t *testing.T) {
	sink := memory.NewNotificationLog()
	ack := new(MockAcknowledger)
	ack.On("Ack", uint64(7), false).Return(nil).Once()

	channels := &flakyChannels{
		failures: 2,
		channel:  &fakeDeliveryChannel{deliveries: make(chan amqp.Delivery, 1)},
	}
	admin := kernel.NewUUID()
	channels.channel.deliveries <- delivery(t, ack, encoded(t, admin), false)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		rabbitmq.NewConsumer(channels, "", sink, slog.New(slog.DiscardHandler),
			rabbitmq.WithRetryBackoff(time.Millisecond, 5*time.Millisecond)).Run(ctx)
	}()

	require.Eventually(t, func() bool { return len(sink.Notifications()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 3, channels.Attempts())
	assert.Equal(t, admin, sink.Notifications()[0].UserID)
	ack.AssertExpectations(t)
}
