// Package notifications delivers workflow events to users without holding up the
// request that produced them.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/ports"
)

var (
	// ErrQueueFull is returned by Publish when the backlog is at capacity.
	// The notifications that did not fit are dropped.
	ErrQueueFull = errors.New("notification queue is full")

	// ErrDispatcherClosed is returned by Publish after Close.
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 256
)

// Option configures an AsyncDispatcher.
type Option func(*AsyncDispatcher)

// WithWorkers sets the number of delivery goroutines. Values below one are ignored.
func WithWorkers(n int) Option {
	return func(d *AsyncDispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize sets the backlog capacity. Values below one are ignored.
func WithQueueSize(n int) Option {
	return func(d *AsyncDispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *AsyncDispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// AsyncDispatcher is a ports.EventPublisher backed by a bounded queue and a
// fixed pool of workers. Built by NewAsyncDispatcher it hands each notification
// to a sink; built by NewAsyncForwarder it hands each event to another publisher,
// such as the RabbitMQ one.
//
// Publish never blocks: when the queue is full it drops the overflow and
// reports ErrQueueFull. Delivery failures are logged and not retried.
//
// Example:
//
//	d := notifications.NewAsyncDispatcher(sink, notifications.WithWorkers(4))
//	d.Start()
//	defer d.Close(ctx)
//
//	_ = d.Publish(ctx, event.StatusChanged{...})
type AsyncDispatcher struct {
	sink      ports.NotificationSink
	next      ports.EventPublisher
	logger    *slog.Logger
	workers   int
	queueSize int

	mu     sync.RWMutex
	queue  chan item
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

// item is one queued unit of work: a notification for the sink, or a whole
// event for the next publisher.
type item struct {
	notification event.Notification
	event        event.Event
}

// NewAsyncDispatcher creates a dispatcher delivering to sink. Call Start before publishing.
func NewAsyncDispatcher(sink ports.NotificationSink, opts ...Option) *AsyncDispatcher {
	return newAsyncDispatcher(&AsyncDispatcher{sink: sink}, "notification_dispatcher", opts)
}

// NewAsyncForwarder creates a dispatcher that hands events to next off the
// caller's goroutine. Call Start before publishing.
func NewAsyncForwarder(next ports.EventPublisher, opts ...Option) *AsyncDispatcher {
	return newAsyncDispatcher(&AsyncDispatcher{next: next}, "event_forwarder", opts)
}

func newAsyncDispatcher(d *AsyncDispatcher, component string, opts []Option) *AsyncDispatcher {
	d.logger = slog.Default()
	d.workers = defaultWorkers
	d.queueSize = defaultQueueSize
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", component)
	d.queue = make(chan item, d.queueSize)
	return d
}

// Start launches the workers. Calling it more than once has no effect.
func (d *AsyncDispatcher) Start() {
	d.once.Do(func() {
		for i := range d.workers {
			d.wg.Add(1)
			go d.work(i)
		}
	})
}

// Publish enqueues every event, or the notifications of every event when
// delivering to a sink.
func (d *AsyncDispatcher) Publish(_ context.Context, events ...event.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	var dropped int
	for _, e := range events {
		if d.next != nil {
			if !d.enqueue(item{event: e}) {
				dropped++
			}
			continue
		}
		for _, n := range e.Notifications() {
			if !d.enqueue(item{notification: n}) {
				dropped++
			}
		}
	}

	if dropped > 0 {
		return fmt.Errorf("%w: dropped %d item(s)", ErrQueueFull, dropped)
	}
	return nil
}

func (d *AsyncDispatcher) enqueue(it item) bool {
	select {
	case d.queue <- it:
		return true
	default:
		return false
	}
}

// Close stops accepting notifications and waits until the backlog is delivered
// or ctx is done.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	// Workers that were never started cannot drain the queue.
	d.Start()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *AsyncDispatcher) work(id int) {
	defer d.wg.Done()

	for it := range d.queue {
		if it.event != nil {
			d.forward(id, it.event)
			continue
		}
		n := it.notification
		if err := d.sink.Notify(context.Background(), n); err != nil {
			d.logger.Error("failed to deliver notification",
				"worker", id,
				"user_id", n.UserID.String(),
				"order_id", n.RelatedOrderID.String(),
				"kind", string(n.Kind),
				"error", err,
			)
		}
	}
}

func (d *AsyncDispatcher) forward(id int, e event.Event) {
	if err := d.next.Publish(context.Background(), e); err != nil {
		d.logger.Error("failed to forward event",
			"worker", id,
			"event", e.Name(),
			"error", err,
		)
	}
}
