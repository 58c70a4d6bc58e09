// Package rabbitmq carries workflow notifications over RabbitMQ so that delivery
// can run in a separate worker process.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "order_events"
	DefaultQueue    = "order_notifications"

	// bindingKey routes every order event to the notification queue.
	bindingKey = "order.#"
)

// Topology names the exchange and queue the service declares.
type Topology struct {
	Exchange string
	Queue    string
}

func (t Topology) withDefaults() Topology {
	if t.Exchange == "" {
		t.Exchange = DefaultExchange
	}
	if t.Queue == "" {
		t.Queue = DefaultQueue
	}
	return t
}

const (
	dialTimeout        = 10 * time.Second
	reconnectTimeout   = 30 * time.Second
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

var errClientClosed = errors.New("rabbitmq: client is closed")

// Client owns one AMQP connection and the channel used for publishing. When
// either closes, a background watcher redials with exponential backoff and
// declares the topology again.
type Client struct {
	url      string
	topology Topology
	logger   *slog.Logger

	connect   func(ctx context.Context) error
	baseDelay time.Duration
	maxDelay  time.Duration

	mu      sync.RWMutex
	conn    *amqp.Connection
	pubChan *amqp.Channel

	closed    chan struct{}
	closeOnce sync.Once
	reconnect chan struct{}
}

// Dial connects to url, declares the topology idempotently and starts the
// reconnect watcher. Only the first attempt is made here.
func Dial(ctx context.Context, url string, topology Topology, logger *slog.Logger) (*Client, error) {
	c := newClient(url, topology, logger)
	c.connect = c.connectOnce

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	go c.watch()
	return c, nil
}

func newClient(url string, topology Topology, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:       url,
		topology:  topology.withDefaults(),
		logger:    logger.With("component", "rabbitmq"),
		baseDelay: reconnectBaseDelay,
		maxDelay:  reconnectMaxDelay,
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
	}
}

// Topology returns the declared exchange and queue names.
func (c *Client) Topology() Topology {
	return c.topology
}

// PublishWithContext implements Channel over the shared publishing channel.
func (c *Client) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.RLock()
	ch := c.pubChan
	c.mu.RUnlock()

	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}
	return ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}

// NewConsumerChannel opens a channel with the given prefetch applied.
func (c *Client) NewConsumerChannel(prefetch int) (DeliveryChannel, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, errors.New("rabbitmq: connection is not ready")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if prefetch > 0 {
		if err = ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, err
		}
	}
	return ch, nil
}

// Close stops the watcher and releases the channel and the connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })

	c.mu.Lock()
	defer c.mu.Unlock()

	var problems []error
	if c.pubChan != nil {
		problems = append(problems, c.pubChan.Close())
		c.pubChan = nil
	}
	if c.conn != nil {
		problems = append(problems, c.conn.Close())
		c.conn = nil
	}
	return errors.Join(problems...)
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// connectOnce dials, declares the topology and swaps in the new connection.
func (c *Client) connectOnce(ctx context.Context) error {
	start := time.Now()

	conn, err := amqp.DialConfig(c.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	if err = declareTopology(ch, c.topology); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq: declare topology: %w", err)
	}

	c.mu.Lock()
	if c.isClosed() {
		c.mu.Unlock()
		_ = ch.Close()
		_ = conn.Close()
		return errClientClosed
	}
	if c.pubChan != nil {
		_ = c.pubChan.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.pubChan = ch
	c.mu.Unlock()

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	go c.awaitClose(conn, connClosed, chClosed)

	c.logger.InfoContext(ctx, "connected to RabbitMQ",
		"exchange", c.topology.Exchange,
		"queue", c.topology.Queue,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// awaitClose requests a reconnect once the connection or the publishing
// channel closes, unless conn has already been replaced.
func (c *Client) awaitClose(conn *amqp.Connection, connClosed, chClosed <-chan *amqp.Error) {
	var reason *amqp.Error
	select {
	case <-c.closed:
		return
	case reason = <-connClosed:
	case reason = <-chClosed:
	}

	c.mu.RLock()
	current := c.conn == conn
	c.mu.RUnlock()
	if !current {
		return
	}

	c.logger.Warn("RabbitMQ connection lost", "reason", reason)
	c.requestReconnect()
}

func (c *Client) requestReconnect() {
	select {
	case c.reconnect <- struct{}{}:
	default:
	}
}

// watch redials after every reconnect request until Close.
func (c *Client) watch() {
	for {
		select {
		case <-c.closed:
			return
		case <-c.reconnect:
			c.redial()
		}
	}
}

func (c *Client) redial() {
	delay := c.baseDelay
	for attempt := 1; ; attempt++ {
		if c.isClosed() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), reconnectTimeout)
		err := c.connect(ctx)
		cancel()

		if err == nil {
			c.logger.Info("reconnected to RabbitMQ", "attempt", attempt)
			return
		}
		if errors.Is(err, errClientClosed) {
			return
		}

		c.logger.Error("RabbitMQ reconnect failed", "attempt", attempt, "retry_in", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-c.closed:
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = min(delay*2, c.maxDelay)
	}
}

func declareTopology(ch *amqp.Channel, t Topology) error {
	if err := ch.ExchangeDeclare(t.Exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.QueueBind(t.Queue, bindingKey, t.Exchange, false, nil)
}
