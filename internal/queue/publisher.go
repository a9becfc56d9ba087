package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker connection defaults. A broker that accepts TCP but never
// finishes the handshake costs at most dialTimeout, and after a failed dial
// publishes fail fast for retryAfter.
const (
	defaultDialTimeout = 5 * time.Second
	defaultRetryAfter  = 5 * time.Second
)

// AMQPDispatcher publishes tasks to a durable RabbitMQ queue. The
// connection is opened lazily in the background and re-dialled after the
// broker drops it. Enqueue never waits on a dial longer than its ctx allows.
// Errors are logged and returned so callers may ignore them.
type AMQPDispatcher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	retryAfter  time.Duration
	log         *slog.Logger

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	dialing   chan struct{} // closed when the in-flight dial finishes
	downUntil time.Time
	lastErr   error
	closed    bool
}

// NewAMQPDispatcher returns a dispatcher for the named queue.
func NewAMQPDispatcher(url, queue string, log *slog.Logger) *AMQPDispatcher {
	return &AMQPDispatcher{
		url:         url,
		queue:       queue,
		dialTimeout: defaultDialTimeout,
		retryAfter:  defaultRetryAfter,
		log:         log.With("component", "queue"),
	}
}

// channel returns an open channel. When none exists it starts (or joins)
// a background dial and waits for it or for ctx, whichever ends first.
func (d *AMQPDispatcher) channel(ctx context.Context) (*amqp.Channel, error) {
	for {
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return nil, errors.New("dispatcher closed")
		}
		if d.ch != nil && !d.ch.IsClosed() {
			ch := d.ch
			d.mu.Unlock()
			return ch, nil
		}
		if time.Now().Before(d.downUntil) {
			err := d.lastErr
			d.mu.Unlock()
			return nil, err
		}
		wait := d.dialing
		if wait == nil {
			wait = make(chan struct{})
			d.dialing = wait
			conn := d.conn
			go d.connect(conn, wait)
		}
		d.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for broker: %w", ctx.Err())
		}
	}
}

// connect opens a channel, reusing conn when it is still alive, and
// publishes the result under d.mu.
func (d *AMQPDispatcher) connect(conn *amqp.Connection, done chan struct{}) {
	ch, conn, err := d.open(conn)

	d.mu.Lock()
	defer d.mu.Unlock()
	defer close(done)
	d.dialing = nil
	if err != nil {
		d.lastErr = err
		d.downUntil = time.Now().Add(d.retryAfter)
		d.log.Warn("broker dial failed", "err", err, "retry_after", d.retryAfter)
		return
	}
	if d.closed {
		_ = conn.Close()
		return
	}
	d.conn, d.ch = conn, ch
	d.downUntil, d.lastErr = time.Time{}, nil
}

func (d *AMQPDispatcher) open(conn *amqp.Connection) (*amqp.Channel, *amqp.Connection, error) {
	if conn == nil || conn.IsClosed() {
		c, err := amqp.DialConfig(d.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(d.dialTimeout),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("dial: %w", err)
		}
		conn = c
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	if err := declare(ch, d.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn, nil
}

// declare makes sure the queue exists. Durable so messages survive broker
// restarts.
func declare(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}

func (d *AMQPDispatcher) Enqueue(ctx context.Context, t Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(t)
	if err != nil {
		d.log.ErrorContext(ctx, "marshal task failed", "task_id", t.ID, "err", err)
		return err
	}

	ch, err := d.channel(ctx)
	if err != nil {
		d.log.ErrorContext(ctx, "broker unavailable", "task_id", t.ID, "err", err)
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    t.ID,
		Type:         string(t.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", d.queue, false, false, pub); err != nil {
		d.log.ErrorContext(ctx, "publish failed", "task_id", t.ID, "type", t.Type, "err", err)
		return err
	}
	d.log.DebugContext(ctx, "task published", "task_id", t.ID, "type", t.Type)
	return nil
}

// Close releases the broker connection.
func (d *AMQPDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.ch != nil {
		_ = d.ch.Close()
		d.ch = nil
	}
	if d.conn != nil {
		err := d.conn.Close()
		d.conn = nil
		return err
	}
	return nil
}
