package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Worker consumes tasks from RabbitMQ and hands them to a Handler. It
// reconnects with exponential backoff until its context is cancelled.
type Worker struct {
	url      string
	queue    string
	prefetch int
	handler  Handler
	log      *slog.Logger
}

// NewWorker returns a Worker for the named queue.
func NewWorker(url, queue string, prefetch int, h Handler, log *slog.Logger) *Worker {
	if prefetch < 1 {
		prefetch = 1
	}
	return &Worker{url: url, queue: queue, prefetch: prefetch, handler: h, log: log.With("component", "worker")}
}

var errDeliveriesClosed = errors.New("deliveries channel closed")

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // retry forever

	for {
		connected := false
		err := w.session(ctx, func() { connected = true })
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			b.Reset() // reset after a successful connect
		}
		wait := b.NextBackOff()
		w.log.WarnContext(ctx, "consume loop ended; reconnecting", "err", err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (w *Worker) session(ctx context.Context, onConnect func()) error {
	conn, err := amqp.Dial(w.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(w.prefetch, 0, false); err != nil {
		w.log.WarnContext(ctx, "set QoS failed", "err", err)
	}
	if err := declare(ch, w.queue); err != nil {
		return err
	}
	msgs, err := ch.Consume(w.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	onConnect()
	w.log.InfoContext(ctx, "consuming", "queue", w.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			w.deliver(ctx, d)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, d amqp.Delivery) {
	if err := w.Process(ctx, d.Body); err != nil {
		w.log.ErrorContext(ctx, "handle task failed", "message_id", d.MessageId, "err", err)
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}

// Process decodes one message body and runs its handler.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	t, err := Decode(body)
	if err != nil {
		return err
	}
	return w.handler.Handle(ctx, t)
}
