package queue

import (
	"context"
	"log/slog"
	"sync"
)

// Inline runs tasks in a background goroutine of the current process. It
// stands in for the broker when RABBITMQ_URL is not configured.
type Inline struct {
	handler Handler
	log     *slog.Logger
	wg      sync.WaitGroup
}

func NewInline(h Handler, log *slog.Logger) *Inline {
	return &Inline{handler: h, log: log.With("component", "queue")}
}

func (d *Inline) Enqueue(ctx context.Context, t Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	// detach from the request so the task outlives it
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.handler.Handle(bg, t); err != nil {
			d.log.ErrorContext(bg, "inline task failed", "task_id", t.ID, "type", t.Type, "err", err)
		}
	}()
	return nil
}

// Wait blocks until every enqueued task has finished.
func (d *Inline) Wait() { d.wg.Wait() }
