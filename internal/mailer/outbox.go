// Package mailer delivers confirmation e-mails by appending them to an
// outbox file, one line per message. A relay process (or a human) tails
// the file; the service never talks SMTP itself.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iliyamo/conference-central/internal/queue"
)

// Outbox appends messages to a file.
type Outbox struct {
	path string
	from string
	log  *slog.Logger
	now  func() time.Time

	mu sync.Mutex
}

// NewOutbox writes to path, creating parent directories on first use.
func NewOutbox(path, from string, log *slog.Logger) *Outbox {
	return &Outbox{path: path, from: from, log: log.With("component", "mailer"), now: time.Now}
}

// Send appends one message.
func (o *Outbox) Send(ctx context.Context, taskID string, m queue.ConfirmationEmail) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
		return fmt.Errorf("mkdir outbox: %w", err)
	}
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] E-mail queued | task_id=%s | from=%q | to=%q | subject=%q | body=%q\n",
		o.now().UTC().Format(time.RFC3339), taskID, o.from, m.To, m.Subject, m.Body)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}
	o.log.InfoContext(ctx, "confirmation e-mail written", "task_id", taskID, "to", m.To)
	return nil
}

// Handle implements queue.Handler for confirmation e-mail tasks.
func (o *Outbox) Handle(ctx context.Context, t queue.Task) error {
	if t.Email == nil {
		return fmt.Errorf("task %s: no e-mail payload", t.ID)
	}
	return o.Send(ctx, t.ID, *t.Email)
}
