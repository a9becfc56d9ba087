package mailer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-central/internal/queue"
)

func TestOutboxAppendsOneLinePerMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "outbox.log")
	o := NewOutbox(path, "noreply@cc.test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	o.now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }

	task := queue.NewConfirmationEmail(queue.ConfirmationEmail{
		To:      "org@example.com",
		Subject: "You created a new Conference!",
		Body:    "Hi,\r\nname: GopherCon",
	})
	require.NoError(t, o.Handle(context.Background(), task))
	require.NoError(t, o.Handle(context.Background(), task))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[2026-06-01T09:00:00Z] E-mail queued | task_id="+task.ID))
	assert.Contains(t, lines[0], `to="org@example.com"`)
	assert.Contains(t, lines[0], `body="Hi,\r\nname: GopherCon"`)
}

func TestOutboxRejectsTaskWithoutPayload(t *testing.T) {
	o := NewOutbox(filepath.Join(t.TempDir(), "o.log"), "x", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, o.Handle(context.Background(), queue.Task{ID: "1"}))
}
