// Package queue carries best-effort background work (confirmation e-mails,
// featured-speaker refreshes) over RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskType names a unit of background work.
type TaskType string

const (
	TaskConfirmationEmail TaskType = "conference.confirmation_email"
	TaskFeaturedSpeaker   TaskType = "session.featured_speaker"
)

// Task is the message published to the broker. Exactly one payload field
// is set, matching Type.
type Task struct {
	ID        string    `json:"id"`
	Type      TaskType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`

	Email   *ConfirmationEmail `json:"email,omitempty"`
	Speaker *FeaturedSpeaker   `json:"featured_speaker,omitempty"`
}

// ConfirmationEmail is sent to an organizer after creating a conference.
type ConfirmationEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// FeaturedSpeaker asks the worker to recompute the featured-speaker line
// of one conference.
type FeaturedSpeaker struct {
	Speaker       string `json:"speaker"`
	ConferenceKey string `json:"conference_key"`
}

// NewConfirmationEmail builds a confirmation e-mail task.
func NewConfirmationEmail(email ConfirmationEmail) Task {
	return Task{ID: uuid.NewString(), Type: TaskConfirmationEmail, CreatedAt: time.Now().UTC(), Email: &email}
}

// NewFeaturedSpeaker builds a featured-speaker task.
func NewFeaturedSpeaker(speaker, conferenceKey string) Task {
	return Task{
		ID:        uuid.NewString(),
		Type:      TaskFeaturedSpeaker,
		CreatedAt: time.Now().UTC(),
		Speaker:   &FeaturedSpeaker{Speaker: speaker, ConferenceKey: conferenceKey},
	}
}

// Validate checks that the payload matches the type.
func (t Task) Validate() error {
	switch t.Type {
	case TaskConfirmationEmail:
		if t.Email == nil || t.Email.To == "" {
			return fmt.Errorf("task %s: missing e-mail payload", t.ID)
		}
	case TaskFeaturedSpeaker:
		if t.Speaker == nil || t.Speaker.ConferenceKey == "" {
			return fmt.Errorf("task %s: missing featured speaker payload", t.ID)
		}
	default:
		return fmt.Errorf("task %s: unknown type %q", t.ID, t.Type)
	}
	return nil
}

// Decode parses and validates a message body.
func Decode(body []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(body, &t); err != nil {
		return Task{}, fmt.Errorf("unmarshal: %w", err)
	}
	return t, t.Validate()
}

// Dispatcher enqueues tasks for asynchronous processing.
type Dispatcher interface {
	Enqueue(ctx context.Context, t Task) error
}

// Handler processes one task.
type Handler interface {
	Handle(ctx context.Context, t Task) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, t Task) error

func (f HandlerFunc) Handle(ctx context.Context, t Task) error { return f(ctx, t) }

// Mux routes tasks to handlers by type.
type Mux struct {
	handlers map[TaskType]Handler
}

func NewMux() *Mux { return &Mux{handlers: make(map[TaskType]Handler)} }

// Register sets the handler for typ, replacing any previous one.
func (m *Mux) Register(typ TaskType, h Handler) { m.handlers[typ] = h }

func (m *Mux) Handle(ctx context.Context, t Task) error {
	h, ok := m.handlers[t.Type]
	if !ok {
		return fmt.Errorf("no handler for task type %q", t.Type)
	}
	return h.Handle(ctx, t)
}
