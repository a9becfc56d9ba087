package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-central/internal/cache"
	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/queue"
	"github.com/iliyamo/conference-central/internal/store/memory"
)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	cache *cache.Memory
	tasks *queue.Recorder
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		store: memory.New(),
		cache: cache.NewMemory(),
		tasks: &queue.Recorder{},
	}
	f.svc = New(Deps{
		Store:          f.store,
		Cache:          f.cache,
		Tasks:          f.tasks,
		MaxAttempts:    50,
		InitialBackoff: time.Millisecond,
	})
	return f
}

func user(name string) Identity {
	return Identity{UserID: name + "-id", Email: name + "@example.com", Nickname: name}
}

func intp(n int) *int { return &n }

// conference creates a conference owned by alice with max seats.
func (f *fixture) conference(t *testing.T, name string, max int) string {
	t.Helper()
	out, err := f.svc.Lifecycle.CreateConference(f.ctx, user("alice"), model.ConferenceForm{
		Name:         name,
		MaxAttendees: intp(max),
	})
	require.NoError(t, err)
	return out.WebsafeKey
}

func (f *fixture) seats(t *testing.T, wsck string) int {
	t.Helper()
	key, err := model.DecodeKey(wsck)
	require.NoError(t, err)
	c, err := f.store.GetConference(f.ctx, key)
	require.NoError(t, err)
	return c.SeatsAvailable
}
