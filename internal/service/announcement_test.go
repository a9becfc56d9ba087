package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/queue"
)

func TestAnnouncementRefresh(t *testing.T) {
	f := newFixture(t)
	f.conference(t, "Full", 0)
	f.conference(t, "Three", 3)
	f.conference(t, "Five", 5)
	f.conference(t, "Six", 6)
	f.conference(t, "Also Three", 3)

	msg, err := f.svc.Announcements.Refresh(f.ctx)
	require.NoError(t, err)
	want := "Last chance to attend! The following conferences are nearly sold out: Also Three, Three, Five"
	assert.Equal(t, want, msg)

	cached, ok, err := f.cache.Get(f.ctx, AnnouncementKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, cached)

	got, err := f.svc.Announcements.Get(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAnnouncementClearedWhenNothingQualifies(t *testing.T) {
	f := newFixture(t)
	f.conference(t, "Full", 0)
	f.conference(t, "Roomy", 50)
	require.NoError(t, f.cache.Set(f.ctx, AnnouncementKey, "stale"))

	msg, err := f.svc.Announcements.Refresh(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, msg)

	_, ok, err := f.cache.Get(f.ctx, AnnouncementKey)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := f.svc.Announcements.Get(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAnnouncementFollowsRegistrations(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "Popular", 6)

	msg, err := f.svc.Announcements.Refresh(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, msg)

	_, err = f.svc.Ledger.Register(f.ctx, user("bob"), wsck)
	require.NoError(t, err)

	msg, err = f.svc.Announcements.Refresh(f.ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "Popular")

	m := f.svc.Announcements.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnnouncementRefreshes.WithLabelValues("set")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnnouncementRefreshes.WithLabelValues("cleared")))
}

func TestFeaturedSpeaker(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "GopherCon", 10)

	create := func(name string) {
		_, err := f.svc.Lifecycle.CreateSession(f.ctx, user("bob"), wsck, model.SessionForm{Name: name, Speaker: "Rob"})
		require.NoError(t, err)
	}

	create("Concurrency")
	line, err := f.svc.Featured.Refresh(f.ctx, "Rob", wsck)
	require.NoError(t, err)
	assert.Empty(t, line, "a single session does not make a featured speaker")

	create("Simplicity")
	tasks := f.tasks.Tasks()
	last := tasks[len(tasks)-1]
	require.Equal(t, queue.TaskFeaturedSpeaker, last.Type)
	require.NoError(t, f.svc.Featured.Handle(f.ctx, last))

	got, err := f.svc.Featured.Get(f.ctx, wsck)
	require.NoError(t, err)
	assert.Equal(t, "Featured speaker: Rob. Sessions: Concurrency, Simplicity", got)

	other := f.conference(t, "Other", 10)
	got, err = f.svc.Featured.Get(f.ctx, other)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.svc.Featured.Get(f.ctx, "garbage")
	assert.ErrorIs(t, err, ErrNotFound)
}
