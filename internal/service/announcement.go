package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/conference-central/internal/cache"
	"github.com/iliyamo/conference-central/internal/metrics"
	"github.com/iliyamo/conference-central/internal/query"
	"github.com/iliyamo/conference-central/internal/store"
)

const (
	// AnnouncementKey is the cache entry holding the nearly-sold-out banner.
	AnnouncementKey = "RECENT_ANNOUNCEMENTS"
	// NearlySoldOut is the inclusive upper bound on seats for the banner.
	NearlySoldOut = 5

	announcementTemplate = "Last chance to attend! The following conferences are nearly sold out: %s"
)

// Announcements maintains the nearly-sold-out banner. Refreshes are
// last-writer-wins; concurrent refreshers need no coordination.
type Announcements struct {
	store   store.Store
	cache   cache.Cache
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewAnnouncements(s store.Store, c cache.Cache, m *metrics.Metrics, log *slog.Logger) *Announcements {
	return &Announcements{store: s, cache: c, metrics: m, log: log.With("component", "announcement")}
}

// Refresh recomputes the banner from conferences with 1 to 5 seats left
// and returns it. With no such conference the cache entry is removed and
// "" is returned.
func (a *Announcements) Refresh(ctx context.Context) (string, error) {
	msg, err := a.refresh(ctx)
	result := "set"
	switch {
	case err != nil:
		result = "error"
		a.log.ErrorContext(ctx, "announcement refresh failed", "err", err)
	case msg == "":
		result = "cleared"
	}
	a.metrics.AnnouncementRefreshes.WithLabelValues(result).Inc()
	return msg, err
}

func (a *Announcements) refresh(ctx context.Context) (string, error) {
	confs, err := a.store.QueryConferences(ctx, query.Conferences().
		Where(query.FieldSeatsAvailable, query.LTEQ, NearlySoldOut).
		Where(query.FieldSeatsAvailable, query.GT, 0).
		OrderBy(query.FieldSeatsAvailable).
		OrderBy(query.FieldName))
	if err != nil {
		return "", fmt.Errorf("query nearly sold out: %w", err)
	}
	if len(confs) == 0 {
		if err := a.cache.Delete(ctx, AnnouncementKey); err != nil {
			return "", fmt.Errorf("clear announcement: %w", err)
		}
		return "", nil
	}
	names := make([]string, len(confs))
	for i, c := range confs {
		names[i] = c.Name
	}
	msg := fmt.Sprintf(announcementTemplate, strings.Join(names, ", "))
	if err := a.cache.Set(ctx, AnnouncementKey, msg); err != nil {
		return "", fmt.Errorf("set announcement: %w", err)
	}
	a.log.InfoContext(ctx, "announcement refreshed", "conferences", len(confs))
	return msg, nil
}

// Get returns the cached banner, or "" when there is none.
func (a *Announcements) Get(ctx context.Context) (string, error) {
	msg, _, err := a.cache.Get(ctx, AnnouncementKey)
	if err != nil {
		return "", fmt.Errorf("get announcement: %w", err)
	}
	return msg, nil
}
