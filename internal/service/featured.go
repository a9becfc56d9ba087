package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/conference-central/internal/cache"
	"github.com/iliyamo/conference-central/internal/query"
	"github.com/iliyamo/conference-central/internal/queue"
	"github.com/iliyamo/conference-central/internal/store"
)

const featuredTemplate = "Featured speaker: %s. Sessions: %s"

// FeaturedSpeakerKey is the cache entry of one conference's featured speaker.
func FeaturedSpeakerKey(wsck string) string { return "FEATURED_SPEAKER:" + wsck }

// FeaturedSpeakers caches, per conference, a line naming a speaker who
// gives more than one session there. It runs as a background task after
// a session with a speaker is created.
type FeaturedSpeakers struct {
	store store.Store
	cache cache.Cache
	log   *slog.Logger
}

func NewFeaturedSpeakers(s store.Store, c cache.Cache, log *slog.Logger) *FeaturedSpeakers {
	return &FeaturedSpeakers{store: s, cache: c, log: log.With("component", "featured")}
}

// Refresh sets the featured line for speaker when they hold at least two
// sessions of the conference. It returns the cached line, or "" when the
// cache was left alone.
func (f *FeaturedSpeakers) Refresh(ctx context.Context, speaker, wsck string) (string, error) {
	key, err := decodeConferenceKey(wsck)
	if err != nil {
		return "", err
	}
	sessions, err := f.store.QuerySessions(ctx, query.Sessions().
		WithAncestor(key).
		Where(query.FieldSpeaker, query.EQ, speaker).
		OrderBy(query.FieldName))
	if err != nil {
		return "", fmt.Errorf("query speaker sessions: %w", err)
	}
	if len(sessions) < 2 {
		return "", nil
	}
	names := make([]string, len(sessions))
	for i, s := range sessions {
		names[i] = s.Name
	}
	line := fmt.Sprintf(featuredTemplate, speaker, strings.Join(names, ", "))
	if err := f.cache.Set(ctx, FeaturedSpeakerKey(key.Encode()), line); err != nil {
		return "", fmt.Errorf("set featured speaker: %w", err)
	}
	f.log.InfoContext(ctx, "featured speaker set", "conference", key.String(), "speaker", speaker, "sessions", len(sessions))
	return line, nil
}

// Get returns the featured line of a conference, or "".
func (f *FeaturedSpeakers) Get(ctx context.Context, wsck string) (string, error) {
	key, err := decodeConferenceKey(wsck)
	if err != nil {
		return "", err
	}
	line, _, err := f.cache.Get(ctx, FeaturedSpeakerKey(key.Encode()))
	if err != nil {
		return "", fmt.Errorf("get featured speaker: %w", err)
	}
	return line, nil
}

// Handle implements queue.Handler for TaskFeaturedSpeaker.
func (f *FeaturedSpeakers) Handle(ctx context.Context, t queue.Task) error {
	if t.Speaker == nil {
		return fmt.Errorf("task %s: missing featured speaker payload", t.ID)
	}
	_, err := f.Refresh(ctx, t.Speaker.Speaker, t.Speaker.ConferenceKey)
	return err
}
