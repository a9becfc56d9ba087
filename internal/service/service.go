// Package service implements conference registration: profiles, seat
// accounting, conference and session lifecycle, and the cached banners.
// Every operation takes the caller's Identity explicitly and returns a
// *Error for expected failures.
package service

import (
	"log/slog"
	"time"

	"github.com/iliyamo/conference-central/internal/cache"
	"github.com/iliyamo/conference-central/internal/metrics"
	"github.com/iliyamo/conference-central/internal/queue"
	"github.com/iliyamo/conference-central/internal/store"
)

// Deps are the collaborators shared by all services.
type Deps struct {
	Store   store.Store
	Cache   cache.Cache
	Tasks   queue.Dispatcher
	Metrics *metrics.Metrics
	Log     *slog.Logger

	MaxAttempts    int
	InitialBackoff time.Duration
}

// Services bundles the service layer.
type Services struct {
	Profiles      *Profiles
	Ledger        *Ledger
	Lifecycle     *Lifecycle
	Announcements *Announcements
	Featured      *FeaturedSpeakers
}

// New wires every service over d. Nil metrics and logger are replaced by
// no-op ones.
func New(d Deps) *Services {
	if d.Metrics == nil {
		d.Metrics = metrics.Noop()
	}
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	tx := NewTransactor(d.Store, d.MaxAttempts, d.InitialBackoff, d.Metrics)
	return &Services{
		Profiles:      NewProfiles(d.Store, tx, d.Log),
		Ledger:        NewLedger(d.Store, tx, d.Metrics, d.Log),
		Lifecycle:     NewLifecycle(d.Store, tx, d.Tasks, d.Metrics, d.Log),
		Announcements: NewAnnouncements(d.Store, d.Cache, d.Metrics, d.Log),
		Featured:      NewFeaturedSpeakers(d.Store, d.Cache, d.Log),
	}
}
