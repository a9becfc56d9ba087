package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iliyamo/conference-central/internal/metrics"
	"github.com/iliyamo/conference-central/internal/store"
)

// Transactor runs store transactions and retries the ones that lose a race.
// fn may run several times and must not keep state between attempts.
type Transactor struct {
	store          store.Store
	maxAttempts    int
	initialBackoff time.Duration
	metrics        *metrics.Metrics
}

// NewTransactor bounds retries to maxAttempts tries in total.
func NewTransactor(s store.Store, maxAttempts int, initialBackoff time.Duration, m *metrics.Metrics) *Transactor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if initialBackoff <= 0 {
		initialBackoff = 10 * time.Millisecond
	}
	return &Transactor{store: s, maxAttempts: maxAttempts, initialBackoff: initialBackoff, metrics: m}
}

// RunInTransaction runs fn atomically. Contention is retried with
// exponential backoff and reported as a conflict once attempts run out.
func (t *Transactor) RunInTransaction(ctx context.Context, opts store.TxOptions, fn func(store.Tx) error) error {
	defer t.metrics.ObserveTx(time.Now())

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = t.initialBackoff
	exp.MaxInterval = 50 * t.initialBackoff
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(t.maxAttempts-1)), ctx)

	err := backoff.Retry(func() error {
		t.metrics.TxAttempts.Inc()
		err := t.store.RunInTransaction(ctx, opts, fn)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, store.ErrContention):
			t.metrics.TxContention.Inc()
			return err
		default:
			return backoff.Permanent(err)
		}
	}, b)
	return translate(err, "entity")
}
