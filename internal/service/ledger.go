package service

import (
	"context"
	"log/slog"

	"github.com/iliyamo/conference-central/internal/metrics"
	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/store"
)

// Ledger owns seat accounting. A registration touches the attendee's
// profile and the organizer's conference, two different entity groups,
// so both writes happen in one cross-group transaction.
type Ledger struct {
	store   store.Store
	tx      *Transactor
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewLedger(s store.Store, tx *Transactor, m *metrics.Metrics, log *slog.Logger) *Ledger {
	return &Ledger{store: s, tx: tx, metrics: m, log: log.With("component", "ledger")}
}

func decodeConferenceKey(wsck string) (*model.Key, error) {
	key, err := model.DecodeKey(wsck)
	if err != nil || key.Kind != model.KindConference {
		return nil, newError(KindNotFound, "No conference found with key: %s", wsck)
	}
	return key, nil
}

func decodeSessionKey(wssk string) (*model.Key, error) {
	key, err := model.DecodeKey(wssk)
	if err != nil || key.Kind != model.KindSession {
		return nil, newError(KindNotFound, "No session found with key: %s", wssk)
	}
	return key, nil
}

func getConference(ctx context.Context, g store.Getter, key *model.Key) (*model.Conference, error) {
	conf, err := g.GetConference(ctx, key)
	if err != nil {
		return nil, translate(err, "conference with key: "+key.Encode())
	}
	return conf, nil
}

// Register takes one seat of the conference for the caller.
func (l *Ledger) Register(ctx context.Context, id Identity, wsck string) (bool, error) {
	ok, err := l.register(ctx, id, wsck)
	l.record("register", ok, err)
	return ok, err
}

func (l *Ledger) register(ctx context.Context, id Identity, wsck string) (bool, error) {
	if err := requireIdentity(id); err != nil {
		return false, err
	}
	key, err := decodeConferenceKey(wsck)
	if err != nil {
		return false, err
	}
	wsck = key.Encode()

	err = l.tx.RunInTransaction(ctx, store.TxOptions{CrossGroup: true}, func(tx store.Tx) error {
		prof, _, err := loadOrCreateProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		conf, err := getConference(ctx, tx, key)
		if err != nil {
			return err
		}
		if prof.IsAttending(wsck) {
			return newError(KindConflict, "You have already registered for this conference")
		}
		if conf.SeatsAvailable <= 0 {
			return newError(KindConflict, "There are no seats available.")
		}
		prof.ConferenceKeysToAttend = append(prof.ConferenceKeysToAttend, wsck)
		conf.SeatsAvailable--
		if err := tx.PutProfile(ctx, prof); err != nil {
			return err
		}
		return tx.PutConference(ctx, conf)
	})
	if err != nil {
		return false, err
	}
	l.log.InfoContext(ctx, "registered", "user_id", id.UserID, "conference", wsck)
	return true, nil
}

// Unregister gives the caller's seat back. It reports false, without
// writing anything, when the caller was not registered.
func (l *Ledger) Unregister(ctx context.Context, id Identity, wsck string) (bool, error) {
	ok, err := l.unregister(ctx, id, wsck)
	l.record("unregister", ok, err)
	return ok, err
}

func (l *Ledger) unregister(ctx context.Context, id Identity, wsck string) (bool, error) {
	if err := requireIdentity(id); err != nil {
		return false, err
	}
	key, err := decodeConferenceKey(wsck)
	if err != nil {
		return false, err
	}
	wsck = key.Encode()

	var removed bool
	err = l.tx.RunInTransaction(ctx, store.TxOptions{CrossGroup: true}, func(tx store.Tx) error {
		removed = false
		prof, created, err := loadOrCreateProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		conf, err := getConference(ctx, tx, key)
		if err != nil {
			return err
		}
		if created || !prof.RemoveConference(wsck) {
			return nil
		}
		// seats never exceed the cap, even for data written before a cap cut
		if conf.SeatsAvailable < conf.MaxAttendees {
			conf.SeatsAvailable++
		}
		if err := tx.PutProfile(ctx, prof); err != nil {
			return err
		}
		removed = true
		return tx.PutConference(ctx, conf)
	})
	if err != nil {
		return false, err
	}
	if removed {
		l.log.InfoContext(ctx, "unregistered", "user_id", id.UserID, "conference", wsck)
	}
	return removed, nil
}

// ConferencesToAttend resolves the caller's attendance list with a single
// multi-get. Keys whose conference no longer resolves are skipped.
func (l *Ledger) ConferencesToAttend(ctx context.Context, id Identity) ([]model.ConferenceForm, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	prof, _, err := loadOrCreateProfile(ctx, l.store, id)
	if err != nil {
		return nil, err
	}
	keys := make([]*model.Key, 0, len(prof.ConferenceKeysToAttend))
	for _, wsck := range prof.ConferenceKeysToAttend {
		k, err := model.DecodeKey(wsck)
		if err != nil {
			l.log.WarnContext(ctx, "skipping malformed attendance key", "user_id", id.UserID, "key", wsck)
			continue
		}
		keys = append(keys, k)
	}
	confs, err := l.store.GetConferences(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]model.ConferenceForm, 0, len(confs))
	for _, c := range confs {
		if c != nil {
			out = append(out, model.ConferenceToForm(c, ""))
		}
	}
	return out, nil
}

func (l *Ledger) record(action string, ok bool, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = KindOf(err).String()
	case !ok:
		outcome = "noop"
	}
	l.metrics.IncrementRegistration(action, outcome)
}
