package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/query"
	"github.com/iliyamo/conference-central/internal/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Store on a MySQL database created from the
// schema in package database.
type Store struct {
	db          *sql.DB
	profiles    profileRepo
	conferences conferenceRepo
	sessions    sessionRepo
}

var _ store.Store = (*Store)(nil)

// NewStore returns a Store bound to db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return s.profiles.get(ctx, s.db, userID, false)
}

func (s *Store) GetConference(ctx context.Context, key *model.Key) (*model.Conference, error) {
	return s.conferences.get(ctx, s.db, key, false)
}

func (s *Store) GetConferences(ctx context.Context, keys []*model.Key) ([]*model.Conference, error) {
	return s.conferences.getMany(ctx, s.db, keys)
}

func (s *Store) GetSession(ctx context.Context, key *model.Key) (*model.Session, error) {
	return s.sessions.get(ctx, s.db, key, false)
}

// Put* outside a transaction still touch several tables, so each runs in
// its own short transaction.

func (s *Store) PutProfile(ctx context.Context, p *model.Profile) error {
	return s.atomically(ctx, func(q querier) error { return s.profiles.put(ctx, q, p) })
}

func (s *Store) PutConference(ctx context.Context, c *model.Conference) error {
	return s.atomically(ctx, func(q querier) error { return s.conferences.put(ctx, q, c) })
}

func (s *Store) PutSession(ctx context.Context, ss *model.Session) error {
	return s.sessions.put(ctx, s.db, ss)
}

func (s *Store) QueryConferences(ctx context.Context, q query.Query) ([]*model.Conference, error) {
	return s.conferences.query(ctx, s.db, q)
}

func (s *Store) QuerySessions(ctx context.Context, q query.Query) ([]*model.Session, error) {
	return s.sessions.query(ctx, s.db, q)
}

// AllocateID draws from one global sequence, so ids are unique across
// kinds and parents.
func (s *Store) AllocateID(ctx context.Context, kind string, _ *model.Key) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO id_allocations (kind) VALUES (?)`, kind)
	if err != nil {
		return 0, translate(err)
	}
	return res.LastInsertId()
}

// RunInTransaction runs fn inside a database transaction. Reads made
// through the Tx lock their rows until commit or rollback.
func (s *Store) RunInTransaction(ctx context.Context, opts store.TxOptions, fn func(store.Tx) error) error {
	return s.atomically(ctx, func(q querier) error {
		return fn(&txStore{s: s, q: q, groups: store.NewGroups(opts)})
	})
}

func (s *Store) atomically(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return translate(err)
	}
	if err := tx.Commit(); err != nil {
		return translate(err)
	}
	committed = true
	return nil
}

type txStore struct {
	s      *Store
	q      querier
	groups *store.Groups
}

func (t *txStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if err := t.groups.Enter(model.ProfileKey(userID)); err != nil {
		return nil, err
	}
	return t.s.profiles.get(ctx, t.q, userID, true)
}

func (t *txStore) GetConference(ctx context.Context, key *model.Key) (*model.Conference, error) {
	if err := t.groups.Enter(key); err != nil {
		return nil, err
	}
	return t.s.conferences.get(ctx, t.q, key, true)
}

func (t *txStore) GetSession(ctx context.Context, key *model.Key) (*model.Session, error) {
	if err := t.groups.Enter(key); err != nil {
		return nil, err
	}
	return t.s.sessions.get(ctx, t.q, key, true)
}

func (t *txStore) PutProfile(ctx context.Context, p *model.Profile) error {
	if p.UserID == "" {
		return store.ErrIncompleteKey
	}
	if err := t.groups.Enter(p.Key()); err != nil {
		return err
	}
	return t.s.profiles.put(ctx, t.q, p)
}

func (t *txStore) PutConference(ctx context.Context, c *model.Conference) error {
	if c.Key == nil {
		return store.ErrIncompleteKey
	}
	if err := t.groups.Enter(c.Key); err != nil {
		return err
	}
	return t.s.conferences.put(ctx, t.q, c)
}

func (t *txStore) PutSession(ctx context.Context, ss *model.Session) error {
	if ss.Key == nil {
		return store.ErrIncompleteKey
	}
	if err := t.groups.Enter(ss.Key); err != nil {
		return err
	}
	return t.s.sessions.put(ctx, t.q, ss)
}
