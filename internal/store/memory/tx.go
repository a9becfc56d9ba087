package memory

import (
	"context"
	"fmt"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/store"
)

type pending struct {
	key   *model.Key
	value any
}

type tx struct {
	s      *Store
	groups *store.Groups
	reads  map[string]uint64
	writes map[string]pending
	order  []string
}

// RunInTransaction buffers writes and validates every read version at
// commit time. It never retries; callers decide how to handle
// store.ErrContention.
func (s *Store) RunInTransaction(ctx context.Context, opts store.TxOptions, fn func(store.Tx) error) error {
	t := &tx{
		s:      s,
		groups: store.NewGroups(opts),
		reads:  make(map[string]uint64),
		writes: make(map[string]pending),
	}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.commit()
}

func (t *tx) get(key *model.Key) (any, error) {
	if err := t.groups.Enter(key); err != nil {
		return nil, err
	}
	ks := key.String()
	if p, ok := t.writes[ks]; ok {
		return clone(p.value), nil
	}
	v, version := t.s.read(key)
	if seen, ok := t.reads[ks]; !ok {
		t.reads[ks] = version
	} else if seen != version {
		return nil, fmt.Errorf("%s: %w", key, store.ErrContention)
	}
	return v, nil
}

func (t *tx) put(key *model.Key, v any) error {
	if err := t.groups.Enter(key); err != nil {
		return err
	}
	ks := key.String()
	if _, ok := t.writes[ks]; !ok {
		t.order = append(t.order, ks)
	}
	t.writes[ks] = pending{key: key, value: clone(v)}
	return nil
}

func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for ks, seen := range t.reads {
		var current uint64
		if e, ok := t.s.entries[ks]; ok {
			current = e.version
		}
		if current != seen {
			return fmt.Errorf("%s: %w", ks, store.ErrContention)
		}
	}
	for _, ks := range t.order {
		p := t.writes[ks]
		t.s.writeLocked(p.key, p.value)
	}
	return nil
}

func (t *tx) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	k := model.ProfileKey(userID)
	v, err := t.get(k)
	if err != nil {
		return nil, err
	}
	return getAs[*model.Profile](v, k)
}

func (t *tx) GetConference(_ context.Context, key *model.Key) (*model.Conference, error) {
	v, err := t.get(key)
	if err != nil {
		return nil, err
	}
	return getAs[*model.Conference](v, key)
}

func (t *tx) GetSession(_ context.Context, key *model.Key) (*model.Session, error) {
	v, err := t.get(key)
	if err != nil {
		return nil, err
	}
	return getAs[*model.Session](v, key)
}

func (t *tx) PutProfile(_ context.Context, p *model.Profile) error {
	if p.UserID == "" {
		return store.ErrIncompleteKey
	}
	return t.put(p.Key(), p)
}

func (t *tx) PutConference(_ context.Context, c *model.Conference) error {
	if c.Key == nil {
		return store.ErrIncompleteKey
	}
	return t.put(c.Key, c)
}

func (t *tx) PutSession(_ context.Context, s *model.Session) error {
	if s.Key == nil {
		return store.ErrIncompleteKey
	}
	return t.put(s.Key, s)
}
