// Package memory is an in-process entity store with optimistic
// transactions. Every entity carries a version; a transaction remembers
// the versions it read and commits only if none of them changed.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/query"
	"github.com/iliyamo/conference-central/internal/store"
)

type entry struct {
	key     *model.Key
	value   any
	version uint64
}

// Store implements store.Store in memory.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	nextID  int64
	clock   uint64
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

func clone(v any) any {
	switch e := v.(type) {
	case *model.Profile:
		return e.Clone()
	case *model.Conference:
		return e.Clone()
	case *model.Session:
		return e.Clone()
	}
	return v
}

// read returns a copy of the entity and its version (0 when absent).
func (s *Store) read(key *model.Key) (any, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.String()]
	if !ok {
		return nil, 0
	}
	return clone(e.value), e.version
}

func (s *Store) write(key *model.Key, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(key, v)
}

func (s *Store) writeLocked(key *model.Key, v any) {
	s.clock++
	s.entries[key.String()] = entry{key: key, value: clone(v), version: s.clock}
}

func getAs[T any](v any, key *model.Key) (T, error) {
	var zero T
	if v == nil {
		return zero, fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	return t, nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	k := model.ProfileKey(userID)
	v, _ := s.read(k)
	return getAs[*model.Profile](v, k)
}

func (s *Store) GetConference(_ context.Context, key *model.Key) (*model.Conference, error) {
	v, _ := s.read(key)
	return getAs[*model.Conference](v, key)
}

func (s *Store) GetSession(_ context.Context, key *model.Key) (*model.Session, error) {
	v, _ := s.read(key)
	return getAs[*model.Session](v, key)
}

func (s *Store) GetConferences(_ context.Context, keys []*model.Key) ([]*model.Conference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Conference, len(keys))
	for i, k := range keys {
		if e, ok := s.entries[k.String()]; ok {
			if c, ok := e.value.(*model.Conference); ok {
				out[i] = c.Clone()
			}
		}
	}
	return out, nil
}

func (s *Store) PutProfile(_ context.Context, p *model.Profile) error {
	if p.UserID == "" {
		return store.ErrIncompleteKey
	}
	s.write(p.Key(), p)
	return nil
}

func (s *Store) PutConference(_ context.Context, c *model.Conference) error {
	if c.Key == nil {
		return store.ErrIncompleteKey
	}
	s.write(c.Key, c)
	return nil
}

func (s *Store) PutSession(_ context.Context, ss *model.Session) error {
	if ss.Key == nil {
		return store.ErrIncompleteKey
	}
	s.write(ss.Key, ss)
	return nil
}

func (s *Store) AllocateID(_ context.Context, _ string, _ *model.Key) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID, nil
}

func (s *Store) QueryConferences(_ context.Context, q query.Query) ([]*model.Conference, error) {
	return runQuery[*model.Conference](s, q)
}

func (s *Store) QuerySessions(_ context.Context, q query.Query) ([]*model.Session, error) {
	return runQuery[*model.Session](s, q)
}

func runQuery[T interface{ Clone() T }](s *Store, q query.Query) ([]T, error) {
	type hit struct {
		key *model.Key
		val T
	}
	s.mu.Lock()
	var hits []hit
	for _, e := range s.entries {
		v, ok := e.value.(T)
		if !ok || !q.Match(v, e.key) {
			continue
		}
		hits = append(hits, hit{key: e.key, val: v.Clone()})
	}
	s.mu.Unlock()

	slices.SortFunc(hits, func(a, b hit) int {
		if c := q.Compare(a.val, b.val); c != 0 {
			return c
		}
		return compareKeys(a.key, b.key)
	})
	out := make([]T, len(hits))
	for i, h := range hits {
		out[i] = h.val
	}
	return out, nil
}

func compareKeys(a, b *model.Key) int {
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	switch {
	case a.String() < b.String():
		return -1
	case a.String() > b.String():
		return 1
	}
	return 0
}
