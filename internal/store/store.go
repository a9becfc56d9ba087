// Package store defines the entity store consumed by the service layer.
// Implementations live in store/memory (tests, local runs) and
// repository (MySQL).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/query"
)

// Sentinel errors returned (optionally wrapped) by every implementation.
var (
	ErrNotFound = errors.New("not found")
	// ErrContention means a transaction lost a race with a concurrent
	// writer and may be retried.
	ErrContention = errors.New("transaction contention")
	// ErrCrossGroup is returned when a transaction that was not opened
	// with CrossGroup touches more than one entity group.
	ErrCrossGroup = errors.New("transaction spans multiple entity groups")
	// ErrIncompleteKey is returned when putting an entity without a key.
	ErrIncompleteKey = errors.New("incomplete key")
)

// TxOptions configures RunInTransaction.
type TxOptions struct {
	// CrossGroup allows the transaction to span entities with different
	// key roots, e.g. an attendee's profile and someone else's conference.
	CrossGroup bool
}

// Getter reads single entities. Missing entities yield ErrNotFound.
type Getter interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	GetConference(ctx context.Context, key *model.Key) (*model.Conference, error)
	GetSession(ctx context.Context, key *model.Key) (*model.Session, error)
}

// Putter writes whole entities, inserting or replacing.
type Putter interface {
	PutProfile(ctx context.Context, p *model.Profile) error
	PutConference(ctx context.Context, c *model.Conference) error
	PutSession(ctx context.Context, s *model.Session) error
}

// Tx is the view of the store handed to a transaction function.
type Tx interface {
	Getter
	Putter
}

// Store is the full entity store.
type Store interface {
	Getter
	Putter

	// GetConferences fetches many conferences in one round trip. The
	// result is aligned with keys; missing entries are nil.
	GetConferences(ctx context.Context, keys []*model.Key) ([]*model.Conference, error)
	QueryConferences(ctx context.Context, q query.Query) ([]*model.Conference, error)
	QuerySessions(ctx context.Context, q query.Query) ([]*model.Session, error)

	// AllocateID reserves a new numeric id for kind under parent.
	AllocateID(ctx context.Context, kind string, parent *model.Key) (int64, error)

	// RunInTransaction runs fn atomically. Writes made through tx become
	// visible only if fn returns nil and the commit succeeds. Conflicts
	// with concurrent transactions surface as ErrContention.
	RunInTransaction(ctx context.Context, opts TxOptions, fn func(tx Tx) error) error
}

// Groups tracks the entity groups touched by one transaction and rejects
// a second group unless the transaction is cross-group.
type Groups struct {
	cross bool
	root  *model.Key
}

// NewGroups returns a tracker for a transaction opened with opts.
func NewGroups(opts TxOptions) *Groups {
	return &Groups{cross: opts.CrossGroup}
}

// Enter records that the transaction touches key.
func (g *Groups) Enter(key *model.Key) error {
	root := key.Root()
	if g.root == nil {
		g.root = root
		return nil
	}
	if !g.cross && !g.root.Equal(root) {
		return fmt.Errorf("%s and %s: %w", g.root, root, ErrCrossGroup)
	}
	return nil
}
