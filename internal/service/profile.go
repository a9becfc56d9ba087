package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/store"
)

// Profiles reads and edits the caller's own profile.
type Profiles struct {
	store store.Store
	tx    *Transactor
	log   *slog.Logger
}

func NewProfiles(s store.Store, tx *Transactor, log *slog.Logger) *Profiles {
	return &Profiles{store: s, tx: tx, log: log.With("component", "profiles")}
}

// loadOrCreateProfile returns the caller's profile, building the default
// one when none is stored yet. created reports whether it must be put.
func loadOrCreateProfile(ctx context.Context, g store.Getter, id Identity) (p *model.Profile, created bool, err error) {
	p, err = g.GetProfile(ctx, id.UserID)
	switch {
	case err == nil:
		return p, false, nil
	case errors.Is(err, store.ErrNotFound):
		return newProfile(id), true, nil
	}
	return nil, false, err
}

// Get returns the caller's profile, creating it on first access.
func (p *Profiles) Get(ctx context.Context, id Identity) (model.ProfileForm, error) {
	if err := requireIdentity(id); err != nil {
		return model.ProfileForm{}, err
	}
	if prof, err := p.store.GetProfile(ctx, id.UserID); err == nil {
		return model.ProfileToForm(prof), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.ProfileForm{}, err
	}

	var out *model.Profile
	err := p.tx.RunInTransaction(ctx, store.TxOptions{}, func(tx store.Tx) error {
		prof, created, err := loadOrCreateProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		if created {
			if err := tx.PutProfile(ctx, prof); err != nil {
				return err
			}
			p.log.InfoContext(ctx, "profile created", "user_id", id.UserID)
		}
		out = prof
		return nil
	})
	if err != nil {
		return model.ProfileForm{}, err
	}
	return model.ProfileToForm(out), nil
}

// Save applies the user-editable fields. Empty fields are left alone.
func (p *Profiles) Save(ctx context.Context, id Identity, form model.ProfileMiniForm) (model.ProfileForm, error) {
	if err := requireIdentity(id); err != nil {
		return model.ProfileForm{}, err
	}
	if form.TeeShirtSize != "" && !form.TeeShirtSize.Valid() {
		return model.ProfileForm{}, newError(KindValidation, "unknown teeShirtSize %q", form.TeeShirtSize)
	}

	var out *model.Profile
	err := p.tx.RunInTransaction(ctx, store.TxOptions{}, func(tx store.Tx) error {
		prof, _, err := loadOrCreateProfile(ctx, tx, id)
		if err != nil {
			return err
		}
		if form.DisplayName != "" {
			prof.DisplayName = form.DisplayName
		}
		if form.TeeShirtSize != "" {
			prof.TeeShirtSize = form.TeeShirtSize
		}
		out = prof
		return tx.PutProfile(ctx, prof)
	})
	if err != nil {
		return model.ProfileForm{}, err
	}
	return model.ProfileToForm(out), nil
}

// displayName returns the stored display name of userID, or fallback
// when the user has no profile yet.
func displayName(ctx context.Context, g store.Getter, userID, fallback string) (string, error) {
	prof, err := g.GetProfile(ctx, userID)
	switch {
	case err == nil:
		return prof.DisplayName, nil
	case errors.Is(err, store.ErrNotFound):
		return fallback, nil
	}
	return "", err
}
