package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-central/internal/model"
)

func TestProfileCreatedOnFirstAccess(t *testing.T) {
	f := newFixture(t)
	bob := user("bob")

	got, err := f.svc.Profiles.Get(f.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, model.ProfileForm{
		DisplayName:            "bob",
		MainEmail:              "bob@example.com",
		TeeShirtSize:           model.TeeShirtNotSpecified,
		ConferenceKeysToAttend: []string{},
	}, got)

	stored, err := f.store.GetProfile(f.ctx, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, "bob", stored.DisplayName)
}

func TestProfileSave(t *testing.T) {
	f := newFixture(t)
	bob := user("bob")

	got, err := f.svc.Profiles.Save(f.ctx, bob, model.ProfileMiniForm{TeeShirtSize: model.TeeShirtLM})
	require.NoError(t, err)
	assert.Equal(t, "bob", got.DisplayName, "empty display name keeps the current one")
	assert.Equal(t, model.TeeShirtLM, got.TeeShirtSize)

	got, err = f.svc.Profiles.Save(f.ctx, bob, model.ProfileMiniForm{DisplayName: "Robert"})
	require.NoError(t, err)
	assert.Equal(t, "Robert", got.DisplayName)
	assert.Equal(t, model.TeeShirtLM, got.TeeShirtSize)

	_, err = f.svc.Profiles.Save(f.ctx, bob, model.ProfileMiniForm{TeeShirtSize: "HUGE"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Profiles.Get(f.ctx, Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestProfileWithSlashInUserIDKeepsConferences(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "GopherCon", 10)

	crafted := Identity{UserID: "alice-id/Conference:1", Nickname: "mallory"}
	_, err := f.svc.Profiles.Save(f.ctx, crafted, model.ProfileMiniForm{DisplayName: "Mallory"})
	require.NoError(t, err)

	assert.Equal(t, 10, f.seats(t, wsck))
	ok, err := f.svc.Ledger.Register(f.ctx, crafted, wsck)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 9, f.seats(t, wsck))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(newError(KindConflict, "x")))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
	assert.NotErrorIs(t, newError(KindConflict, "x"), ErrNotFound)
}
