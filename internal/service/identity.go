package service

import "github.com/iliyamo/conference-central/internal/model"

// Identity is the authenticated caller. UserID is the stable id issued by
// the identity provider; the zero Identity means "not signed in".
type Identity struct {
	UserID   string
	Email    string
	Nickname string
}

// Authenticated reports whether the identity carries a user id.
func (id Identity) Authenticated() bool { return id.UserID != "" }

func requireIdentity(id Identity) error {
	if !id.Authenticated() {
		return newError(KindUnauthenticated, "Authorization required")
	}
	return nil
}

// newProfile returns the defaults used when a profile is created lazily.
func newProfile(id Identity) *model.Profile {
	return &model.Profile{
		UserID:       id.UserID,
		DisplayName:  id.Nickname,
		MainEmail:    id.Email,
		TeeShirtSize: model.TeeShirtNotSpecified,
	}
}
