package model

import "slices"

// TeeShirtSize is the closed set of shirt sizes a profile may carry.
type TeeShirtSize string

const (
	TeeShirtNotSpecified TeeShirtSize = "NOT_SPECIFIED"
	TeeShirtXSM          TeeShirtSize = "XS_M"
	TeeShirtXSW          TeeShirtSize = "XS_W"
	TeeShirtSM           TeeShirtSize = "S_M"
	TeeShirtSW           TeeShirtSize = "S_W"
	TeeShirtMM           TeeShirtSize = "M_M"
	TeeShirtMW           TeeShirtSize = "M_W"
	TeeShirtLM           TeeShirtSize = "L_M"
	TeeShirtLW           TeeShirtSize = "L_W"
	TeeShirtXLM          TeeShirtSize = "XL_M"
	TeeShirtXLW          TeeShirtSize = "XL_W"
	TeeShirtXXLM         TeeShirtSize = "XXL_M"
	TeeShirtXXLW         TeeShirtSize = "XXL_W"
	TeeShirtXXXLM        TeeShirtSize = "XXXL_M"
	TeeShirtXXXLW        TeeShirtSize = "XXXL_W"
)

var teeShirtSizes = []TeeShirtSize{
	TeeShirtNotSpecified,
	TeeShirtXSM, TeeShirtXSW, TeeShirtSM, TeeShirtSW, TeeShirtMM, TeeShirtMW,
	TeeShirtLM, TeeShirtLW, TeeShirtXLM, TeeShirtXLW, TeeShirtXXLM, TeeShirtXXLW,
	TeeShirtXXXLM, TeeShirtXXXLW,
}

// Valid reports whether s is one of the known sizes.
func (s TeeShirtSize) Valid() bool { return slices.Contains(teeShirtSizes, s) }

// Profile is the per-user record created lazily on first access.
//
// ConferenceKeysToAttend holds websafe conference keys in registration
// order and never contains duplicates. It is the attendee side of the
// seat count kept on Conference; both are written in one transaction.
type Profile struct {
	UserID                 string
	DisplayName            string
	MainEmail              string
	TeeShirtSize           TeeShirtSize
	ConferenceKeysToAttend []string
}

// Key returns the profile's root key.
func (p *Profile) Key() *Key { return ProfileKey(p.UserID) }

// IsAttending reports whether the websafe conference key is registered.
func (p *Profile) IsAttending(websafeKey string) bool {
	return slices.Contains(p.ConferenceKeysToAttend, websafeKey)
}

// RemoveConference drops websafeKey from the attendance list and reports
// whether it was present.
func (p *Profile) RemoveConference(websafeKey string) bool {
	i := slices.Index(p.ConferenceKeysToAttend, websafeKey)
	if i < 0 {
		return false
	}
	p.ConferenceKeysToAttend = slices.Delete(p.ConferenceKeysToAttend, i, i+1)
	return true
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := *p
	c.ConferenceKeysToAttend = slices.Clone(p.ConferenceKeysToAttend)
	return &c
}
