package model

import "slices"

// Conference is owned by the organizer's profile. SeatsAvailable starts at
// MaxAttendees and moves by exactly one per registration change, always
// staying within [0, MaxAttendees].
type Conference struct {
	Key             *Key
	Name            string
	Description     string
	OrganizerUserID string
	Topics          []string
	City            string
	StartDate       Date
	EndDate         Date
	Month           int
	MaxAttendees    int
	SeatsAvailable  int
}

// Attendees is the number of seats currently taken.
func (c *Conference) Attendees() int { return c.MaxAttendees - c.SeatsAvailable }

// SetStartDate updates the start date and the derived month.
func (c *Conference) SetStartDate(d Date) {
	c.StartDate = d
	c.Month = int(d.Month)
}

// Clone returns a deep copy.
func (c *Conference) Clone() *Conference {
	cp := *c
	cp.Topics = slices.Clone(c.Topics)
	if c.Key != nil {
		k := *c.Key
		cp.Key = &k
	}
	return &cp
}
