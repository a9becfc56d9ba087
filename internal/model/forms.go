package model

// Forms are the JSON shapes exchanged with clients. Mapping between forms
// and entities is spelled out field by field below.

// ProfileForm is the outbound view of a profile.
type ProfileForm struct {
	DisplayName            string       `json:"displayName"`
	MainEmail              string       `json:"mainEmail"`
	TeeShirtSize           TeeShirtSize `json:"teeShirtSize"`
	ConferenceKeysToAttend []string     `json:"conferenceKeysToAttend"`
}

// ProfileMiniForm carries the user-editable profile fields.
type ProfileMiniForm struct {
	DisplayName  string       `json:"displayName"`
	TeeShirtSize TeeShirtSize `json:"teeShirtSize"`
}

// ConferenceForm is used both for input (create/update) and output.
// Pointer fields distinguish "absent" from zero on partial updates.
type ConferenceForm struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	OrganizerUserID      string   `json:"organizerUserId,omitempty"`
	Topics               []string `json:"topics,omitempty"`
	City                 string   `json:"city,omitempty"`
	StartDate            string   `json:"startDate,omitempty"`
	EndDate              string   `json:"endDate,omitempty"`
	Month                int      `json:"month"`
	MaxAttendees         *int     `json:"maxAttendees,omitempty"`
	SeatsAvailable       int      `json:"seatsAvailable"`
	OrganizerDisplayName string   `json:"organizerDisplayName,omitempty"`
	WebsafeKey           string   `json:"websafeKey,omitempty"`
}

// SessionForm is used both for input (create/update) and output.
type SessionForm struct {
	Name               string `json:"name"`
	Highlights         string `json:"highlights,omitempty"`
	Speaker            string `json:"speaker,omitempty"`
	Date               string `json:"date,omitempty"`
	StartTime          string `json:"startTime,omitempty"`
	Duration           *int   `json:"duration,omitempty"`
	TypeOfSession      string `json:"typeOfSession,omitempty"`
	CreatorUserID      string `json:"creatorUserId,omitempty"`
	CreatorDisplayName string `json:"creatorDisplayName,omitempty"`
	WebsafeKey         string `json:"websafeKey,omitempty"`
}

// FilterForm is one user supplied (field, operator, value) triple.
type FilterForm struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// QueryForm wraps the filters of a conference or session query.
type QueryForm struct {
	Filters []FilterForm `json:"filters"`
}

// ProfileToForm copies a profile into its outbound form.
func ProfileToForm(p *Profile) ProfileForm {
	keys := p.ConferenceKeysToAttend
	if keys == nil {
		keys = []string{}
	}
	return ProfileForm{
		DisplayName:            p.DisplayName,
		MainEmail:              p.MainEmail,
		TeeShirtSize:           p.TeeShirtSize,
		ConferenceKeysToAttend: keys,
	}
}

// ConferenceToForm copies a conference into its outbound form.
// displayName may be empty when the organizer name is not wanted.
func ConferenceToForm(c *Conference, displayName string) ConferenceForm {
	maxAttendees := c.MaxAttendees
	f := ConferenceForm{
		Name:                 c.Name,
		Description:          c.Description,
		OrganizerUserID:      c.OrganizerUserID,
		Topics:               c.Topics,
		City:                 c.City,
		StartDate:            c.StartDate.String(),
		EndDate:              c.EndDate.String(),
		Month:                c.Month,
		MaxAttendees:         &maxAttendees,
		SeatsAvailable:       c.SeatsAvailable,
		OrganizerDisplayName: displayName,
	}
	if c.Key != nil {
		f.WebsafeKey = c.Key.Encode()
	}
	return f
}

// SessionToForm copies a session into its outbound form.
func SessionToForm(s *Session, displayName string) SessionForm {
	d := s.Duration
	f := SessionForm{
		Name:               s.Name,
		Highlights:         s.Highlights,
		Speaker:            s.Speaker,
		Date:               s.Date.String(),
		StartTime:          s.StartTime,
		Duration:           &d,
		TypeOfSession:      s.TypeOfSession,
		CreatorUserID:      s.CreatorUserID,
		CreatorDisplayName: displayName,
	}
	if s.Key != nil {
		f.WebsafeKey = s.Key.Encode()
	}
	return f
}
