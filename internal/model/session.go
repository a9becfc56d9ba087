package model

// Session is a talk or workshop scheduled inside a conference. Only its
// creator may update it, independent of who organizes the conference.
type Session struct {
	Key           *Key
	Name          string
	Highlights    string
	Speaker       string
	Date          Date
	StartTime     string // HH:MM, 24h
	Duration      int    // minutes
	TypeOfSession string
	CreatorUserID string
}

// ConferenceKey returns the parent conference key.
func (s *Session) ConferenceKey() *Key { return s.Key.Parent }

// Clone returns a copy.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Key != nil {
		k := *s.Key
		cp.Key = &k
	}
	return &cp
}
