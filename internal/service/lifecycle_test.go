package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/queue"
)

func TestCreateConference(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Lifecycle.CreateConference(f.ctx, user("alice"), model.ConferenceForm{
		Name:         "GopherCon",
		StartDate:    "2026-06-01T09:00:00Z",
		EndDate:      "2026-06-03",
		MaxAttendees: intp(100),
	})
	require.NoError(t, err)

	assert.Equal(t, 100, out.SeatsAvailable)
	assert.Equal(t, 100, *out.MaxAttendees)
	assert.Equal(t, DefaultCity, out.City)
	assert.Equal(t, DefaultTopics(), out.Topics)
	assert.Equal(t, 6, out.Month)
	assert.Equal(t, "2026-06-01", out.StartDate)
	assert.Equal(t, "alice-id", out.OrganizerUserID)

	key, err := model.DecodeKey(out.WebsafeKey)
	require.NoError(t, err)
	assert.True(t, key.HasAncestor(model.ProfileKey("alice-id")))

	tasks := f.tasks.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, queue.TaskConfirmationEmail, tasks[0].Type)
	assert.Equal(t, "alice@example.com", tasks[0].Email.To)
	assert.Equal(t, "You created a new Conference!", tasks[0].Email.Subject)
	assert.Contains(t, tasks[0].Email.Body, "GopherCon")
}

func TestCreateConferenceDefaultsWithoutCapacity(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Lifecycle.CreateConference(f.ctx, user("alice"), model.ConferenceForm{Name: "Unbounded"})
	require.NoError(t, err)
	assert.Equal(t, 0, *out.MaxAttendees)
	assert.Equal(t, 0, out.SeatsAvailable)
	assert.Equal(t, 0, out.Month)
	assert.Empty(t, out.StartDate)
}

func TestCreateConferenceValidation(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		form model.ConferenceForm
		want error
	}{
		{"anonymous", Identity{}, model.ConferenceForm{Name: "x"}, ErrUnauthenticated},
		{"missing name", user("alice"), model.ConferenceForm{}, ErrValidation},
		{"blank name", user("alice"), model.ConferenceForm{Name: "  "}, ErrValidation},
		{"negative capacity", user("alice"), model.ConferenceForm{Name: "x", MaxAttendees: intp(-1)}, ErrValidation},
		{"bad date", user("alice"), model.ConferenceForm{Name: "x", StartDate: "June"}, ErrValidation},
		{"end before start", user("alice"), model.ConferenceForm{Name: "x", StartDate: "2026-06-03", EndDate: "2026-06-01"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Lifecycle.CreateConference(f.ctx, tt.id, tt.form)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.tasks.Tasks())
		})
	}
}

func TestCreateConferenceIgnoresEnqueueFailure(t *testing.T) {
	f := newFixture(t)
	f.tasks.Err = errors.New("broker down")

	out, err := f.svc.Lifecycle.CreateConference(f.ctx, user("alice"), model.ConferenceForm{Name: "GopherCon"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.WebsafeKey)
	assert.Len(t, f.tasks.Tasks(), 1)
}

func TestUpdateConference(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "GopherCon", 10)
	_, err := f.svc.Profiles.Save(f.ctx, user("alice"), model.ProfileMiniForm{DisplayName: "Alice A."})
	require.NoError(t, err)
	for _, u := range []string{"bob", "carol"} {
		_, err := f.svc.Ledger.Register(f.ctx, user(u), wsck)
		require.NoError(t, err)
	}

	out, err := f.svc.Lifecycle.UpdateConference(f.ctx, user("alice"), wsck, model.ConferenceForm{
		City:         "Berlin",
		StartDate:    "2026-09-10",
		MaxAttendees: intp(20),
	})
	require.NoError(t, err)
	assert.Equal(t, "GopherCon", out.Name, "absent fields are kept")
	assert.Equal(t, "Berlin", out.City)
	assert.Equal(t, 9, out.Month)
	assert.Equal(t, 18, out.SeatsAvailable)
	assert.Equal(t, "Alice A.", out.OrganizerDisplayName)

	_, err = f.svc.Lifecycle.UpdateConference(f.ctx, user("alice"), wsck, model.ConferenceForm{MaxAttendees: intp(1)})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 18, f.seats(t, wsck))
}

func TestUpdateConferenceErrors(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "GopherCon", 10)

	_, err := f.svc.Lifecycle.UpdateConference(f.ctx, user("mallory"), wsck, model.ConferenceForm{City: "Nowhere"})
	assert.ErrorIs(t, err, ErrAuthorization)
	assert.EqualError(t, err, "Only the owner can update the conference.")

	_, err = f.svc.Lifecycle.UpdateConference(f.ctx, user("alice"), model.ConferenceKey("alice-id", 999).Encode(), model.ConferenceForm{})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.Lifecycle.GetConference(f.ctx, wsck)
	require.NoError(t, err)
	assert.Equal(t, DefaultCity, got.City)
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "GopherCon", 10)

	out, err := f.svc.Lifecycle.CreateSession(f.ctx, user("bob"), wsck, model.SessionForm{
		Name:      "Generics in practice",
		Speaker:   "Ian",
		Date:      "2026-06-02",
		StartTime: "09:30",
		Duration:  intp(45),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultHighlights, out.Highlights)
	assert.Equal(t, DefaultTypeOfSession, out.TypeOfSession)
	assert.Equal(t, "bob-id", out.CreatorUserID)
	assert.Equal(t, "bob", out.CreatorDisplayName)
	assert.Equal(t, 45, *out.Duration)

	key, err := model.DecodeKey(out.WebsafeKey)
	require.NoError(t, err)
	assert.Equal(t, wsck, key.Parent.Encode())

	tasks := f.tasks.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, queue.TaskFeaturedSpeaker, tasks[1].Type)
	assert.Equal(t, "Ian", tasks[1].Speaker.Speaker)
	assert.Equal(t, wsck, tasks[1].Speaker.ConferenceKey)

	listed, err := f.svc.Lifecycle.SessionsByConference(f.ctx, wsck)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, out.WebsafeKey, listed[0].WebsafeKey)
}

func TestCreateSessionErrors(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "GopherCon", 10)

	_, err := f.svc.Lifecycle.CreateSession(f.ctx, user("bob"), wsck, model.SessionForm{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Lifecycle.CreateSession(f.ctx, user("bob"), model.ConferenceKey("alice-id", 999).Encode(), model.SessionForm{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Lifecycle.CreateSession(f.ctx, user("bob"), wsck, model.SessionForm{Name: "x", StartTime: "25:99"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Lifecycle.CreateSession(f.ctx, Identity{}, wsck, model.SessionForm{Name: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdateSessionOwnershipIsCreator(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "GopherCon", 10)
	sess, err := f.svc.Lifecycle.CreateSession(f.ctx, user("bob"), wsck, model.SessionForm{Name: "Intro"})
	require.NoError(t, err)

	_, err = f.svc.Lifecycle.UpdateSession(f.ctx, user("alice"), sess.WebsafeKey, model.SessionForm{Name: "Hijack"})
	assert.ErrorIs(t, err, ErrAuthorization, "the conference organizer does not own the session")

	out, err := f.svc.Lifecycle.UpdateSession(f.ctx, user("bob"), sess.WebsafeKey, model.SessionForm{
		Speaker: "Rob",
		Date:    "2026-06-03",
	})
	require.NoError(t, err)
	assert.Equal(t, "Intro", out.Name)
	assert.Equal(t, "Rob", out.Speaker)
	assert.Equal(t, "2026-06-03", out.Date)

	got, err := f.svc.Lifecycle.GetSession(f.ctx, sess.WebsafeKey)
	require.NoError(t, err)
	assert.Equal(t, "Rob", got.Speaker)

	_, err = f.svc.Lifecycle.GetSession(f.ctx, wsck)
	assert.ErrorIs(t, err, ErrNotFound, "a conference key is not a session key")
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	b := f.conference(t, "Beta", 10)
	f.conference(t, "Alpha", 10)
	_, err := f.svc.Lifecycle.CreateConference(f.ctx, user("bob"), model.ConferenceForm{Name: "Bob's"})
	require.NoError(t, err)

	mine, err := f.svc.Lifecycle.ConferencesByOrganizer(f.ctx, user("alice"))
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Alpha", mine[0].Name)
	assert.Equal(t, "alice", mine[0].OrganizerDisplayName)

	for _, name := range []string{"Zed", "Ada"} {
		_, err := f.svc.Lifecycle.CreateSession(f.ctx, user("carol"), b, model.SessionForm{Name: name})
		require.NoError(t, err)
	}
	created, err := f.svc.Lifecycle.SessionsByCreator(f.ctx, user("carol"))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Ada", created[0].Name)

	none, err := f.svc.Lifecycle.SessionsByCreator(f.ctx, user("bob"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQueryConferences(t *testing.T) {
	f := newFixture(t)
	for _, c := range []struct {
		name string
		city string
		max  int
	}{{"Zeta", "London", 30}, {"Alpha", "London", 10}, {"Beta", "Paris", 50}} {
		_, err := f.svc.Lifecycle.CreateConference(f.ctx, user("alice"), model.ConferenceForm{
			Name: c.name, City: c.city, MaxAttendees: intp(c.max),
		})
		require.NoError(t, err)
	}

	got, err := f.svc.Lifecycle.QueryConferences(f.ctx, model.QueryForm{Filters: []model.FilterForm{
		{Field: "CITY", Operator: "EQ", Value: "London"},
		{Field: "MAX_ATTENDEES", Operator: "GT", Value: "5"},
	}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, "Zeta", got[1].Name)

	_, err = f.svc.Lifecycle.QueryConferences(f.ctx, model.QueryForm{Filters: []model.FilterForm{
		{Field: "COLOR", Operator: "EQ", Value: "red"},
	}})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = f.svc.Lifecycle.QueryConferences(f.ctx, model.QueryForm{Filters: []model.FilterForm{
		{Field: "MONTH", Operator: "GT", Value: "1"},
		{Field: "MAX_ATTENDEES", Operator: "LT", Value: "100"},
	}})
	assert.ErrorIs(t, err, ErrMultipleInequalityFields)
}

func TestQuerySessions(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "GopherCon", 10)
	for _, s := range []model.SessionForm{
		{Name: "Morning", StartTime: "09:00", TypeOfSession: "workshop"},
		{Name: "Evening", StartTime: "19:00", TypeOfSession: "workshop"},
		{Name: "Keynote", StartTime: "10:00"},
	} {
		_, err := f.svc.Lifecycle.CreateSession(f.ctx, user("bob"), wsck, s)
		require.NoError(t, err)
	}

	got, err := f.svc.Lifecycle.QuerySessions(f.ctx, model.QueryForm{Filters: []model.FilterForm{
		{Field: "TYPE", Operator: "EQ", Value: "workshop"},
		{Field: "TIME", Operator: "LT", Value: "12:00"},
	}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Morning", got[0].Name)

	_, err = f.svc.Lifecycle.QuerySessions(f.ctx, model.QueryForm{Filters: []model.FilterForm{
		{Field: "DATE", Operator: "EQ", Value: "tomorrow"},
	}})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestSessionStartTimeIsZeroPadded(t *testing.T) {
	f := newFixture(t)
	wsck := f.conference(t, "GopherCon", 10)

	out, err := f.svc.Lifecycle.CreateSession(f.ctx, user("bob"), wsck, model.SessionForm{Name: "Early", StartTime: "9:00"})
	require.NoError(t, err)
	assert.Equal(t, "09:00", out.StartTime)
	_, err = f.svc.Lifecycle.CreateSession(f.ctx, user("bob"), wsck, model.SessionForm{Name: "Late", StartTime: "13:30"})
	require.NoError(t, err)

	got, err := f.svc.Lifecycle.QuerySessions(f.ctx, model.QueryForm{Filters: []model.FilterForm{
		{Field: "TIME", Operator: "LT", Value: "12:00"},
	}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Early", got[0].Name)

	updated, err := f.svc.Lifecycle.UpdateSession(f.ctx, user("bob"), got[0].WebsafeKey, model.SessionForm{StartTime: "8:15"})
	require.NoError(t, err)
	assert.Equal(t, "08:15", updated.StartTime)

	_, err = f.svc.Lifecycle.UpdateSession(f.ctx, user("bob"), got[0].WebsafeKey, model.SessionForm{StartTime: "25:00"})
	assert.ErrorIs(t, err, ErrValidation)
}
