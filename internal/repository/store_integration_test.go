//go:build integration

package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/query"
	"github.com/iliyamo/conference-central/internal/store"
	"github.com/iliyamo/conference-central/internal/testutil/containers"
)

var errSoldOut = errors.New("sold out")

type MySQLStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func TestMySQLStoreSuite(t *testing.T) {
	suite.Run(t, new(MySQLStoreSuite))
}

func (s *MySQLStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.store = NewStore(containers.NewMySQL(s.T()))
}

func (s *MySQLStoreSuite) newConference(organizer, name, city string, seats int, topics ...string) *model.Conference {
	id, err := s.store.AllocateID(s.ctx, model.KindConference, model.ProfileKey(organizer))
	s.Require().NoError(err)
	c := &model.Conference{
		Key:             model.ConferenceKey(organizer, id),
		Name:            name,
		OrganizerUserID: organizer,
		City:            city,
		Topics:          topics,
		MaxAttendees:    seats,
		SeatsAvailable:  seats,
	}
	c.SetStartDate(model.Date{Year: 2026, Month: 6, Day: 1})
	c.EndDate = model.Date{Year: 2026, Month: 6, Day: 3}
	s.Require().NoError(s.store.PutConference(s.ctx, c))
	return c
}

func (s *MySQLStoreSuite) TestProfileRoundTripKeepsAttendanceOrder() {
	p := &model.Profile{
		UserID:                 "rt-user",
		DisplayName:            "Round Trip",
		MainEmail:              "rt@example.com",
		TeeShirtSize:           model.TeeShirtLW,
		ConferenceKeysToAttend: []string{"b", "a", "c"},
	}
	s.Require().NoError(s.store.PutProfile(s.ctx, p))

	got, err := s.store.GetProfile(s.ctx, "rt-user")
	s.Require().NoError(err)
	s.Equal(p, got)

	got.ConferenceKeysToAttend = got.ConferenceKeysToAttend[:1]
	s.Require().NoError(s.store.PutProfile(s.ctx, got))
	again, err := s.store.GetProfile(s.ctx, "rt-user")
	s.Require().NoError(err)
	s.Equal([]string{"b"}, again.ConferenceKeysToAttend)
}

func (s *MySQLStoreSuite) TestProfileAttendsConferenceOfLongOrganizerID() {
	organizer := strings.Repeat("é/", 95)
	c := s.newConference(organizer, "Long Keys", "Lisbon", 5)
	wsck := c.Key.Encode()
	s.Greater(len(wsck), 255)

	p := &model.Profile{UserID: "long-key-user", ConferenceKeysToAttend: []string{wsck}}
	s.Require().NoError(s.store.PutProfile(s.ctx, p))

	got, err := s.store.GetProfile(s.ctx, p.UserID)
	s.Require().NoError(err)
	s.Equal([]string{wsck}, got.ConferenceKeysToAttend)

	key, err := model.DecodeKey(wsck)
	s.Require().NoError(err)
	conf, err := s.store.GetConference(s.ctx, key)
	s.Require().NoError(err)
	s.Equal("Long Keys", conf.Name)
}

func (s *MySQLStoreSuite) TestConferenceRoundTrip() {
	c := s.newConference("rt-org", "GopherCon EU", "Berlin", 40, "Go", "Cloud")

	got, err := s.store.GetConference(s.ctx, c.Key)
	s.Require().NoError(err)
	s.Equal(c, got)

	_, err = s.store.GetConference(s.ctx, model.ConferenceKey("someone-else", c.Key.ID))
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *MySQLStoreSuite) TestGetConferencesAlignsWithKeys() {
	a := s.newConference("multi", "Multi A", "Oslo", 5)
	b := s.newConference("multi", "Multi B", "Oslo", 5)

	got, err := s.store.GetConferences(s.ctx, []*model.Key{b.Key, model.ConferenceKey("multi", 999999), a.Key})
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("Multi B", got[0].Name)
	s.Nil(got[1])
	s.Equal("Multi A", got[2].Name)
}

func (s *MySQLStoreSuite) TestQueryConferencesByCityAndRange() {
	s.newConference("q-org", "Lisbon Large", "Lisbon", 30, "Medical Innovations")
	s.newConference("q-org", "Lisbon Small", "Lisbon", 10)
	s.newConference("q-org", "Lisbon Mid", "Lisbon", 20, "Go")

	q := query.Conferences().
		Where(query.FieldCity, query.EQ, "Lisbon").
		Where(query.FieldMaxAttendees, query.GT, 15).
		OrderBy(query.FieldMaxAttendees).
		OrderBy(query.FieldName)
	got, err := s.store.QueryConferences(s.ctx, q)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Lisbon Mid", got[0].Name)
	s.Equal("Lisbon Large", got[1].Name)

	byTopic, err := s.store.QueryConferences(s.ctx, query.Conferences().
		Where(query.FieldTopics, query.EQ, "Medical Innovations").
		OrderBy(query.FieldName))
	s.Require().NoError(err)
	s.Require().Len(byTopic, 1)
	s.Equal([]string{"Medical Innovations"}, byTopic[0].Topics)
}

func (s *MySQLStoreSuite) TestSessionsUnderConference() {
	c := s.newConference("sess-org", "Sessions Conf", "Rome", 10)
	for i, name := range []string{"Zed talk", "Alpha talk"} {
		id, err := s.store.AllocateID(s.ctx, model.KindSession, c.Key)
		s.Require().NoError(err)
		s.Require().NoError(s.store.PutSession(s.ctx, &model.Session{
			Key:           model.SessionKey(c.Key, id),
			Name:          name,
			Speaker:       "Ada",
			Date:          model.Date{Year: 2026, Month: 6, Day: 1 + i},
			StartTime:     "10:00",
			Duration:      45,
			TypeOfSession: "lecture",
			CreatorUserID: "sess-org",
		}))
	}

	got, err := s.store.QuerySessions(s.ctx, query.Sessions().
		WithAncestor(c.Key).
		Where(query.FieldSpeaker, query.EQ, "Ada").
		OrderBy(query.FieldName))
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Alpha talk", got[0].Name)
	s.Equal(model.Date{Year: 2026, Month: 6, Day: 2}, got[0].Date)
	s.True(got[0].Key.HasAncestor(c.Key))

	one, err := s.store.GetSession(s.ctx, got[1].Key)
	s.Require().NoError(err)
	s.Equal(got[1], one)
}

func (s *MySQLStoreSuite) TestTransactionRollsBackOnError() {
	c := s.newConference("tx-org", "Rollback", "Madrid", 3)

	err := s.store.RunInTransaction(s.ctx, store.TxOptions{}, func(tx store.Tx) error {
		conf, err := tx.GetConference(s.ctx, c.Key)
		if err != nil {
			return err
		}
		conf.SeatsAvailable = 0
		if err := tx.PutConference(s.ctx, conf); err != nil {
			return err
		}
		return errSoldOut
	})
	s.ErrorIs(err, errSoldOut)

	got, err := s.store.GetConference(s.ctx, c.Key)
	s.Require().NoError(err)
	s.Equal(3, got.SeatsAvailable)
}

func (s *MySQLStoreSuite) TestRowLocksSerializeDecrements() {
	const seats, workers = 5, 12
	c := s.newConference("lock-org", "Locked", "Vienna", seats)

	var g errgroup.Group
	results := make([]error, workers)
	for i := range workers {
		g.Go(func() error {
			results[i] = s.store.RunInTransaction(s.ctx, store.TxOptions{}, func(tx store.Tx) error {
				conf, err := tx.GetConference(s.ctx, c.Key)
				if err != nil {
					return err
				}
				if conf.SeatsAvailable <= 0 {
					return errSoldOut
				}
				conf.SeatsAvailable--
				return tx.PutConference(s.ctx, conf)
			})
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	var ok, soldOut int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, errSoldOut):
			soldOut++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(seats, ok)
	s.Equal(workers-seats, soldOut)

	got, err := s.store.GetConference(s.ctx, c.Key)
	s.Require().NoError(err)
	s.Equal(0, got.SeatsAvailable)
}

func (s *MySQLStoreSuite) TestSingleGroupTransactionRejectsSecondGroup() {
	c := s.newConference("grp-org", "Groups", "Prague", 3)
	err := s.store.RunInTransaction(s.ctx, store.TxOptions{}, func(tx store.Tx) error {
		if _, err := tx.GetConference(s.ctx, c.Key); err != nil {
			return err
		}
		_, err := tx.GetProfile(s.ctx, "someone-else")
		return err
	})
	s.ErrorIs(err, store.ErrCrossGroup)
}
