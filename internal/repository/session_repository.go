package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/query"
	"github.com/iliyamo/conference-central/internal/store"
)

const sessionColumns = `s.id, s.conference_id, s.organizer_user_id, s.name, s.highlights, s.speaker,
       s.session_date, s.start_time, s.duration, s.type_of_session, s.creator_user_id`

// sessionRepo maps model.Session onto the sessions table. The full key
// path (organizer, conference, id) is stored on every row.
type sessionRepo struct{}

func scanSession(r rowScanner) (*model.Session, error) {
	var (
		s          model.Session
		id, confID int64
		organizer  string
		date       sql.NullTime
	)
	if err := r.Scan(&id, &confID, &organizer, &s.Name, &s.Highlights, &s.Speaker,
		&date, &s.StartTime, &s.Duration, &s.TypeOfSession, &s.CreatorUserID); err != nil {
		return nil, err
	}
	s.Key = model.SessionKey(model.ConferenceKey(organizer, confID), id)
	if date.Valid {
		s.Date = model.DateOf(date.Time)
	}
	return &s, nil
}

func sessionKeyParts(key *model.Key) (organizer string, confID, id int64, ok bool) {
	if key == nil || key.Kind != model.KindSession {
		return "", 0, 0, false
	}
	organizer, confID, ok = conferenceKeyParts(key.Parent)
	return organizer, confID, key.ID, ok
}

func (sessionRepo) get(ctx context.Context, q querier, key *model.Key, lock bool) (*model.Session, error) {
	organizer, confID, id, ok := sessionKeyParts(key)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	sel := `SELECT ` + sessionColumns + ` FROM sessions s
            WHERE s.id = ? AND s.conference_id = ? AND s.organizer_user_id = ?`
	if lock {
		sel += " FOR UPDATE"
	}
	s, err := scanSession(q.QueryRowContext(ctx, sel, id, confID, organizer))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, translate(err))
	}
	return s, nil
}

func (sessionRepo) query(ctx context.Context, q querier, qq query.Query) ([]*model.Session, error) {
	where, orderBy, args := qq.SQL()
	sel := `SELECT ` + sessionColumns + ` FROM sessions ` + query.SessionAlias +
		` WHERE ` + where + ` ORDER BY ` + orderBy
	rows, err := q.QueryContext(ctx, sel, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	var out []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (sessionRepo) put(ctx context.Context, q querier, s *model.Session) error {
	organizer, confID, id, ok := sessionKeyParts(s.Key)
	if !ok {
		return store.ErrIncompleteKey
	}
	const upsert = `INSERT INTO sessions
                        (id, conference_id, organizer_user_id, name, highlights, speaker,
                         session_date, start_time, duration, type_of_session, creator_user_id)
                    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                    ON DUPLICATE KEY UPDATE name = VALUES(name),
                                            highlights = VALUES(highlights),
                                            speaker = VALUES(speaker),
                                            session_date = VALUES(session_date),
                                            start_time = VALUES(start_time),
                                            duration = VALUES(duration),
                                            type_of_session = VALUES(type_of_session)`
	_, err := q.ExecContext(ctx, upsert, id, confID, organizer, s.Name, s.Highlights, s.Speaker,
		nullDate(s.Date), s.StartTime, s.Duration, s.TypeOfSession, s.CreatorUserID)
	return translate(err)
}
