package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/query"
	"github.com/iliyamo/conference-central/internal/store"
)

const conferenceColumns = `c.id, c.organizer_user_id, c.name, c.description, c.city,
       c.start_date, c.end_date, c.month, c.max_attendees, c.seats_available`

// conferenceRepo maps model.Conference onto conferences and
// conference_topics. The organizer is stored alongside the id so a key's
// whole path can be checked.
type conferenceRepo struct{}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConference(r rowScanner) (*model.Conference, error) {
	var (
		c          model.Conference
		id         int64
		start, end sql.NullTime
	)
	if err := r.Scan(&id, &c.OrganizerUserID, &c.Name, &c.Description, &c.City,
		&start, &end, &c.Month, &c.MaxAttendees, &c.SeatsAvailable); err != nil {
		return nil, err
	}
	c.Key = model.ConferenceKey(c.OrganizerUserID, id)
	if start.Valid {
		c.StartDate = model.DateOf(start.Time)
	}
	if end.Valid {
		c.EndDate = model.DateOf(end.Time)
	}
	return &c, nil
}

func conferenceKeyParts(key *model.Key) (organizer string, id int64, ok bool) {
	if key == nil || key.Kind != model.KindConference || key.Parent == nil || key.Parent.Kind != model.KindProfile {
		return "", 0, false
	}
	return key.Parent.Name, key.ID, true
}

func (r conferenceRepo) get(ctx context.Context, q querier, key *model.Key, lock bool) (*model.Conference, error) {
	organizer, id, ok := conferenceKeyParts(key)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	sel := `SELECT ` + conferenceColumns + ` FROM conferences c WHERE c.id = ? AND c.organizer_user_id = ?`
	if lock {
		sel += " FOR UPDATE"
	}
	c, err := scanConference(q.QueryRowContext(ctx, sel, id, organizer))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, translate(err))
	}
	if err := r.loadTopics(ctx, q, []*model.Conference{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// getMany is a single IN query; results are aligned with keys.
func (r conferenceRepo) getMany(ctx context.Context, q querier, keys []*model.Key) ([]*model.Conference, error) {
	out := make([]*model.Conference, len(keys))
	var (
		ids          []any
		placeholders []string
	)
	for _, k := range keys {
		if _, id, ok := conferenceKeyParts(k); ok {
			ids = append(ids, id)
			placeholders = append(placeholders, "?")
		}
	}
	if len(ids) == 0 {
		return out, nil
	}
	sel := `SELECT ` + conferenceColumns + ` FROM conferences c WHERE c.id IN (` + strings.Join(placeholders, ",") + `)`
	found, err := r.scanAll(ctx, q, sel, ids...)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*model.Conference, len(found))
	for _, c := range found {
		byKey[c.Key.String()] = c
	}
	for i, k := range keys {
		if c, ok := byKey[k.String()]; ok {
			out[i] = c.Clone()
		}
	}
	return out, nil
}

func (r conferenceRepo) query(ctx context.Context, q querier, qq query.Query) ([]*model.Conference, error) {
	where, orderBy, args := qq.SQL()
	sel := `SELECT ` + conferenceColumns + ` FROM conferences ` + query.ConferenceAlias +
		` WHERE ` + where + ` ORDER BY ` + orderBy
	return r.scanAll(ctx, q, sel, args...)
}

func (r conferenceRepo) scanAll(ctx context.Context, q querier, sel string, args ...any) ([]*model.Conference, error) {
	rows, err := q.QueryContext(ctx, sel, args...)
	if err != nil {
		return nil, translate(err)
	}
	var out []*model.Conference
	for rows.Next() {
		c, err := scanConference(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadTopics(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (conferenceRepo) loadTopics(ctx context.Context, q querier, confs []*model.Conference) error {
	if len(confs) == 0 {
		return nil
	}
	byID := make(map[int64]*model.Conference, len(confs))
	args := make([]any, 0, len(confs))
	placeholders := make([]string, 0, len(confs))
	for _, c := range confs {
		if _, seen := byID[c.Key.ID]; !seen {
			args = append(args, c.Key.ID)
			placeholders = append(placeholders, "?")
		}
		byID[c.Key.ID] = c
	}
	rows, err := q.QueryContext(ctx,
		`SELECT conference_id, topic FROM conference_topics WHERE conference_id IN (`+
			strings.Join(placeholders, ",")+`) ORDER BY conference_id, position`, args...)
	if err != nil {
		return translate(err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    int64
			topic string
		)
		if err := rows.Scan(&id, &topic); err != nil {
			return err
		}
		if c, ok := byID[id]; ok {
			c.Topics = append(c.Topics, topic)
		}
	}
	return rows.Err()
}

// put upserts the conference and rewrites its topics. The caller supplies
// the transaction.
func (conferenceRepo) put(ctx context.Context, q querier, c *model.Conference) error {
	organizer, id, ok := conferenceKeyParts(c.Key)
	if !ok {
		return store.ErrIncompleteKey
	}
	const upsert = `INSERT INTO conferences
                        (id, organizer_user_id, name, description, city, start_date, end_date,
                         month, max_attendees, seats_available)
                    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                    ON DUPLICATE KEY UPDATE name = VALUES(name),
                                            description = VALUES(description),
                                            city = VALUES(city),
                                            start_date = VALUES(start_date),
                                            end_date = VALUES(end_date),
                                            month = VALUES(month),
                                            max_attendees = VALUES(max_attendees),
                                            seats_available = VALUES(seats_available)`
	if _, err := q.ExecContext(ctx, upsert, id, organizer, c.Name, c.Description, c.City,
		nullDate(c.StartDate), nullDate(c.EndDate), c.Month, c.MaxAttendees, c.SeatsAvailable); err != nil {
		return translate(err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM conference_topics WHERE conference_id = ?`, id); err != nil {
		return translate(err)
	}
	if len(c.Topics) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO conference_topics (conference_id, position, topic) VALUES `)
	args := make([]any, 0, len(c.Topics)*3)
	for i, t := range c.Topics {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, id, i, t)
	}
	_, err := q.ExecContext(ctx, b.String(), args...)
	return translate(err)
}

// nullDate stores absent dates as NULL.
func nullDate(d model.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
