package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/store"
)

// profileRepo maps model.Profile onto the profiles table plus the
// ordered attendance list in profile_conferences.
type profileRepo struct{}

func (profileRepo) get(ctx context.Context, q querier, userID string, lock bool) (*model.Profile, error) {
	sel := `SELECT user_id, display_name, main_email, tee_shirt_size FROM profiles WHERE user_id = ?`
	if lock {
		sel += " FOR UPDATE"
	}
	p := &model.Profile{}
	var size string
	if err := q.QueryRowContext(ctx, sel, userID).Scan(&p.UserID, &p.DisplayName, &p.MainEmail, &size); err != nil {
		return nil, translate(err)
	}
	p.TeeShirtSize = model.TeeShirtSize(size)

	rows, err := q.QueryContext(ctx,
		`SELECT conference_key FROM profile_conferences WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		p.ConferenceKeysToAttend = append(p.ConferenceKeysToAttend, k)
	}
	return p, rows.Err()
}

// put upserts the profile row and rewrites the attendance list. The
// caller supplies the transaction.
func (profileRepo) put(ctx context.Context, q querier, p *model.Profile) error {
	if p.UserID == "" {
		return store.ErrIncompleteKey
	}
	size := p.TeeShirtSize
	if size == "" {
		size = model.TeeShirtNotSpecified
	}
	const upsert = `INSERT INTO profiles (user_id, display_name, main_email, tee_shirt_size)
                    VALUES (?, ?, ?, ?)
                    ON DUPLICATE KEY UPDATE display_name = VALUES(display_name),
                                            main_email = VALUES(main_email),
                                            tee_shirt_size = VALUES(tee_shirt_size)`
	if _, err := q.ExecContext(ctx, upsert, p.UserID, p.DisplayName, p.MainEmail, string(size)); err != nil {
		return translate(err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM profile_conferences WHERE user_id = ?`, p.UserID); err != nil {
		return translate(err)
	}
	if len(p.ConferenceKeysToAttend) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO profile_conferences (user_id, position, conference_key) VALUES `)
	args := make([]any, 0, len(p.ConferenceKeysToAttend)*3)
	for i, k := range p.ConferenceKeysToAttend {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, p.UserID, i, k)
	}
	_, err := q.ExecContext(ctx, b.String(), args...)
	return translate(err)
}
