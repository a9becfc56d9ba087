package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/conference-central/internal/metrics"
	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/query"
	"github.com/iliyamo/conference-central/internal/queue"
	"github.com/iliyamo/conference-central/internal/store"
)

// Defaults applied to absent optional fields on create.
const (
	DefaultCity          = "Default City"
	DefaultHighlights    = "Default content"
	DefaultTypeOfSession = "lecture"

	confirmationSubject = "You created a new Conference!"
	confirmationBody    = "Hi, you have created a following conference:\r\n\r\n%s"
)

// DefaultTopics returns a fresh copy of the default topic list.
func DefaultTopics() []string { return []string{"Default", "Topic"} }

// Lifecycle creates, updates and lists conferences and sessions.
type Lifecycle struct {
	store   store.Store
	tx      *Transactor
	tasks   queue.Dispatcher
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewLifecycle(s store.Store, tx *Transactor, tasks queue.Dispatcher, m *metrics.Metrics, log *slog.Logger) *Lifecycle {
	return &Lifecycle{store: s, tx: tx, tasks: tasks, metrics: m, log: log.With("component", "lifecycle")}
}

func parseDate(field, raw string) (model.Date, error) {
	if raw == "" {
		return model.Date{}, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, newError(KindValidation, "%s must be YYYY-MM-DD, got %q", field, raw)
	}
	return d, nil
}

func checkDateRange(c *model.Conference) error {
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return newError(KindValidation, "endDate %s is before startDate %s", c.EndDate, c.StartDate)
	}
	return nil
}

// parseStartTime returns raw in canonical HH:MM form, or "" when unset.
func parseStartTime(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	hm, err := model.ParseClock(raw)
	if err != nil {
		return "", newError(KindValidation, "startTime must be HH:MM, got %q", raw)
	}
	return hm, nil
}

// CreateConference stores a new conference owned by the caller.
func (l *Lifecycle) CreateConference(ctx context.Context, id Identity, form model.ConferenceForm) (model.ConferenceForm, error) {
	if err := requireIdentity(id); err != nil {
		return model.ConferenceForm{}, err
	}
	if strings.TrimSpace(form.Name) == "" {
		return model.ConferenceForm{}, newError(KindValidation, "Conference 'name' field required")
	}

	conf := &model.Conference{
		Name:            form.Name,
		Description:     form.Description,
		OrganizerUserID: id.UserID,
		Topics:          form.Topics,
		City:            form.City,
	}
	if len(conf.Topics) == 0 {
		conf.Topics = DefaultTopics()
	}
	if conf.City == "" {
		conf.City = DefaultCity
	}
	if form.MaxAttendees != nil {
		if *form.MaxAttendees < 0 {
			return model.ConferenceForm{}, newError(KindValidation, "maxAttendees must not be negative")
		}
		conf.MaxAttendees = *form.MaxAttendees
		conf.SeatsAvailable = conf.MaxAttendees
	}
	start, err := parseDate("startDate", form.StartDate)
	if err != nil {
		return model.ConferenceForm{}, err
	}
	conf.SetStartDate(start)
	if conf.EndDate, err = parseDate("endDate", form.EndDate); err != nil {
		return model.ConferenceForm{}, err
	}
	if err := checkDateRange(conf); err != nil {
		return model.ConferenceForm{}, err
	}

	parent := model.ProfileKey(id.UserID)
	cid, err := l.store.AllocateID(ctx, model.KindConference, parent)
	if err != nil {
		return model.ConferenceForm{}, fmt.Errorf("allocate conference id: %w", err)
	}
	conf.Key = model.ConferenceKey(id.UserID, cid)
	if err := l.store.PutConference(ctx, conf); err != nil {
		return model.ConferenceForm{}, fmt.Errorf("put conference: %w", err)
	}
	l.log.InfoContext(ctx, "conference created", "key", conf.Key.String(), "organizer", id.UserID, "seats", conf.SeatsAvailable)

	out := model.ConferenceToForm(conf, "")
	if id.Email != "" {
		l.enqueue(ctx, queue.NewConfirmationEmail(queue.ConfirmationEmail{
			To:      id.Email,
			Subject: confirmationSubject,
			Body:    fmt.Sprintf(confirmationBody, describeConference(out)),
		}))
	}
	return out, nil
}

func describeConference(f model.ConferenceForm) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\r\n", f.Name)
	if f.Description != "" {
		fmt.Fprintf(&b, "description: %s\r\n", f.Description)
	}
	fmt.Fprintf(&b, "city: %s\r\n", f.City)
	fmt.Fprintf(&b, "topics: %s\r\n", strings.Join(f.Topics, ", "))
	if f.StartDate != "" {
		fmt.Fprintf(&b, "dates: %s - %s\r\n", f.StartDate, f.EndDate)
	}
	if f.MaxAttendees != nil {
		fmt.Fprintf(&b, "maxAttendees: %d\r\n", *f.MaxAttendees)
	}
	fmt.Fprintf(&b, "websafeKey: %s", f.WebsafeKey)
	return b.String()
}

// enqueue hands t to the dispatcher. Failures are logged and counted but
// never fail the calling operation.
func (l *Lifecycle) enqueue(ctx context.Context, t queue.Task) {
	if err := l.tasks.Enqueue(ctx, t); err != nil {
		l.metrics.IncrementTask(string(t.Type), "error")
		l.log.WarnContext(ctx, "enqueue task failed", "task_id", t.ID, "type", t.Type, "err", err)
		return
	}
	l.metrics.IncrementTask(string(t.Type), "ok")
}

// UpdateConference applies the non-empty fields of form. Only the
// organizer may update. A new maxAttendees keeps the current attendees
// and moves seatsAvailable by the same delta.
func (l *Lifecycle) UpdateConference(ctx context.Context, id Identity, wsck string, form model.ConferenceForm) (model.ConferenceForm, error) {
	if err := requireIdentity(id); err != nil {
		return model.ConferenceForm{}, err
	}
	key, err := decodeConferenceKey(wsck)
	if err != nil {
		return model.ConferenceForm{}, err
	}
	start, err := parseDate("startDate", form.StartDate)
	if err != nil {
		return model.ConferenceForm{}, err
	}
	end, err := parseDate("endDate", form.EndDate)
	if err != nil {
		return model.ConferenceForm{}, err
	}

	var updated *model.Conference
	err = l.tx.RunInTransaction(ctx, store.TxOptions{}, func(tx store.Tx) error {
		conf, err := getConference(ctx, tx, key)
		if err != nil {
			return err
		}
		if conf.OrganizerUserID != id.UserID {
			return newError(KindAuthorization, "Only the owner can update the conference.")
		}
		if form.Name != "" {
			conf.Name = form.Name
		}
		if form.Description != "" {
			conf.Description = form.Description
		}
		if len(form.Topics) > 0 {
			conf.Topics = form.Topics
		}
		if form.City != "" {
			conf.City = form.City
		}
		if !start.IsZero() {
			conf.SetStartDate(start)
		}
		if !end.IsZero() {
			conf.EndDate = end
		}
		if err := checkDateRange(conf); err != nil {
			return err
		}
		if form.MaxAttendees != nil {
			attendees := conf.Attendees()
			if *form.MaxAttendees < attendees {
				return newError(KindValidation, "maxAttendees %d is below the %d registered attendees", *form.MaxAttendees, attendees)
			}
			conf.MaxAttendees = *form.MaxAttendees
			conf.SeatsAvailable = conf.MaxAttendees - attendees
		}
		updated = conf
		return tx.PutConference(ctx, conf)
	})
	if err != nil {
		return model.ConferenceForm{}, err
	}
	name, err := displayName(ctx, l.store, updated.OrganizerUserID, id.Nickname)
	if err != nil {
		return model.ConferenceForm{}, err
	}
	return model.ConferenceToForm(updated, name), nil
}

// GetConference returns one conference with its organizer's display name.
func (l *Lifecycle) GetConference(ctx context.Context, wsck string) (model.ConferenceForm, error) {
	key, err := decodeConferenceKey(wsck)
	if err != nil {
		return model.ConferenceForm{}, err
	}
	conf, err := getConference(ctx, l.store, key)
	if err != nil {
		return model.ConferenceForm{}, err
	}
	name, err := displayName(ctx, l.store, conf.OrganizerUserID, "")
	if err != nil {
		return model.ConferenceForm{}, err
	}
	return model.ConferenceToForm(conf, name), nil
}

// QueryConferences compiles the filters and runs the query.
func (l *Lifecycle) QueryConferences(ctx context.Context, form model.QueryForm) ([]model.ConferenceForm, error) {
	q, err := query.Compile(query.KindConference, form.Filters)
	if err != nil {
		return nil, translate(err, "")
	}
	confs, err := l.store.QueryConferences(ctx, q)
	if err != nil {
		return nil, translate(err, "")
	}
	names := newNameCache(l.store)
	out := make([]model.ConferenceForm, 0, len(confs))
	for _, c := range confs {
		name, err := names.lookup(ctx, c.OrganizerUserID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.ConferenceToForm(c, name))
	}
	return out, nil
}

// ConferencesByOrganizer lists the caller's conferences by name.
func (l *Lifecycle) ConferencesByOrganizer(ctx context.Context, id Identity) ([]model.ConferenceForm, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	confs, err := l.store.QueryConferences(ctx, query.Conferences().
		WithAncestor(model.ProfileKey(id.UserID)).
		OrderBy(query.FieldName))
	if err != nil {
		return nil, err
	}
	name, err := displayName(ctx, l.store, id.UserID, id.Nickname)
	if err != nil {
		return nil, err
	}
	out := make([]model.ConferenceForm, 0, len(confs))
	for _, c := range confs {
		out = append(out, model.ConferenceToForm(c, name))
	}
	return out, nil
}

// CreateSession stores a new session under an existing conference. Any
// signed-in user may add sessions and becomes their creator.
func (l *Lifecycle) CreateSession(ctx context.Context, id Identity, wsck string, form model.SessionForm) (model.SessionForm, error) {
	if err := requireIdentity(id); err != nil {
		return model.SessionForm{}, err
	}
	if strings.TrimSpace(form.Name) == "" {
		return model.SessionForm{}, newError(KindValidation, "Session 'name' field required")
	}
	confKey, err := decodeConferenceKey(wsck)
	if err != nil {
		return model.SessionForm{}, err
	}
	if _, err := getConference(ctx, l.store, confKey); err != nil {
		return model.SessionForm{}, err
	}

	sess := &model.Session{
		Name:          form.Name,
		Highlights:    form.Highlights,
		Speaker:       form.Speaker,
		StartTime:     form.StartTime,
		TypeOfSession: form.TypeOfSession,
		CreatorUserID: id.UserID,
	}
	if sess.Highlights == "" {
		sess.Highlights = DefaultHighlights
	}
	if sess.TypeOfSession == "" {
		sess.TypeOfSession = DefaultTypeOfSession
	}
	if sess.StartTime, err = parseStartTime(sess.StartTime); err != nil {
		return model.SessionForm{}, err
	}
	if form.Duration != nil {
		if *form.Duration < 0 {
			return model.SessionForm{}, newError(KindValidation, "duration must not be negative")
		}
		sess.Duration = *form.Duration
	}
	if sess.Date, err = parseDate("date", form.Date); err != nil {
		return model.SessionForm{}, err
	}

	sid, err := l.store.AllocateID(ctx, model.KindSession, confKey)
	if err != nil {
		return model.SessionForm{}, fmt.Errorf("allocate session id: %w", err)
	}
	sess.Key = model.SessionKey(confKey, sid)
	if err := l.store.PutSession(ctx, sess); err != nil {
		return model.SessionForm{}, fmt.Errorf("put session: %w", err)
	}
	l.log.InfoContext(ctx, "session created", "key", sess.Key.String(), "creator", id.UserID)

	if sess.Speaker != "" {
		l.enqueue(ctx, queue.NewFeaturedSpeaker(sess.Speaker, confKey.Encode()))
	}
	name, err := displayName(ctx, l.store, id.UserID, id.Nickname)
	if err != nil {
		return model.SessionForm{}, err
	}
	return model.SessionToForm(sess, name), nil
}

// UpdateSession applies the non-empty fields of form. Only the session's
// creator may update it.
func (l *Lifecycle) UpdateSession(ctx context.Context, id Identity, wssk string, form model.SessionForm) (model.SessionForm, error) {
	if err := requireIdentity(id); err != nil {
		return model.SessionForm{}, err
	}
	key, err := decodeSessionKey(wssk)
	if err != nil {
		return model.SessionForm{}, err
	}
	date, err := parseDate("date", form.Date)
	if err != nil {
		return model.SessionForm{}, err
	}
	startTime, err := parseStartTime(form.StartTime)
	if err != nil {
		return model.SessionForm{}, err
	}
	if form.Duration != nil && *form.Duration < 0 {
		return model.SessionForm{}, newError(KindValidation, "duration must not be negative")
	}

	var updated *model.Session
	err = l.tx.RunInTransaction(ctx, store.TxOptions{}, func(tx store.Tx) error {
		sess, err := tx.GetSession(ctx, key)
		if err != nil {
			return translate(err, "session with key: "+wssk)
		}
		if sess.CreatorUserID != id.UserID {
			return newError(KindAuthorization, "Only the owner can update the session.")
		}
		if form.Name != "" {
			sess.Name = form.Name
		}
		if form.Highlights != "" {
			sess.Highlights = form.Highlights
		}
		if form.Speaker != "" {
			sess.Speaker = form.Speaker
		}
		if !date.IsZero() {
			sess.Date = date
		}
		if startTime != "" {
			sess.StartTime = startTime
		}
		if form.Duration != nil {
			sess.Duration = *form.Duration
		}
		if form.TypeOfSession != "" {
			sess.TypeOfSession = form.TypeOfSession
		}
		updated = sess
		return tx.PutSession(ctx, sess)
	})
	if err != nil {
		return model.SessionForm{}, err
	}
	name, err := displayName(ctx, l.store, updated.CreatorUserID, id.Nickname)
	if err != nil {
		return model.SessionForm{}, err
	}
	return model.SessionToForm(updated, name), nil
}

// GetSession returns one session with its creator's display name.
func (l *Lifecycle) GetSession(ctx context.Context, wssk string) (model.SessionForm, error) {
	key, err := decodeSessionKey(wssk)
	if err != nil {
		return model.SessionForm{}, err
	}
	sess, err := l.store.GetSession(ctx, key)
	if err != nil {
		return model.SessionForm{}, translate(err, "session with key: "+wssk)
	}
	name, err := displayName(ctx, l.store, sess.CreatorUserID, "")
	if err != nil {
		return model.SessionForm{}, err
	}
	return model.SessionToForm(sess, name), nil
}

// SessionsByConference lists the sessions of an existing conference.
func (l *Lifecycle) SessionsByConference(ctx context.Context, wsck string) ([]model.SessionForm, error) {
	key, err := decodeConferenceKey(wsck)
	if err != nil {
		return nil, err
	}
	if _, err := getConference(ctx, l.store, key); err != nil {
		return nil, err
	}
	return l.sessions(ctx, query.Sessions().WithAncestor(key).OrderBy(query.FieldName))
}

// SessionsByCreator lists the sessions the caller created.
func (l *Lifecycle) SessionsByCreator(ctx context.Context, id Identity) ([]model.SessionForm, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	return l.sessions(ctx, query.Sessions().
		Where(query.FieldCreatorUserID, query.EQ, id.UserID).
		OrderBy(query.FieldName))
}

// QuerySessions compiles the filters and runs the query.
func (l *Lifecycle) QuerySessions(ctx context.Context, form model.QueryForm) ([]model.SessionForm, error) {
	q, err := query.Compile(query.KindSession, form.Filters)
	if err != nil {
		return nil, translate(err, "")
	}
	return l.sessions(ctx, q)
}

func (l *Lifecycle) sessions(ctx context.Context, q query.Query) ([]model.SessionForm, error) {
	found, err := l.store.QuerySessions(ctx, q)
	if err != nil {
		return nil, translate(err, "")
	}
	names := newNameCache(l.store)
	out := make([]model.SessionForm, 0, len(found))
	for _, s := range found {
		name, err := names.lookup(ctx, s.CreatorUserID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.SessionToForm(s, name))
	}
	return out, nil
}

// nameCache memoizes display names for the duration of one listing.
type nameCache struct {
	g     store.Getter
	names map[string]string
}

func newNameCache(g store.Getter) *nameCache {
	return &nameCache{g: g, names: make(map[string]string)}
}

func (c *nameCache) lookup(ctx context.Context, userID string) (string, error) {
	if n, ok := c.names[userID]; ok {
		return n, nil
	}
	n, err := displayName(ctx, c.g, userID, "")
	if err != nil {
		return "", err
	}
	c.names[userID] = n
	return n, nil
}
