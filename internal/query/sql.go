package query

import (
	"strings"

	"github.com/iliyamo/conference-central/internal/model"
)

// Table aliases used by the MySQL store when selecting entities.
const (
	ConferenceAlias = "c"
	SessionAlias    = "s"
)

var conferenceColumns = map[Field]string{
	FieldName:            "c.name",
	FieldCity:            "c.city",
	FieldMonth:           "c.month",
	FieldMaxAttendees:    "c.max_attendees",
	FieldSeatsAvailable:  "c.seats_available",
	FieldOrganizerUserID: "c.organizer_user_id",
}

var sessionColumns = map[Field]string{
	FieldName:          "s.name",
	FieldSpeaker:       "s.speaker",
	FieldDate:          "s.session_date",
	FieldTypeOfSession: "s.type_of_session",
	FieldStartTime:     "s.start_time",
	FieldCreatorUserID: "s.creator_user_id",
}

const (
	topicExists = "EXISTS (SELECT 1 FROM conference_topics t WHERE t.conference_id = c.id AND t.topic %s ?)"
	topicMin    = "(SELECT MIN(t.topic) FROM conference_topics t WHERE t.conference_id = c.id)"
)

// SQL renders the query as a WHERE condition, an ORDER BY list and the
// positional arguments for the condition. Topics live in their own table,
// so topic predicates become EXISTS sub-queries and ordering by topics
// uses the smallest topic, matching the in-memory semantics.
func (q Query) SQL() (where string, orderBy string, args []any) {
	cols := conferenceColumns
	if q.Kind == KindSession {
		cols = sessionColumns
	}
	conds := []string{}
	if q.Ancestor != nil {
		c, a := ancestorCondition(q.Kind, q.Ancestor)
		conds = append(conds, c...)
		args = append(args, a...)
	}
	for _, p := range q.Predicates {
		if p.Field == FieldTopics {
			conds = append(conds, strings.Replace(topicExists, "%s", p.Op.String(), 1))
		} else {
			conds = append(conds, cols[p.Field]+" "+p.Op.String()+" ?")
		}
		args = append(args, sqlArg(p.Value))
	}
	where = "1=1"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}
	orders := make([]string, 0, len(q.Orders)+1)
	for _, f := range q.Orders {
		col := cols[f]
		if f == FieldTopics {
			col = topicMin
		}
		orders = append(orders, col+" ASC")
	}
	// id keeps the order total when every sort key ties
	if q.Kind == KindSession {
		orders = append(orders, "s.id ASC")
	} else {
		orders = append(orders, "c.id ASC")
	}
	return where, strings.Join(orders, ", "), args
}

func ancestorCondition(kind Kind, k *model.Key) ([]string, []any) {
	alias := ConferenceAlias
	if kind == KindSession {
		alias = SessionAlias
	}
	switch k.Kind {
	case model.KindProfile:
		return []string{alias + ".organizer_user_id = ?"}, []any{k.Name}
	case model.KindConference:
		if kind == KindSession {
			return []string{"s.conference_id = ?"}, []any{k.ID}
		}
		return []string{"c.id = ?"}, []any{k.ID}
	}
	// session ancestors never match a conference query
	return []string{"1=0"}, nil
}

func sqlArg(v any) any {
	if d, ok := v.(model.Date); ok {
		return d.String()
	}
	return v
}
