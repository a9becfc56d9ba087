package query

import (
	"cmp"

	"github.com/iliyamo/conference-central/internal/model"
)

// values returns the property values of e for f. Multi-valued properties
// (topics) yield one entry per element.
func values(e any, f Field) []any {
	switch v := e.(type) {
	case *model.Conference:
		switch f {
		case FieldName:
			return []any{v.Name}
		case FieldCity:
			return []any{v.City}
		case FieldTopics:
			out := make([]any, len(v.Topics))
			for i, t := range v.Topics {
				out[i] = t
			}
			return out
		case FieldMonth:
			return []any{v.Month}
		case FieldMaxAttendees:
			return []any{v.MaxAttendees}
		case FieldSeatsAvailable:
			return []any{v.SeatsAvailable}
		case FieldOrganizerUserID:
			return []any{v.OrganizerUserID}
		}
	case *model.Session:
		switch f {
		case FieldName:
			return []any{v.Name}
		case FieldSpeaker:
			return []any{v.Speaker}
		case FieldDate:
			// an unset date has no value, like NULL in SQL
			if v.Date.IsZero() {
				return nil
			}
			return []any{v.Date}
		case FieldTypeOfSession:
			return []any{v.TypeOfSession}
		case FieldStartTime:
			return []any{v.StartTime}
		case FieldCreatorUserID:
			return []any{v.CreatorUserID}
		}
	}
	return nil
}

// compare orders two values of the same field type. Mismatched types
// compare as equal so they never satisfy a range predicate by accident.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return cmp.Compare(x, y), ok
	case int:
		y, ok := b.(int)
		return cmp.Compare(x, y), ok
	case model.Date:
		y, ok := b.(model.Date)
		if !ok {
			return 0, false
		}
		return x.Time().Compare(y.Time()), true
	}
	return 0, false
}

func (p Predicate) holds(v any) bool {
	c, ok := compare(v, p.Value)
	if !ok {
		return false
	}
	switch p.Op {
	case EQ:
		return c == 0
	case GT:
		return c > 0
	case GTEQ:
		return c >= 0
	case LT:
		return c < 0
	case LTEQ:
		return c <= 0
	case NE:
		return c != 0
	}
	return false
}

// Match reports whether entity e (a *model.Conference or *model.Session)
// satisfies every predicate. A multi-valued property satisfies a
// predicate when any of its values does.
func (q Query) Match(e any, key *model.Key) bool {
	if q.Ancestor != nil && (key == nil || !key.HasAncestor(q.Ancestor)) {
		return false
	}
	for _, p := range q.Predicates {
		ok := false
		for _, v := range values(e, p.Field) {
			if p.holds(v) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Compare orders a and b by the query's sort keys. Multi-valued
// properties sort by their smallest value.
func (q Query) Compare(a, b any) int {
	for _, f := range q.Orders {
		av, aok := smallest(values(a, f))
		bv, bok := smallest(values(b, f))
		switch {
		case !aok && !bok:
			continue
		case !aok:
			return -1
		case !bok:
			return 1
		}
		if c, _ := compare(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

func smallest(vs []any) (any, bool) {
	if len(vs) == 0 {
		return nil, false
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if c, _ := compare(v, m); c < 0 {
			m = v
		}
	}
	return m, true
}
