package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/conference-central/internal/model"
)

var (
	// ErrInvalidFilter covers unknown field or operator tokens and values
	// that cannot be coerced to the field's type.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrMultipleInequalityFields is returned when range predicates target
	// more than one field.
	ErrMultipleInequalityFields = errors.New("inequality filter is allowed on only one field")
)

var conferenceTokens = map[string]Field{
	"CITY":          FieldCity,
	"TOPIC":         FieldTopics,
	"MONTH":         FieldMonth,
	"MAX_ATTENDEES": FieldMaxAttendees,
}

var sessionTokens = map[string]Field{
	"SPEAKER": FieldSpeaker,
	"DATE":    FieldDate,
	"TYPE":    FieldTypeOfSession,
	"TIME":    FieldStartTime,
}

var operatorTokens = map[string]Operator{
	"EQ":   EQ,
	"GT":   GT,
	"GTEQ": GTEQ,
	"LT":   LT,
	"LTEQ": LTEQ,
	"NE":   NE,
}

// ParseField maps a field token to its Field for the given kind.
func ParseField(kind Kind, token string) (Field, error) {
	tokens := conferenceTokens
	if kind == KindSession {
		tokens = sessionTokens
	}
	f, ok := tokens[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, token)
	}
	return f, nil
}

// ParseOperator maps an operator token such as "GTEQ" to its Operator.
func ParseOperator(token string) (Operator, error) {
	op, ok := operatorTokens[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, token)
	}
	return op, nil
}

// Compile validates filters and composes them into a Query for kind.
//
// Range predicates may only target one field, and that field becomes the
// primary sort key followed by name; without range predicates results
// are ordered by name. Compile performs no I/O.
func Compile(kind Kind, filters []model.FilterForm) (Query, error) {
	q := Query{Kind: kind}
	var inequality Field
	for _, f := range filters {
		field, err := ParseField(kind, f.Field)
		if err != nil {
			return Query{}, err
		}
		op, err := ParseOperator(f.Operator)
		if err != nil {
			return Query{}, err
		}
		if op.Inequality() {
			if inequality != "" && inequality != field {
				return Query{}, fmt.Errorf("%w: %s and %s", ErrMultipleInequalityFields, inequality, field)
			}
			inequality = field
		}
		v, err := coerce(field, f.Value)
		if err != nil {
			return Query{}, err
		}
		q.Predicates = append(q.Predicates, Predicate{Field: field, Op: op, Value: v})
	}
	if inequality != "" {
		q.Orders = append(q.Orders, inequality)
	}
	q.Orders = append(q.Orders, FieldName)
	return q, nil
}

func coerce(f Field, raw string) (any, error) {
	switch {
	case f.numeric():
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects an integer, got %q", ErrInvalidFilter, f, raw)
		}
		return n, nil
	case f == FieldDate:
		d, err := model.ParseDate(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects YYYY-MM-DD, got %q", ErrInvalidFilter, f, raw)
		}
		return d, nil
	case f == FieldStartTime:
		hm, err := model.ParseClock(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects HH:MM, got %q", ErrInvalidFilter, f, raw)
		}
		return hm, nil
	}
	return raw, nil
}
