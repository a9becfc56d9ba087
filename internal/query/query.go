// Package query turns user supplied filter triples into validated,
// ordered queries over conferences and sessions. A Query is plain data:
// the memory store evaluates it with Match/Less and the MySQL store
// renders it with SQL.
package query

import "github.com/iliyamo/conference-central/internal/model"

// Kind selects the entity a query runs against.
type Kind string

const (
	KindConference Kind = "conference"
	KindSession    Kind = "session"
)

// Field is the closed set of queryable entity properties. Only a subset
// is reachable from user tokens; the rest are used by internal listings.
type Field string

const (
	FieldName            Field = "name"
	FieldCity            Field = "city"
	FieldTopics          Field = "topics"
	FieldMonth           Field = "month"
	FieldMaxAttendees    Field = "maxAttendees"
	FieldSeatsAvailable  Field = "seatsAvailable"
	FieldOrganizerUserID Field = "organizerUserId"

	FieldSpeaker       Field = "speaker"
	FieldDate          Field = "date"
	FieldTypeOfSession Field = "typeOfSession"
	FieldStartTime     Field = "startTime"
	FieldCreatorUserID Field = "creatorUserId"
)

// numeric reports whether values of f are integers.
func (f Field) numeric() bool {
	switch f {
	case FieldMonth, FieldMaxAttendees, FieldSeatsAvailable:
		return true
	}
	return false
}

// Operator is one of the six comparison operators.
type Operator int

const (
	EQ Operator = iota
	GT
	GTEQ
	LT
	LTEQ
	NE
)

var operatorSymbols = [...]string{EQ: "=", GT: ">", GTEQ: ">=", LT: "<", LTEQ: "<=", NE: "!="}

func (o Operator) String() string {
	if int(o) < 0 || int(o) >= len(operatorSymbols) {
		return "?"
	}
	return operatorSymbols[o]
}

// Inequality reports whether o is anything but equality.
func (o Operator) Inequality() bool { return o != EQ }

// Predicate is a single typed comparison. Value is a string, an int or a
// model.Date depending on the field.
type Predicate struct {
	Field Field
	Op    Operator
	Value any
}

// Query is a composed predicate set with its sort order.
type Query struct {
	Kind       Kind
	Ancestor   *model.Key
	Predicates []Predicate
	Orders     []Field
}

// Conferences starts an unfiltered conference query.
func Conferences() Query { return Query{Kind: KindConference} }

// Sessions starts an unfiltered session query.
func Sessions() Query { return Query{Kind: KindSession} }

// WithAncestor restricts the query to descendants of key.
func (q Query) WithAncestor(key *model.Key) Query {
	q.Ancestor = key
	return q
}

// Where appends a predicate. It is meant for trusted, internal queries;
// user input goes through Compile.
func (q Query) Where(f Field, op Operator, v any) Query {
	q.Predicates = append(append([]Predicate(nil), q.Predicates...), Predicate{Field: f, Op: op, Value: v})
	return q
}

// OrderBy appends an ascending sort key.
func (q Query) OrderBy(f Field) Query {
	q.Orders = append(append([]Field(nil), q.Orders...), f)
	return q
}

// InequalityField returns the field carrying range predicates, if any.
func (q Query) InequalityField() (Field, bool) {
	for _, p := range q.Predicates {
		if p.Op.Inequality() {
			return p.Field, true
		}
	}
	return "", false
}
