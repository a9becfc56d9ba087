package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/conference-central/internal/model"
	"github.com/iliyamo/conference-central/internal/query"
	"github.com/iliyamo/conference-central/internal/store"
)

// Kind classifies service failures. Handlers map kinds to HTTP statuses.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindValidation
	KindNotFound
	KindAuthorization
	KindConflict
	KindInvalidFilter
	KindMultipleInequalityFields
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindAuthorization:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidFilter:
		return "invalid filter"
	case KindMultipleInequalityFields:
		return "multiple inequality fields"
	}
	return "internal"
}

// Error is the typed failure returned by every service operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind when the target carries no
// message, so errors.Is(err, ErrConflict) works for every conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnauthenticated          = &Error{Kind: KindUnauthenticated}
	ErrValidation               = &Error{Kind: KindValidation}
	ErrNotFound                 = &Error{Kind: KindNotFound}
	ErrAuthorization            = &Error{Kind: KindAuthorization}
	ErrConflict                 = &Error{Kind: KindConflict}
	ErrInvalidFilter            = &Error{Kind: KindInvalidFilter}
	ErrMultipleInequalityFields = &Error{Kind: KindMultipleInequalityFields}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// translate maps lower-layer sentinels onto the service taxonomy. what
// describes the entity for not-found messages.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var se *Error
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, store.ErrNotFound), errors.Is(err, model.ErrInvalidKey):
		return &Error{Kind: KindNotFound, Msg: "No " + what + " found", Err: err}
	case errors.Is(err, store.ErrContention):
		return &Error{Kind: KindConflict, Msg: "too much contention, please retry", Err: err}
	case errors.Is(err, query.ErrMultipleInequalityFields):
		return &Error{Kind: KindMultipleInequalityFields, Msg: "Inequality filter is allowed on only one field.", Err: err}
	case errors.Is(err, query.ErrInvalidFilter):
		return &Error{Kind: KindInvalidFilter, Msg: "Filter contains invalid field or operator.", Err: err}
	}
	return err
}
