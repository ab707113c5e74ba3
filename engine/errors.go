package engine

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by the engine wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrInvalidField         = errors.New("invalid field")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrDuplicateCombination = errors.New("duplicate combination")
	ErrConfiguration        = errors.New("configuration error")
)

// Error describes a failed engine call.
type Error struct {
	Kind   error  // one of the Err* kinds above
	Op     string // "aggregate", "top_n", "pivot", "reindex", ...
	Field  string // offending field or label, if any
	Detail string
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" %q", e.Field)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, op, field, detail string) *Error {
	return &Error{Kind: kind, Op: op, Field: field, Detail: detail}
}
