// Package fault defines the error taxonomy shared by all use cases.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transport layers can map it to a status code
// and callers can branch without string matching.
type Kind int

const (
	// KindInternal is an unexpected failure; storage details are not exposed.
	KindInternal Kind = iota
	// KindValidation means the input was missing or malformed.
	KindValidation
	// KindNotFound means the referenced entity does not exist.
	KindNotFound
	// KindAuthorization means the actor does not own the resource.
	KindAuthorization
	// KindConflict means the operation lost to a competing fact: duplicate
	// registration, deadline passed, capacity or stock exhausted, team full,
	// invite already processed.
	KindConflict
	// KindState means the entity is not in the status the operation requires.
	KindState
)

// String returns a stable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	default:
		return "internal"
	}
}

// Error carries a kind, a human-readable message, and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// Message returns the human-readable message without the kind prefix.
func (e *Error) Message() string { return e.Msg }

// Validationf builds a validation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Authorizationf builds an authorization error.
func Authorizationf(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict error.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Statef builds a state error.
func Statef(format string, args ...any) *Error {
	return &Error{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected error behind a generic message so storage
// internals never leak to callers.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
