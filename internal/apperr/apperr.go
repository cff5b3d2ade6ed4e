// Package apperr defines the error kinds surfaced by the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindServerError Kind = iota
	KindUnauthorized
	KindForbidden
	KindInvalidInput
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "server_error"
	}
}

// Error carries a kind, a message safe to show to the caller and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Unauthorized(msg string) error { return New(KindUnauthorized, msg) }
func Forbidden(msg string) error    { return New(KindForbidden, msg) }
func InvalidInput(msg string) error { return New(KindInvalidInput, msg) }
func NotFound(msg string) error     { return New(KindNotFound, msg) }
func Conflict(msg string) error     { return New(KindConflict, msg) }

// Server wraps a storage or transport failure. The cause is kept for logging only.
func Server(msg string, err error) error { return Wrap(KindServerError, msg, err) }

// KindOf reports the kind of err. Errors that are not *Error are server errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServerError
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Message returns the caller-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
