package shared

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and transports.
type Kind string

const (
	KindValidation  Kind = "ValidationError"
	KindNotFound    Kind = "NotFoundError"
	KindConflict    Kind = "ConflictError"
	KindUnavailable Kind = "UnavailableError"
)

var (
	// ErrValidation matches every malformed or out-of-range input error.
	ErrValidation = &Error{Kind: KindValidation, Message: "validation failed"}
	// ErrNotFound matches every missing-entity error.
	ErrNotFound = &Error{Kind: KindNotFound, Message: "not found"}
	// ErrConflict matches every state-invariant violation.
	ErrConflict = &Error{Kind: KindConflict, Message: "conflict"}
	// ErrUnavailable matches storage outages and unexpected failures.
	ErrUnavailable = &Error{Kind: KindUnavailable, Message: "service unavailable"}
)

// Error is a kinded error with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	switch t {
	case ErrValidation, ErrNotFound, ErrConflict, ErrUnavailable:
		return t.Kind == e.Kind
	}
	return false
}

// Validation builds a ValidationError.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Validationf builds a formatted ValidationError.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound builds a NotFoundError.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict builds a ConflictError.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Unavailable wraps err as an UnavailableError.
func Unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// KindOf returns the kind carried by err. Unclassified errors are unavailable.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// UserSafeMessage returns the message that may be shown to API clients.
func UserSafeMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnavailable {
		return e.Error()
	}
	return "service temporarily unavailable"
}
