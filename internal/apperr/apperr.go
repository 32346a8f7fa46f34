// Package apperr defines the domain error type shared by services and the
// HTTP boundary. Every failure a service returns carries a machine-readable
// Kind; the HTTP layer maps kinds to status codes from a single table and
// never inspects error strings.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind int

const (
	// KindInternal covers infrastructure failures (database, redis, mail,
	// hashing, config). Details are logged, never returned to the caller.
	KindInternal Kind = iota
	KindNotFound
	KindResourceExists
	KindUnauthorized
	KindUserNotActive
	KindInvalidSession
	KindBadRequest
	KindInvalidInput
	KindPermissionDenied
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindResourceExists:
		return "RESOURCE_EXISTS"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindUserNotActive:
		return "USER_NOT_ACTIVE"
	case KindInvalidSession:
		return "INVALID_SESSION"
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindPermissionDenied:
		return "PERMISSION_DENIED"
	case KindConflict:
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}

// Error is a tagged domain error. Message is safe to show to callers;
// the wrapped error is not.
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

// New creates an Error with the given kind and caller-visible message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and safe message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Internal wraps an infrastructure failure. The caller-visible message is
// always generic.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-visible message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
