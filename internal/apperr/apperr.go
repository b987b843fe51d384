// Package apperr carries a classification code alongside an error message
// so the workflow layer can tag failures (unauthorized, not found, conflict,
// invalid state, forbidden, upstream) and the HTTP layer can map them to
// status codes without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the API surface.
type Kind string

const (
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindInvalidState Kind = "INVALID_STATE"
	KindForbidden    Kind = "FORBIDDEN"
	KindUpstream     Kind = "UPSTREAM_ERROR"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error is a classified error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a message and classification. If err is already
// classified, the inner kind wins so re-wrapping never erases the original
// classification.
func Wrap(kind Kind, err error, message string) *Error {
	if inner := KindOf(err); inner != KindInternal {
		kind = inner
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, walking the wrap chain.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
