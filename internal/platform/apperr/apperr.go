// Package apperr defines the error taxonomy shared by services and handlers.
//
// Services return *Error values for anticipated domain failures. Anything
// else that reaches a handler is treated as an infrastructure failure.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a classified application error.
type Error struct {
	Kind     Kind
	Resource string // set for NotFound
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports that the named resource does not exist.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, Message: resource + " not found"}
}

// Conflict reports that a domain invariant would be violated.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed input.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unavailable reports a transient infrastructure condition; the caller may resubmit.
func Unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool    { return err != nil && KindOf(err) == KindNotFound }
func IsConflict(err error) bool    { return err != nil && KindOf(err) == KindConflict }
func IsValidation(err error) bool  { return err != nil && KindOf(err) == KindValidation }
func IsUnavailable(err error) bool { return err != nil && KindOf(err) == KindUnavailable }

// Message returns the client-safe message of err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		if ae.Message != "" {
			return ae.Message
		}
		return ae.Kind.String()
	}
	return "internal server error"
}
