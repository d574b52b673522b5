package services

import (
	"errors"
	"fmt"

	"github.com/anjiri1684/quizmaster/models"
)

type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindForbidden  ErrorKind = "forbidden"
	KindConflict   ErrorKind = "conflict"
	KindValidation ErrorKind = "validation"
	KindInternal   ErrorKind = "internal"
)

// Error is returned by every service operation that fails. Attempt is only
// set for a start conflict, so the client can resume the existing attempt.
type Error struct {
	Kind    ErrorKind
	Message string
	Attempt *models.Attempt
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func invalid(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the kind of a service error, or KindInternal for anything else.
func KindOf(err error) ErrorKind {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	return KindInternal
}

// storeError converts a store failure into a service error, mapping the
// not-found sentinel to the given message.
func storeError(err error, missing string) *Error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return notFound(missing)
	case errors.Is(err, models.ErrAttemptNotActive):
		return conflict("Attempt is no longer active")
	default:
		return internal("Storage failure", err)
	}
}
