// Package apperr defines the error taxonomy shared by repositories, services
// and handlers. Callers match categories with errors.Is against the
// sentinel values and read the user-facing message with Message.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication error")
	ErrAuthorization  = errors.New("authorization error")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
)

// InternalMessage is what clients see for anything outside the taxonomy.
const InternalMessage = "error interno del servidor"

// Error carries a category sentinel plus a human-readable message.
type Error struct {
	kind error
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

// Unwrap exposes both the category and the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.err != nil {
		return []error{e.kind, e.err}
	}
	return []error{e.kind}
}

func newError(kind error, msg string) error { return &Error{kind: kind, msg: msg} }

func Validation(msg string) error     { return newError(ErrValidation, msg) }
func Authentication(msg string) error { return newError(ErrAuthentication, msg) }
func Authorization(msg string) error  { return newError(ErrAuthorization, msg) }
func NotFound(msg string) error       { return newError(ErrNotFound, msg) }
func Conflict(msg string) error       { return newError(ErrConflict, msg) }

// Wrap attaches a category and message to an underlying cause.
func Wrap(kind error, msg string, err error) error {
	return &Error{kind: kind, msg: msg, err: err}
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the message safe to show a client. Internal errors are
// elided.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && Status(err) != http.StatusInternalServerError {
		return ae.msg
	}
	return InternalMessage
}

// IsInternal reports whether err falls outside the taxonomy.
func IsInternal(err error) bool {
	return err != nil && Status(err) == http.StatusInternalServerError
}
