package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	Validation        Code = "VALIDATION"
	NotFound          Code = "NOT_FOUND"
	MissingTenant     Code = "MISSING_TENANT"
	InvalidTransition Code = "INVALID_TRANSITION"
	Internal          Code = "INTERNAL"
)

// Error is the coded error surfaced at the HTTP boundary. Message is safe to
// return to clients; Err carries the internal cause for logging only.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationErr(format string, args ...any) *Error {
	return &Error{Code: Validation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundErr(format string, args ...any) *Error {
	return &Error{Code: NotFound, Message: fmt.Sprintf(format, args...)}
}

func MissingTenantErr() *Error {
	return &Error{Code: MissingTenant, Message: "missing or empty X-Tenant-ID header"}
}

func InvalidTransitionErr(from, to string) *Error {
	return &Error{Code: InvalidTransition, Message: fmt.Sprintf("illegal status transition %s -> %s", from, to)}
}

// InternalErr wraps an unexpected failure without leaking its cause to clients.
func InternalErr(err error) *Error {
	return &Error{Code: Internal, Message: "unexpected internal error", Err: err}
}

func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func HTTPStatus(err error) int {
	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Code {
	case Validation, MissingTenant:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case InvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok {
		return ae.Message
	}
	return "unexpected internal error"
}
