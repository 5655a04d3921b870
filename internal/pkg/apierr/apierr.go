package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error carries an HTTP-ish status and a stable machine code alongside the
// underlying cause. Handlers map it onto the wire with errors.As.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, "unauthorized", err)
}

func Forbidden(err error) *Error {
	return New(http.StatusForbidden, "forbidden", err)
}

func InvalidParticipants(err error) *Error {
	return New(http.StatusBadRequest, "invalid_participants", err)
}

func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "not_found", err)
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, "conflict", err)
}

func Unavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, "unavailable", err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal_error", err)
}

// Store classifies a persistence failure. Deadline and connection errors are
// transient, so the caller gets a retryable status instead of a plain 500.
func Store(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable(err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Unavailable(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Unavailable(err)
	}
	return Internal(err)
}
