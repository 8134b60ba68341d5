// Package errors holds the error taxonomy shared by the routing core and its adapters.
// Specific errors wrap one of the category sentinels so callers can match either level.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Categories
var (
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrConflict     = fmt.Errorf("conflict")
	ErrNotFound     = fmt.Errorf("not found")
	ErrAccessDenied = fmt.Errorf("access denied: private channel")
	ErrPersistence  = fmt.Errorf("persistence failure")
)

var (
	ErrEmptyField         = fmt.Errorf("%w: required field is empty", ErrInvalidInput)
	ErrInvalidNickname    = fmt.Errorf("%w: username is required", ErrInvalidInput)
	ErrNicknameTaken      = fmt.Errorf("%w: username already in use", ErrConflict)
	ErrDuplicateChannel   = fmt.Errorf("%w: channel already exists", ErrConflict)
	ErrPublicNameTaken    = fmt.Errorf("%w: a public channel already uses this name", ErrConflict)
	ErrChannelNotFound    = fmt.Errorf("%w: channel not found", ErrNotFound)
	ErrNotAMember         = fmt.Errorf("%w: user is not in this channel", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("%w: user is not connected", ErrNotFound)
	ErrConnectionNotFound = fmt.Errorf("%w: unknown connection", ErrNotFound)
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrSinkTimeout = fmt.Errorf("sink did not accept the event in time")
)

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Persistence wraps a store failure so it never leaks as a raw driver error.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// MapToHTTPStatus translates the taxonomy into the status codes of the REST façade.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrNotAMember):
		// Quitting a channel one is not in is a bad request.
		return http.StatusBadRequest
	case Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case Is(err, ErrConflict):
		return http.StatusConflict
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrAccessDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
