package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Validation failures caught before any network call.
var (
	ErrEmptyAnswer = errors.New("answer is empty")
	ErrBadJoinCode = errors.New("join code must be 6 characters")
	ErrNoCategory  = errors.New("category is required")
	ErrNoSessionID = errors.New("session id is required")
)

// StatusError reports a non-2xx response with the server's reason attached.
// Anything that blocks a user action surfaces this verbatim, never a generic
// failure message.
type StatusError struct {
	Status int
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("api error %d", e.Status)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Reason)
}

// IsAuthorization reports a turn/permission rejection (not your turn,
// already answered, creator-only action).
func IsAuthorization(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && (se.Status == http.StatusForbidden || se.Status == http.StatusConflict)
}

// IsNotFound reports a missing resource (unknown session, exhausted
// category).
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// IsTransport reports a network-level failure (timeout, unreachable). These
// are recovered by the poller; a user action that hits one may be retried by
// the user.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return false
	}
	switch {
	case errors.Is(err, ErrEmptyAnswer), errors.Is(err, ErrBadJoinCode),
		errors.Is(err, ErrNoCategory), errors.Is(err, ErrNoSessionID):
		return false
	}
	return true
}
