package dataapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the bearer token was missing, expired or rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means a row-level security policy denied the request.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the collection or the single requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTimeout means the request did not finish within the call timeout.
	ErrTimeout = errors.New("request timed out")
)

// APIError is a non-2xx response from the data API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("data api: %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("data api: %d: %s", e.Status, msg)
}

// Is matches the package sentinels by status and PostgREST code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden || e.Code == "42501"
	case ErrNotFound:
		return e.Status == http.StatusNotFound || e.Code == "PGRST116"
	}
	return false
}

// wrapError maps transport failures onto the package errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
