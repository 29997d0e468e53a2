package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed remote call for presentation purposes.
type Kind int

const (
	// KindAuth covers login/signup/profile failures, surfaced inline on forms.
	KindAuth Kind = iota
	// KindFetch covers list/detail load failures, surfaced as banners.
	KindFetch
	// KindMutation covers create/update/join/leave failures; local state
	// is left unchanged.
	KindMutation
	// KindConnection covers socket and transport failures.
	KindConnection
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindFetch:
		return "fetch"
	case KindMutation:
		return "mutation"
	case KindConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Error is a failed remote call, carrying the server's detail message
// when one was provided.
type Error struct {
	Kind       Kind
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error (status %d)", e.Kind, e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a 401 rejection.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Message returns a plain user-facing message for err, suitable for a
// store's error slot.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if err != nil && fallback == "" {
		return err.Error()
	}
	return fallback
}
