package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedTicketFormat is returned when the CAS body does not start with TicketPrefix.
	ErrUnexpectedTicketFormat = errors.New("unexpected ticket format")

	// ErrMissingCredentials is returned by New when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
)

// AuthenticationError reports a failed ticket request. Without a ticket no
// data endpoint is reachable, so callers treat it as fatal.
type AuthenticationError struct {
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("epias authentication failed (status %d): %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("epias authentication failed: %v", e.Err)
	default:
		return fmt.Sprintf("epias authentication failed (status %d): %s", e.StatusCode, e.Body)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
