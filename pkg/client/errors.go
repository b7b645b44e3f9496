package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrInvalidJSON is returned when a 2xx response body is not valid JSON.
	ErrInvalidJSON = errors.New("response body is not valid JSON")

	// ErrNoTicketSource is returned by New when no ticket source is supplied.
	ErrNoTicketSource = errors.New("ticket source is required")
)

// ErrorClass represents a classification of failed requests.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than authorization.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassAuth represents authorization rejections (401, 403, 406).
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is a failed data request: either a non-2xx status or a transport
// failure (StatusCode 0, ErrorClass network, Err set).
type APIError struct {
	StatusCode int
	Endpoint   string
	ErrorClass ErrorClass
	Message    string
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("EPİAŞ %s error on %s: %v", e.ErrorClass, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("EPİAŞ %s error on %s (status %d): %s",
		e.ErrorClass, e.Endpoint, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status of an *APIError anywhere in err's
// chain. It returns 0 when there is none.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// isAuthRejection reports whether a status means the ticket was not accepted.
func isAuthRejection(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusNotAcceptable
}

// classifyStatus categorizes a non-2xx status for observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case isAuthRejection(status), status == http.StatusForbidden:
		return ErrorClassAuth
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}
