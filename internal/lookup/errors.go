package lookup

import (
	"errors"
	"fmt"
	"net/http"
)

// Lookup errors.
// Any of these means the page run gets no annotations; none is retried.
var (
	// ErrInvalidEndpoint is returned by NewClient when the endpoint is not
	// an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid lookup endpoint: must be an absolute http(s) URL")

	// ErrTransport is returned when the request could not be completed.
	ErrTransport = errors.New("lookup request failed")

	// ErrUnexpectedStatus is returned when the service answers outside 200-399.
	ErrUnexpectedStatus = errors.New("lookup service returned unexpected status")
)

// StatusError carries the HTTP status of a failed lookup.
// It matches ErrUnexpectedStatus with errors.Is.
type StatusError struct {
	// StatusCode is the HTTP status returned by the service.
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrUnexpectedStatus, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports whether target is ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
