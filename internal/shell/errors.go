package shell

import "errors"

var (
	// ErrInvalidAddress is returned when a shell base URL is unusable.
	ErrInvalidAddress = errors.New("invalid shell address")

	// ErrUnavailable is returned when the shell cannot be reached.
	ErrUnavailable = errors.New("shell unavailable")

	// ErrBadResponse is returned when the shell answers with an error status
	// or a body that cannot be decoded.
	ErrBadResponse = errors.New("unexpected shell response")

	// ErrMissingURL is returned when a host request carries no URL.
	ErrMissingURL = errors.New("url is required")
)
