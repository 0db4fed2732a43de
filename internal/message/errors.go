package message

import "errors"

var (
	// ErrUnknownKind is returned when an envelope names no known message.
	ErrUnknownKind = errors.New("unknown message kind")

	// ErrMissingURL is returned when a page-ready message carries no URL.
	ErrMissingURL = errors.New("page-ready message requires a url")

	// ErrMalformed is returned when an envelope is not valid JSON.
	ErrMalformed = errors.New("malformed message")

	// ErrClosed is returned when sending on a closed port.
	ErrClosed = errors.New("message port closed")
)
