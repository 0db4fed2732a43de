package lifecycle

import "errors"

var (
	// ErrNilPage is returned when a Controller is created without a page.
	ErrNilPage = errors.New("controller requires a page")

	// ErrNoLookup is returned when Deps carries no lookup client.
	ErrNoLookup = errors.New("controller requires a lookup client")

	// ErrNoPort is returned by PageLoaded when Deps carries no port.
	ErrNoPort = errors.New("controller has no message port")

	// ErrWrongDirection is returned when a page receives a message that
	// only pages send.
	ErrWrongDirection = errors.New("message is not addressed to a page")

	// ErrUnsupportedMessage is returned for a nil message.
	ErrUnsupportedMessage = errors.New("unsupported message")
)
