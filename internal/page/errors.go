package page

import "errors"

var (
	// ErrInvalidURL is returned when a page URL has no host.
	ErrInvalidURL = errors.New("invalid page url")

	// ErrFetch is returned when a page cannot be downloaded.
	ErrFetch = errors.New("failed to fetch page")
)
