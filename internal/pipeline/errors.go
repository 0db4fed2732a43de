package pipeline

import "errors"

var (
	// ErrNoIdentifiers ends a run whose page mentions no identifiers.
	ErrNoIdentifiers = errors.New("no identifiers found on page")

	// ErrProviderHost ends a run on a page served by the review service.
	ErrProviderHost = errors.New("page belongs to the review service")

	// ErrLookup wraps failures of the lookup step.
	ErrLookup = errors.New("lookup failed")
)

// IsHalt reports whether err ends a run early without being a failure.
func IsHalt(err error) bool {
	return errors.Is(err, ErrNoIdentifiers) || errors.Is(err, ErrProviderHost)
}
