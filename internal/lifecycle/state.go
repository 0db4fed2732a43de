package lifecycle

// State is the annotation state of a page.
type State int

const (
	// Idle means nothing is shown and no run is in progress.
	Idle State = iota

	// Scanning means identifiers are being extracted.
	Scanning

	// AwaitingLookup means the review service has been queried.
	AwaitingLookup

	// Annotated means markers and the banner have been placed.
	Annotated

	// Disabled means the host is opted out and the page carries no annotations.
	Disabled
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case AwaitingLookup:
		return "awaiting_lookup"
	case Annotated:
		return "annotated"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}
