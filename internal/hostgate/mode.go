package hostgate

import (
	"fmt"
	"strings"
)

// Mode selects how long a host stays disabled.
type Mode int

const (
	// Once disables a host until the process restarts.
	Once Mode = iota + 1

	// Forever disables a host across restarts.
	Forever
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case Once:
		return "once"
	case Forever:
		return "forever"
	default:
		return "unknown"
	}
}

// Valid reports whether m is Once or Forever.
func (m Mode) Valid() bool {
	return m == Once || m == Forever
}

// ParseMode parses "once" or "forever" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "once":
		return Once, nil
	case "forever":
		return Forever, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
