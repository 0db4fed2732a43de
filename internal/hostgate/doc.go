// Package hostgate implements the per-host opt-out state for annotation.
//
// A host entry is a normalized hostname (see Normalize). Hosts can be
// disabled Once, for the lifetime of the process, or Forever, in which case
// the entry is persisted as a Delimiter-joined string through a Store.
// The two sets are disjoint: disabling in one mode always removes the host
// from the other.
//
// Usage:
//
//	gate := hostgate.New(ctx, store, hostgate.WithLogger(logger))
//	defer gate.Close()
//
//	gate.Disable("https://www.example.com/article", hostgate.Forever)
//	gate.IsDisabled("http://example.com") // true
package hostgate
