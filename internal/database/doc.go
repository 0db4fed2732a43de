// Package database provides SQLite-based storage for peermark.
//
// Two kinds of state are kept. The forever-disabled host list is one
// delimiter-joined string in a key/value settings table; HostList adapts a
// settings key to hostgate.Store. Annotation runs are stored one row per
// page with the full report as JSON, so past results can be listed and
// shown again without refetching pages.
//
// SQLite is accessed through modernc.org/sqlite, which is CGO-free, in WAL
// mode with a single connection. Writes additionally take a file lock next
// to the database so the CLI and a running shell server do not interleave.
package database
