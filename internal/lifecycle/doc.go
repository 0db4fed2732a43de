// Package lifecycle drives annotation of a single page.
//
// A Controller owns one page and moves it through Idle, Scanning,
// AwaitingLookup and Annotated on start-up or an enable message, and into
// Disabled on a disable message from the shell. A host that is opted out
// at start-up leaves the page Idle. All operations on a
// Controller are serialized, and repeating an operation never duplicates
// markers or banners.
//
// Every dependency is injected through Deps; the package keeps no global
// state, so any number of pages can be driven concurrently.
package lifecycle
