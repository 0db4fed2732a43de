// Package markup builds the DOM nodes peermark injects into pages.
//
// Nodes are constructed directly as golang.org/x/net/html nodes instead of
// being parsed from HTML strings, so titles, URLs and reviewer names can
// never break out of their text or attribute context. The package also owns
// the class names used to find injected content again, the campaign
// parameters added to outbound links, and inline-style helpers used by
// per-site layout shims.
package markup
