// Package message defines the messages exchanged between a page and the
// shell that owns the host opt-out state.
//
// The set of messages is closed: Message can only be implemented inside
// this package, and Decode rejects unknown kinds and malformed payloads
// at the boundary.
package message
