// Package page loads an HTML document into an in-memory DOM that the
// scanner, annotator and banner operate on.
package page
