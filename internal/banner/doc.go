// Package banner renders the page-level summary of annotated publications
// and applies per-host style shims so the banner does not break site layout.
package banner
