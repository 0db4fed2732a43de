// Package config provides configuration structures and utilities for peermark.
// It defines the lookup service settings, batch and report preferences, and
// the optional .peermark file that overrides container selectors and
// per-host banner shims.
package config
