package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be checked with
// errors.Is() by callers that need to react to a specific problem.
var (
	// ErrNoTarget is returned when no page file, glob or URL is specified.
	ErrNoTarget = errors.New("no target specified: provide a page URL, file or glob")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the batch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid batch concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidServiceURL is returned when the service URL is not an
	// absolute http or https URL.
	ErrInvalidServiceURL = errors.New("invalid service URL: must be an absolute http(s) URL")

	// ErrEmptyClientTag is returned when the client tag is blank. The tag is
	// part of the lookup endpoint and of every tracking link.
	ErrEmptyClientTag = errors.New("invalid client tag: must not be empty")
)
