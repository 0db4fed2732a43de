// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Masking of credential query parameters such as the review service devkey
//   - Configurable log levels with verbose mode support
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("lookup sent",
//	    "endpoint", "https://pubpeer.com/v3/publications?devkey=PubMedSafari",
//	)
//	// endpoint=https://pubpeer.com/v3/publications?devkey=***REDACTED***
//
//	slog.SetDefault(logger)
package log
