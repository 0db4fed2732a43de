// Package lookup queries the review service for feedback on identifiers.
//
// One page run issues at most one request: all identifiers go out in a
// single batched POST and the response is parsed into model.Feedback
// records. A failed lookup is never retried; re-enabling annotation on
// the page is the retry mechanism.
package lookup
