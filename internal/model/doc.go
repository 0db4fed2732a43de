// Package model defines the data structures shared across peermark.
//
// This package contains the following main types:
//   - Feedback: one review-service record for an identifier
//   - Publication: a titled record listed in the summary banner
//   - PageReport: the outcome of annotating a single page
//
// Models live in their own package so lookup, annotate, banner and report
// can share them without import cycles. All of them serialize to JSON.
package model
