// Package pipeline runs the per-page annotation steps in sequence.
//
// A page goes through scanning, lookup, annotation and the summary banner.
// Each stage is a Step that reads and extends a shared Run. The pipeline
// stops at the first failing step; ErrNoIdentifiers and ErrProviderHost
// end a run early without being failures.
//
// BatchProcessor runs many pages concurrently with a bounded errgroup,
// giving each page its own independent state.
package pipeline
