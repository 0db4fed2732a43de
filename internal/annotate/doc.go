// Package annotate places review markers next to the elements of a page
// that mention an identifier.
//
// Candidate containers come from an ordered selector list. The deepest
// matching element wins, and a parent never receives more than one marker,
// so running the annotator again over an annotated page adds nothing.
package annotate
