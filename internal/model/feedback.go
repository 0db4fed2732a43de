package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Feedback is one record returned by the review service for an identifier.
// It lives only for the duration of a single page run and is never persisted.
type Feedback struct {
	// Identifier is the DOI the record belongs to.
	Identifier string `json:"identifier"`

	// URL is the canonical review-thread URL.
	URL string `json:"url"`

	// Title is the publication title. Optional; untitled records are
	// annotated but never listed in the summary banner.
	Title string `json:"title,omitempty"`

	// TotalComments is the number of comments on the thread.
	TotalComments int `json:"totalComments"`

	// Users lists the reviewers who commented.
	Users Reviewers `json:"users"`
}

// HasTitle reports whether the record carries a non-blank title.
func (f Feedback) HasTitle() bool {
	return strings.TrimSpace(f.Title) != ""
}

// CommentLabel returns "1 comment" or "N comments".
func (f Feedback) CommentLabel() string {
	if f.TotalComments == 1 {
		return "1 comment"
	}
	return fmt.Sprintf("%d comments", f.TotalComments)
}

// Publication returns the banner entry for this record.
func (f Feedback) Publication() Publication {
	return Publication{
		Identifier: f.Identifier,
		Title:      f.Title,
		URL:        f.URL,
	}
}

// Reviewers is the list of reviewer names on a thread.
//
// The service has sent this field both as a preformatted string
// ("A, B") and as a JSON array, so both shapes are accepted.
type Reviewers []string

// String joins the names the way they are displayed in a marker.
func (r Reviewers) String() string {
	return strings.Join(r, ", ")
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (r *Reviewers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*r = nil
			return nil
		}
		*r = Reviewers{s}
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("users must be a string or a list of strings: %w", err)
	}
	*r = names
	return nil
}

// Publication is a titled, annotated record listed by the summary banner.
// Publications are deduplicated by Identifier.
type Publication struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	URL        string `json:"url"`
}
