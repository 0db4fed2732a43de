package model

import (
	"time"

	"github.com/google/uuid"
)

// PageReport summarizes one annotation run over a single page.
// It is produced for CLI output only; annotation results are never stored.
type PageReport struct {
	// ID uniquely identifies the run. It is attached to log lines so
	// concurrent runs in a batch can be told apart.
	ID string `json:"id"`

	// URL is the page URL the run was evaluated against.
	URL string `json:"url"`

	// Host is the normalized host used for the opt-out decision.
	Host string `json:"host"`

	// Source is where the markup came from (file path or URL).
	Source string `json:"source,omitempty"`

	// State is the final lifecycle state of the page.
	State string `json:"state"`

	// Disabled is true when the host gate refused annotation.
	Disabled bool `json:"disabled"`

	// Identifiers are the deduplicated DOIs found on the page.
	Identifiers []string `json:"identifiers"`

	// Feedbacks are the records returned by the review service.
	Feedbacks []Feedback `json:"feedbacks"`

	// Markers is the number of markers present after the run.
	Markers int `json:"markers"`

	// Publications are the titled records shown in the banner.
	Publications []Publication `json:"publications"`

	// Banner is true when a summary banner is present.
	Banner bool `json:"banner"`

	// OutputPath is where the annotated HTML was written, if anywhere.
	OutputPath string `json:"output_path,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	// ErrorMessage is the human-readable failure, if any.
	ErrorMessage string `json:"error,omitempty"`
}

// NewPageReport creates a report for the given page URL with a fresh run ID.
func NewPageReport(url string) *PageReport {
	return &PageReport{
		ID:           uuid.NewString(),
		URL:          url,
		Identifiers:  make([]string, 0),
		Feedbacks:    make([]Feedback, 0),
		Publications: make([]Publication, 0),
		StartedAt:    time.Now(),
	}
}

// Failed reports whether the run ended with an error.
func (r *PageReport) Failed() bool {
	return r.ErrorMessage != ""
}

// Annotated reports whether at least one marker was placed.
func (r *PageReport) Annotated() bool {
	return r.Markers > 0
}
