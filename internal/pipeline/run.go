package pipeline

import (
	"github.com/nao1215/peermark/internal/model"
	"github.com/nao1215/peermark/internal/page"
)

// Run carries one pass of the pipeline over a page.
type Run struct {
	// Page is the document being annotated.
	Page *page.Page

	// Identifiers are the DOIs found by the scan step.
	Identifiers []string

	// Feedbacks are the records returned by the lookup step.
	Feedbacks []model.Feedback

	// Publications are the titled records that received markers,
	// deduplicated by identifier.
	Publications []model.Publication

	// Markers is the number of markers on the page after annotation.
	Markers int

	// Banner is true when the page carries a summary banner.
	Banner bool

	// PerformedSteps lists the steps that completed, in order.
	PerformedSteps []string
}

// NewRun creates a Run for p. Publications recorded by earlier runs over
// the same page can be passed in so the banner keeps listing them.
func NewRun(p *page.Page, publications []model.Publication) *Run {
	return &Run{
		Page:           p,
		Identifiers:    make([]string, 0),
		Feedbacks:      make([]model.Feedback, 0),
		Publications:   append([]model.Publication{}, publications...),
		PerformedSteps: make([]string, 0),
	}
}

// addPublications appends pubs not yet present, keyed by identifier.
func (r *Run) addPublications(pubs []model.Publication) {
	seen := make(map[string]struct{}, len(r.Publications))
	for _, p := range r.Publications {
		seen[p.Identifier] = struct{}{}
	}
	for _, p := range pubs {
		if _, ok := seen[p.Identifier]; ok {
			continue
		}
		seen[p.Identifier] = struct{}{}
		r.Publications = append(r.Publications, p)
	}
}
