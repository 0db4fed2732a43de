package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/peermark/internal/annotate"
	"github.com/nao1215/peermark/internal/banner"
	"github.com/nao1215/peermark/internal/model"
	"github.com/nao1215/peermark/internal/scanner"
)

// Step names.
const (
	ScanStepName     = "scan"
	LookupStepName   = "lookup"
	AnnotateStepName = "annotate"
	BannerStepName   = "banner"
)

// Looker resolves identifiers to review records.
type Looker interface {
	Lookup(ctx context.Context, identifiers []string) ([]model.Feedback, error)
}

// ScanStep extracts identifiers from the page body.
type ScanStep struct {
	logger *slog.Logger
}

// NewScanStep creates a ScanStep.
func NewScanStep(logger *slog.Logger) *ScanStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanStep{logger: logger}
}

// Name returns the step name.
func (s *ScanStep) Name() string {
	return ScanStepName
}

// Do scans the page. Pages of the review service itself and pages
// without identifiers halt the run.
func (s *ScanStep) Do(_ context.Context, run *Run) error {
	if run.Page.IsProviderHost() {
		return ErrProviderHost
	}

	run.Identifiers = scanner.ExtractDocument(run.Page.Doc)
	s.logger.Debug("scanned page",
		"url", run.Page.URL,
		"identifiers", len(run.Identifiers),
	)

	if len(run.Identifiers) == 0 {
		return ErrNoIdentifiers
	}
	return nil
}

// LookupStep queries the review service once for all identifiers.
type LookupStep struct {
	looker Looker
}

// NewLookupStep creates a LookupStep.
func NewLookupStep(looker Looker) *LookupStep {
	return &LookupStep{looker: looker}
}

// Name returns the step name.
func (s *LookupStep) Name() string {
	return LookupStepName
}

// Do performs the lookup.
func (s *LookupStep) Do(ctx context.Context, run *Run) error {
	feedbacks, err := s.looker.Lookup(ctx, run.Identifiers)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLookup, err)
	}
	run.Feedbacks = feedbacks
	return nil
}

// AnnotateStep inserts markers for the looked-up records.
type AnnotateStep struct {
	annotator *annotate.Annotator
}

// NewAnnotateStep creates an AnnotateStep.
func NewAnnotateStep(annotator *annotate.Annotator) *AnnotateStep {
	return &AnnotateStep{annotator: annotator}
}

// Name returns the step name.
func (s *AnnotateStep) Name() string {
	return AnnotateStepName
}

// Do annotates the page.
func (s *AnnotateStep) Do(_ context.Context, run *Run) error {
	result := s.annotator.Annotate(run.Page.Doc, run.Feedbacks)
	run.addPublications(result.Publications)
	run.Markers = annotate.Count(run.Page.Doc)
	return nil
}

// BannerStep renders the summary banner.
type BannerStep struct {
	renderer *banner.Renderer
}

// NewBannerStep creates a BannerStep.
func NewBannerStep(renderer *banner.Renderer) *BannerStep {
	return &BannerStep{renderer: renderer}
}

// Name returns the step name.
func (s *BannerStep) Name() string {
	return BannerStepName
}

// Do renders the banner if the page has none yet.
func (s *BannerStep) Do(_ context.Context, run *Run) error {
	s.renderer.Render(run.Page.Doc, run.Page.Host, run.Publications)
	run.Banner = banner.Present(run.Page.Doc)
	return nil
}

// DefaultSteps returns the standard step sequence.
func DefaultSteps(looker Looker, annotator *annotate.Annotator, renderer *banner.Renderer, logger *slog.Logger) []Step {
	return []Step{
		NewScanStep(logger),
		NewLookupStep(looker),
		NewAnnotateStep(annotator),
		NewBannerStep(renderer),
	}
}
