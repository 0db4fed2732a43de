package annotate

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"

	"github.com/nao1215/peermark/internal/markup"
	"github.com/nao1215/peermark/internal/model"
)

// DefaultSelectors is the ordered container list. The first three match
// search engine result snippets; the last two catch everything else.
var DefaultSelectors = []string{
	"div.s",
	"div.b_caption",
	"div.result__body",
	"div",
	"span",
}

// DefaultLogoURL is the logo shown inside each marker.
const DefaultLogoURL = "https://pubpeer.com/img/logo.svg"

// DefaultServiceName is the service named in marker text.
const DefaultServiceName = "PubPeer"

// Annotator inserts markers into a parsed page.
// An Annotator holds no per-page state and may be shared between pages.
type Annotator struct {
	selectors   []string
	logoURL     string
	serviceName string
	tracking    markup.Tracking
	logger      *slog.Logger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithSelectors replaces the container selector list. An empty list is ignored.
func WithSelectors(selectors []string) Option {
	return func(a *Annotator) {
		if len(selectors) > 0 {
			a.selectors = append([]string(nil), selectors...)
		}
	}
}

// WithLogoURL sets the marker logo.
func WithLogoURL(logoURL string) Option {
	return func(a *Annotator) {
		a.logoURL = logoURL
	}
}

// WithServiceName sets the service named in marker text.
func WithServiceName(name string) Option {
	return func(a *Annotator) {
		if name != "" {
			a.serviceName = name
		}
	}
}

// WithTracking sets the campaign parameters added to marker links.
func WithTracking(tracking markup.Tracking) Option {
	return func(a *Annotator) {
		a.tracking = tracking
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Annotator) {
		a.logger = logger
	}
}

// New creates an Annotator.
func New(opts ...Option) *Annotator {
	a := &Annotator{
		selectors:   append([]string(nil), DefaultSelectors...),
		logoURL:     DefaultLogoURL,
		serviceName: DefaultServiceName,
		tracking:    markup.NewTracking(""),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// Selectors returns the container selector list in priority order.
func (a *Annotator) Selectors() []string {
	return append([]string(nil), a.selectors...)
}

// Result describes what a single Annotate call changed.
type Result struct {
	// Markers is the number of markers inserted by this call.
	Markers int

	// Publications are the titled records that received at least one
	// new marker, deduplicated by identifier in feedback order.
	Publications []model.Publication
}

// candidate is a matched container with its ancestor depth.
type candidate struct {
	sel   *goquery.Selection
	depth int
}

// Annotate inserts a marker after the deepest elements mentioning each
// feedback's identifier. Feedbacks without an identifier or without an
// http(s) URL are skipped.
func (a *Annotator) Annotate(doc *goquery.Document, feedbacks []model.Feedback) Result {
	result := Result{Publications: make([]model.Publication, 0)}
	if doc == nil || len(feedbacks) == 0 {
		return result
	}

	fold := cases.Fold()
	group := strings.Join(a.selectors, ", ")
	seen := make(map[string]struct{})

	for _, fb := range feedbacks {
		if fb.Identifier == "" {
			continue
		}
		link := a.tracking.Link(fb.URL)
		if link == "" {
			a.logger.Debug("skipping feedback without an http(s) url", "identifier", fb.Identifier)
			continue
		}

		needle := fold.String(fb.Identifier)
		candidates := make([]candidate, 0)

		doc.Find(group).Each(func(_ int, s *goquery.Selection) {
			if s.Closest(markup.InjectedSelector).Length() > 0 {
				return
			}
			if !strings.Contains(fold.String(s.Text()), needle) {
				return
			}
			candidates = append(candidates, candidate{sel: s, depth: s.Parents().Length()})
		})

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].depth > candidates[j].depth
		})

		inserted := 0
		for _, c := range candidates {
			parent := c.sel.Parent()
			if parent.Length() == 0 || parent.Find(markup.MarkerSelector).Length() > 0 {
				continue
			}
			c.sel.AfterNodes(a.marker(fb, link))
			inserted++
		}

		a.logger.Debug("annotated identifier",
			"identifier", fb.Identifier,
			"candidates", len(candidates),
			"markers", inserted,
		)

		if inserted == 0 {
			continue
		}
		result.Markers += inserted

		if _, ok := seen[fb.Identifier]; ok || !fb.HasTitle() {
			continue
		}
		seen[fb.Identifier] = struct{}{}
		result.Publications = append(result.Publications, fb.Publication())
	}

	return result
}

// Remove deletes every marker from doc and returns how many were removed.
func Remove(doc *goquery.Document) int {
	if doc == nil {
		return 0
	}
	markers := doc.Find(markup.MarkerSelector)
	n := markers.Length()
	markers.Remove()
	return n
}

// Count returns the number of markers present in doc.
func Count(doc *goquery.Document) int {
	if doc == nil {
		return 0
	}
	return doc.Find(markup.MarkerSelector).Length()
}
