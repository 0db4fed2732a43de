package banner

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/peermark/internal/markup"
	"github.com/nao1215/peermark/internal/model"
)

// DefaultServiceURL is the review service the banner links to.
const DefaultServiceURL = "https://pubpeer.com"

const (
	bannerStyle  = "position: -webkit-sticky; position: sticky; top: 0; z-index: 9999; margin: 0; background-color:#7ACCC8; text-align: center; padding: 5px 8px; font-size: 13px;"
	logoStyle    = "vertical-align:middle;padding-right:8px;height:25px;background-color:#7ACCC8;"
	linkStyle    = "color:rgb(255,255,255);text-decoration:none;font-weight:500;vertical-align:middle;border: none;"
	dismissStyle = "float: right; font-size: 20px;line-height: 24px; padding-right: 10px; cursor: pointer; user-select: none;color: white;"
)

// Renderer inserts and removes the summary banner.
type Renderer struct {
	serviceURL  string
	serviceName string
	tracking    markup.Tracking
	shims       ShimTable
	logger      *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithServiceURL sets the service base URL used for the logo and search links.
func WithServiceURL(serviceURL string) Option {
	return func(r *Renderer) {
		if serviceURL != "" {
			r.serviceURL = strings.TrimRight(serviceURL, "/")
		}
	}
}

// WithServiceName sets the service named in banner text.
func WithServiceName(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.serviceName = name
		}
	}
}

// WithTracking sets the campaign parameters added to the single-publication link.
func WithTracking(tracking markup.Tracking) Option {
	return func(r *Renderer) {
		r.tracking = tracking
	}
}

// WithShims replaces the shim table.
func WithShims(shims ShimTable) Option {
	return func(r *Renderer) {
		if shims != nil {
			r.shims = shims
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// New creates a Renderer using DefaultShims unless WithShims is given.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		serviceURL:  DefaultServiceURL,
		serviceName: "PubPeer",
		shims:       DefaultShims(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Present reports whether doc already carries a banner.
func Present(doc *goquery.Document) bool {
	return doc != nil && doc.Find(markup.BannerSelector).Length() > 0
}

// Render prepends the banner to <body> and applies the shims for host.
// It does nothing and returns false when a banner already exists, when
// publications is empty, or when the document has no body.
func (r *Renderer) Render(doc *goquery.Document, host string, publications []model.Publication) bool {
	if doc == nil || len(publications) == 0 || Present(doc) {
		return false
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return false
	}

	body.PrependNodes(r.node(publications))
	touched := r.shims.apply(doc, host)

	r.logger.Debug("banner rendered",
		"host", host,
		"publications", len(publications),
		"shimmed_elements", touched,
	)
	return true
}

// Dismiss removes the banner and reverts the shims for host.
// It returns false when no banner was present.
func (r *Renderer) Dismiss(doc *goquery.Document, host string) bool {
	if !Present(doc) {
		return false
	}

	doc.Find(markup.BannerSelector).Remove()
	r.shims.revert(doc, host)

	r.logger.Debug("banner dismissed", "host", host)
	return true
}

// Text returns the banner text for publications.
func (r *Renderer) Text(publications []model.Publication) string {
	if len(publications) == 1 {
		return `"` + publications[0].Title + `" has comments on ` + r.serviceName
	}
	return "There are " + strconv.Itoa(len(publications)) + " articles on this page with " + r.serviceName + " comments"
}

// Link returns the banner link target for publications: the thread itself
// for a single publication, otherwise a title search over all of them.
// A single publication without an http(s) URL yields "".
func (r *Renderer) Link(publications []model.Publication) string {
	if len(publications) == 1 {
		return r.tracking.Link(publications[0].URL)
	}

	titles := make([]string, 0, len(publications))
	for _, p := range publications {
		titles = append(titles, p.Title)
	}
	query := `title: ("` + strings.Join(titles, `" OR "`) + `")`

	// encodeURIComponent-style escaping: spaces as %20, not '+'.
	return r.serviceURL + "/search?q=" + strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}

func (r *Renderer) node(publications []model.Publication) *html.Node {
	linkAttrs := []markup.Attr{markup.A("style", linkStyle)}
	if href := r.Link(publications); href != "" {
		linkAttrs = append(linkAttrs,
			markup.A("href", href),
			markup.A("target", "_blank"),
			markup.A("rel", "noopener noreferrer"),
		)
	}

	return markup.Element("p",
		[]markup.Attr{
			markup.A("class", markup.BannerClass),
			markup.A("style", bannerStyle),
		},
		markup.Element("img", []markup.Attr{
			markup.A("src", r.serviceURL+"/img/logo.svg"),
			markup.A("alt", r.serviceName),
			markup.A("style", logoStyle),
		}),
		markup.Element("a", linkAttrs, markup.Text(r.Text(publications))),
		// Must be phrasing content: a <div> would be hoisted out of the <p>
		// when the rendered page is parsed again.
		markup.Element("span",
			[]markup.Attr{
				markup.A("id", markup.DismissID),
				markup.A("role", "button"),
				markup.A("style", dismissStyle),
			},
			markup.Text("×"),
		),
	)
}
