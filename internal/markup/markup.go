package markup

import (
	"net/url"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class names and ids of injected elements. Removal and idempotency checks
// find injected content exclusively through these.
const (
	// MarkerClass is the class of the per-identifier marker element.
	MarkerClass = "pp_comm"

	// BannerClass is the class of the page-level summary banner.
	BannerClass = "pp_articles"

	// DismissID is the id of the banner's dismiss control.
	DismissID = "btn-close-pubpeer-article-summary"

	// MarkerSelector selects every marker on a page.
	MarkerSelector = "div." + MarkerClass

	// BannerSelector selects the summary banner.
	BannerSelector = "p." + BannerClass

	// InjectedSelector selects every element peermark injects.
	InjectedSelector = MarkerSelector + ", " + BannerSelector
)

// Attr is a single attribute for Element.
type Attr struct {
	Key string
	Val string
}

// A builds an Attr.
func A(key, val string) Attr {
	return Attr{Key: key, Val: val}
}

// Element builds an element node with the given attributes and children.
// Attribute values and text are stored raw on the node; the renderer
// escapes them, so no caller-supplied string is ever parsed as markup.
func Element(tag string, attrs []Attr, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, a := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// Text builds a text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attribute returns the value of key on n, or "" when absent.
func Attribute(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// Tracking describes the campaign parameters appended to outbound links.
type Tracking struct {
	// Source is used for utm_source and utm_campaign.
	Source string

	// Medium is used for utm_medium.
	Medium string
}

// DefaultMedium is the utm_medium reported for every link.
const DefaultMedium = "BrowserExtension"

// NewTracking returns Tracking for the given client tag.
func NewTracking(source string) Tracking {
	return Tracking{Source: source, Medium: DefaultMedium}
}

// Link appends the campaign parameters to raw. Existing query parameters
// are kept. Only absolute http(s) URLs are links: anything else, including
// a raw value that does not parse, yields "".
func (t Tracking) Link(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	if t.Source == "" {
		return raw
	}

	q := u.Query()
	q.Set("utm_source", t.Source)
	q.Set("utm_medium", t.Medium)
	q.Set("utm_campaign", t.Source)
	u.RawQuery = encodeOrdered(q)

	return u.String()
}

// encodeOrdered encodes q with the utm parameters last and in the order
// source, medium, campaign, matching how the links have always looked.
func encodeOrdered(q url.Values) string {
	utm := []string{"utm_source", "utm_medium", "utm_campaign"}

	rest := url.Values{}
	for k, v := range q {
		if k != utm[0] && k != utm[1] && k != utm[2] {
			rest[k] = v
		}
	}

	encoded := rest.Encode()
	for _, k := range utm {
		if encoded != "" {
			encoded += "&"
		}
		encoded += url.QueryEscape(k) + "=" + url.QueryEscape(q.Get(k))
	}
	return encoded
}
