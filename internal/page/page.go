package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// ProviderKeyword marks hosts belonging to the review service itself.
// Pages on those hosts are never annotated.
const ProviderKeyword = "pubpeer"

// PresenceAttr is set on <html> so page scripts can detect that
// annotations are available.
const PresenceAttr = "data-pubpeer-extension"

// DefaultMaxSize limits how much of a fetched page is read.
const DefaultMaxSize = 10 * 1024 * 1024

// Page is a parsed document together with the URL it was loaded from.
type Page struct {
	// URL is the page URL.
	URL string

	// Host is the lowercase hostname of URL, without port.
	Host string

	// Doc is the mutable DOM.
	Doc *goquery.Document
}

// Parse reads markup from r and binds it to pageURL.
func Parse(pageURL string, r io.Reader) (*Page, error) {
	host, err := hostOf(pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return &Page{URL: pageURL, Host: host, Doc: doc}, nil
}

// Fetch downloads pageURL with client and parses it, decoding the body
// according to the declared or sniffed charset.
func Fetch(ctx context.Context, client *http.Client, pageURL string) (*Page, error) {
	if _, err := hostOf(pageURL); err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetch, pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	reader, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}

	return Parse(pageURL, reader)
}

// HTML renders the current DOM.
func (p *Page) HTML() (string, error) {
	var buf bytes.Buffer
	for _, n := range p.Doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("failed to render page: %w", err)
		}
	}
	return buf.String(), nil
}

// IsProviderHost reports whether the page belongs to the review service.
func (p *Page) IsProviderHost() bool {
	return strings.Contains(p.Host, ProviderKeyword)
}

// MarkExtensionPresent sets PresenceAttr="true" on the <html> element.
func (p *Page) MarkExtensionPresent() {
	p.Doc.Find("html").First().SetAttr(PresenceAttr, "true")
}

// hostOf extracts the lowercase hostname of rawURL.
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidURL, rawURL)
	}
	return host, nil
}
