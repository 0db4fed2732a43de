package page

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// ParseFile reads a saved page from path. When pageURL is empty the page's
// canonical link or og:url is used; a page with neither fails with
// ErrInvalidURL.
func ParseFile(path, pageURL string) (*Page, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Paths come from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	if int64(len(data)) > DefaultMaxSize {
		data = data[:DefaultMaxSize]
	}

	reader, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	if pageURL == "" {
		pageURL = CanonicalURL(doc)
	}
	host, err := hostOf(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w (use --url to set the page URL)", path, err)
	}

	return &Page{URL: pageURL, Host: host, Doc: doc}, nil
}

// CanonicalURL returns the absolute URL a document declares for itself via
// <link rel="canonical"> or <meta property="og:url">, or "" if none.
func CanonicalURL(doc *goquery.Document) string {
	candidates := []string{
		doc.Find(`link[rel="canonical"]`).First().AttrOr("href", ""),
		doc.Find(`meta[property="og:url"]`).First().AttrOr("content", ""),
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if strings.HasPrefix(c, "http://") || strings.HasPrefix(c, "https://") {
			return c
		}
	}
	return ""
}
