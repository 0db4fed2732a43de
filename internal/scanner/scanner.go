package scanner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// doiRegex matches a DOI: "10." + a registrant code of at least four digits
// (optionally with dotted sub-codes) + "/" + a suffix of characters that are
// not whitespace, quotes, ampersands or angle brackets. The trailing \b trims
// punctuation such as a sentence-ending period off the suffix.
var doiRegex = regexp.MustCompile(`(?i)\b10[.][0-9]{4,}(?:[.][0-9]+)*/[^\s"&'<>]+\b`)

// Extract returns every DOI found in markup, deduplicated by exact string
// equality and kept in first-seen order. It never fails: markup without
// matches yields an empty slice.
func Extract(markup string) []string {
	matches := doiRegex.FindAllString(markup, -1)

	// Deduplicate
	seen := make(map[string]bool)
	unique := make([]string, 0, len(matches))
	for _, doi := range matches {
		if !seen[doi] {
			seen[doi] = true
			unique = append(unique, doi)
		}
	}

	return unique
}

// ExtractDocument scans the serialized contents of the document body.
// A document without a body, or with an empty one, yields an empty slice.
// Nothing is cached; every call rescans the current DOM.
func ExtractDocument(doc *goquery.Document) []string {
	if doc == nil {
		return []string{}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return []string{}
	}

	markup, err := body.Html()
	if err != nil || strings.TrimSpace(markup) == "" {
		return []string{}
	}

	return Extract(markup)
}
