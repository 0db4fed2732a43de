package banner

import (
	"maps"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/peermark/internal/markup"
)

// Shim adjusts inline styles of the elements matching Selector.
// Apply is merged in after the banner is inserted, Revert after it is removed.
type Shim struct {
	Selector string            `yaml:"selector" toml:"selector" json:"selector"`
	Apply    map[string]string `yaml:"apply" toml:"apply" json:"apply,omitempty"`
	Revert   map[string]string `yaml:"revert" toml:"revert" json:"revert,omitempty"`
}

// ShimTable maps an exact lowercase hostname to its shims.
type ShimTable map[string][]Shim

// DefaultShims returns the built-in shim table.
func DefaultShims() ShimTable {
	return ShimTable{
		"www.cell.com": {
			{
				Selector: "header.header.base.fixed",
				Apply:    map[string]string{"top": "35px"},
				Revert:   map[string]string{"top": "0"},
			},
			{
				Selector: markup.BannerSelector,
				Apply:    map[string]string{"z-index": "1000", "width": "100vw"},
			},
		},
		"journals.plos.org": {
			{
				Selector: "body",
				Apply:    map[string]string{"height": "auto"},
				Revert:   map[string]string{"height": "100%"},
			},
		},
	}
}

// Merge returns a copy of t with the entries of other added. A host present
// in both takes the shims from other.
func (t ShimTable) Merge(other ShimTable) ShimTable {
	merged := make(ShimTable, len(t)+len(other))
	maps.Copy(merged, t)
	for host, shims := range other {
		merged[strings.ToLower(strings.TrimSpace(host))] = shims
	}
	return merged
}

// lookup returns the shims for host.
func (t ShimTable) lookup(host string) []Shim {
	return t[strings.ToLower(strings.TrimSpace(host))]
}

// apply merges the Apply styles of every shim for host.
func (t ShimTable) apply(doc *goquery.Document, host string) int {
	return t.run(doc, host, func(s Shim) map[string]string { return s.Apply })
}

// revert merges the Revert styles of every shim for host.
func (t ShimTable) revert(doc *goquery.Document, host string) int {
	return t.run(doc, host, func(s Shim) map[string]string { return s.Revert })
}

func (t ShimTable) run(doc *goquery.Document, host string, props func(Shim) map[string]string) int {
	touched := 0
	for _, shim := range t.lookup(host) {
		p := props(shim)
		if shim.Selector == "" || len(p) == 0 {
			continue
		}
		doc.Find(shim.Selector).Each(func(_ int, s *goquery.Selection) {
			for _, n := range s.Nodes {
				markup.SetStyle(n, p)
				touched++
			}
		})
	}
	return touched
}
