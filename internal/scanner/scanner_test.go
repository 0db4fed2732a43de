package scanner

import (
	"slices"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// TestExtract tests DOI extraction from raw markup.
func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "duplicates collapse",
			input: "see 10.1234/abc.DEF-1 and again 10.1234/abc.DEF-1",
			want:  []string{"10.1234/abc.DEF-1"},
		},
		{
			name:  "keeps first-seen order",
			input: "10.5555/zzz then 10.1000/aaa then 10.5555/zzz",
			want:  []string{"10.5555/zzz", "10.1000/aaa"},
		},
		{
			name:  "trailing period is not part of the suffix",
			input: "Published as doi:10.1000/xyz123.",
			want:  []string{"10.1000/xyz123"},
		},
		{
			name:  "stops at quotes and angle brackets",
			input: `<a href="https://doi.org/10.1371/journal.pone.0123456">10.1371/journal.pone.0123456</a>`,
			want:  []string{"10.1371/journal.pone.0123456"},
		},
		{
			name:  "stops at ampersand",
			input: "10.1000/abc&amp;foo",
			want:  []string{"10.1000/abc"},
		},
		{
			name:  "dotted registrant code",
			input: "10.1000.10/xyz",
			want:  []string{"10.1000.10/xyz"},
		},
		{
			name:  "registrant code needs four digits",
			input: "10.123/abc",
			want:  []string{},
		},
		{
			name:  "case differences are distinct candidates",
			input: "10.1000/ABC 10.1000/abc",
			want:  []string{"10.1000/ABC", "10.1000/abc"},
		},
		{
			name:  "no matches",
			input: "nothing to see here",
			want:  []string{},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Extract(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestExtractDocument tests extraction from a parsed DOM.
func TestExtractDocument(t *testing.T) {
	t.Parallel()

	parse := func(t *testing.T, markup string) *goquery.Document {
		t.Helper()
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		return doc
	}

	t.Run("scans body only", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><head><meta name="citation_doi" content="10.9999/head"></head>
			<body><p>10.1000/xyz123</p><span>10.1000/xyz123</span></body></html>`)

		got := ExtractDocument(doc)
		if !slices.Equal(got, []string{"10.1000/xyz123"}) {
			t.Errorf("unexpected identifiers: %v", got)
		}
	})

	t.Run("empty body yields empty set", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><head><title>x</title></head><body>   </body></html>`)
		if got := ExtractDocument(doc); len(got) != 0 {
			t.Errorf("expected no identifiers, got %v", got)
		}
	})

	t.Run("nil document yields empty set", func(t *testing.T) {
		t.Parallel()

		if got := ExtractDocument(nil); len(got) != 0 {
			t.Errorf("expected no identifiers, got %v", got)
		}
	})

	t.Run("rescans after mutation", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><body><div id="c"></div></body></html>`)
		if got := ExtractDocument(doc); len(got) != 0 {
			t.Fatalf("expected no identifiers, got %v", got)
		}

		doc.Find("#c").SetText("10.2000/late")
		if got := ExtractDocument(doc); !slices.Equal(got, []string{"10.2000/late"}) {
			t.Errorf("expected fresh scan to see new content, got %v", got)
		}
	})
}
