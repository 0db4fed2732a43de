package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/peermark/internal/model"
)

// createTestReport creates an annotated page report with sample data.
func createTestReport() *model.PageReport {
	r := model.NewPageReport("https://www.example.com/search?q=crispr")
	r.Host = "example.com"
	r.State = "annotated"
	r.Identifiers = []string{"10.1000/xyz123", "10.1000/abc456"}
	r.Feedbacks = []model.Feedback{
		{
			Identifier:    "10.1000/xyz123",
			URL:           "https://pubpeer.com/publications/XYZ",
			Title:         "A study of things",
			TotalComments: 3,
			Users:         model.Reviewers{"Alice", "Bob"},
		},
	}
	r.Publications = []model.Publication{{Identifier: "10.1000/xyz123", Title: "A study of things", URL: "https://pubpeer.com/publications/XYZ"}}
	r.Markers = 1
	r.Banner = true
	r.Duration = 120 * time.Millisecond
	return r
}

// createBatch returns one report per outcome.
func createBatch() []*model.PageReport {
	annotated := createTestReport()

	empty := model.NewPageReport("https://empty.example.org")
	empty.Host = "empty.example.org"
	empty.State = "idle"

	disabled := model.NewPageReport("https://journals.plos.org/x")
	disabled.Host = "journals.plos.org"
	disabled.State = "disabled"
	disabled.Disabled = true

	failed := model.NewPageReport("https://broken.example.net")
	failed.Host = "broken.example.net"
	failed.ErrorMessage = "lookup failed: unexpected status 503"

	return []*model.PageReport{annotated, empty, nil, disabled, failed}
}

// TestSummarize tests outcome counting.
func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(createBatch())

	if s.Total != 4 {
		t.Errorf("expected 4 pages (nil skipped), got %d", s.Total)
	}
	if s.Annotated != 1 || s.NoComments != 1 || s.Disabled != 1 || s.Failed != 1 {
		t.Errorf("unexpected outcome counts: %+v", s)
	}
	if s.Markers != 1 || s.Publications != 1 {
		t.Errorf("unexpected totals: %+v", s)
	}

	if empty := Summarize(nil); empty.Total != 0 {
		t.Errorf("expected empty summary, got %+v", empty)
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes a single page", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"PEERMARK REPORT",
			"https://www.example.com/search?q=crispr",
			"Markers:     1",
			"10.1000/xyz123: 3 comments",
			"A study of things",
			"Banner shown for 1 publication(s)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "Alice") {
			t.Error("reviewers should only be listed in verbose mode")
		}
	})

	t.Run("verbose lists identifiers and reviewers", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "- 10.1000/abc456") {
			t.Error("expected identifier list in verbose output")
		}
		if !strings.Contains(output, "By:    Alice, Bob") {
			t.Error("expected reviewers in verbose output")
		}
	})

	t.Run("batch hides pages without comments by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteBatch(createBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "empty.example.org") {
			t.Error("expected page without comments to be hidden")
		}
		if !strings.Contains(output, "ERROR - lookup failed") {
			t.Error("expected failed page to be listed")
		}
		if !strings.Contains(output, "Disabled for this host") {
			t.Error("expected disabled page to be listed")
		}
		if !strings.Contains(output, "PAGES:        4") {
			t.Error("expected summary totals")
		}
	})

	t.Run("batch shows empty pages when asked", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).WriteBatch(createBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "empty.example.org") {
			t.Error("expected page without comments to be listed")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes a single page object", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got["host"] != "example.com" {
			t.Errorf("expected host example.com, got %v", got["host"])
		}
		if got["markers"] != float64(1) {
			t.Errorf("expected 1 marker, got %v", got["markers"])
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("compact by default and indented with pretty print", func(t *testing.T) {
		t.Parallel()

		var compact, pretty bytes.Buffer
		if _, err := NewJSONWriter(&compact).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := NewJSONWriter(&pretty, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Count(compact.String(), "\n") != 1 {
			t.Error("expected compact output on one line")
		}
		if !strings.Contains(pretty.String(), "\n  \"url\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("batch includes version and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("v1.2.3"))
		if _, err := w.WriteBatch(createBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got BatchReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.Version != "v1.2.3" {
			t.Errorf("expected version v1.2.3, got %q", got.Version)
		}
		if len(got.Pages) != 4 {
			t.Errorf("expected 4 pages, got %d", len(got.Pages))
		}
		if got.Summary.Failed != 1 || got.Summary.Total != 4 {
			t.Errorf("unexpected summary %+v", got.Summary)
		}
		if got.Pages[0].Feedbacks[0].Users.String() != "Alice, Bob" {
			t.Errorf("expected reviewers to survive, got %v", got.Pages[0].Feedbacks[0].Users)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes a single page", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# peermark Report",
			"## https://www.example.com/search?q=crispr",
			"Commented Publications",
			"`10.1000/xyz123`",
			"[open](https://pubpeer.com/publications/XYZ)",
			"Comments by Alice, Bob",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("batch includes summary and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteBatch(createBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Summary") {
			t.Error("expected summary section")
		}
		if !strings.Contains(output, "```mermaid") {
			t.Error("expected mermaid pie chart")
		}
		if !strings.Contains(output, "[!WARNING]") {
			t.Error("expected warning alert for failed pages")
		}
		if !strings.Contains(output, "Error - lookup failed") {
			t.Error("expected error status for failed page")
		}
	})
}

// errWriter fails every write.
type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := m.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		m := NewMultiWriter(NewJSONWriter(errWriter{}), NewJSONWriter(&after))

		if _, err := m.WriteBatch(createBatch()); err == nil {
			t.Error("expected error")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}

// TestTruncateString tests rune-aware truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"ångström résumé", 8, "ångst..."},
	}

	for _, tt := range tests {
		if got := truncateString(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
