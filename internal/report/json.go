package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/peermark/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is embedded in batch output when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the peermark version in batch output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a single page report as a JSON object.
func (w *JSONWriter) Write(report *model.PageReport) (int, error) {
	return w.writeJSON(report)
}

// BatchReport wraps the reports of a batch run with a summary.
type BatchReport struct {
	// Version is the peermark version that generated this report.
	Version string `json:"version,omitempty"`

	// Summary aggregates the outcomes.
	Summary Summary `json:"summary"`

	// Pages holds one report per target, in target order.
	Pages []*model.PageReport `json:"pages"`
}

// WriteBatch outputs a BatchReport.
func (w *JSONWriter) WriteBatch(reports []*model.PageReport) (int, error) {
	pages := make([]*model.PageReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			pages = append(pages, r)
		}
	}

	return w.writeJSON(&BatchReport{
		Version: w.version,
		Summary: Summarize(pages),
		Pages:   pages,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
