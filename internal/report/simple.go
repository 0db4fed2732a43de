package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/peermark/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether pages without comments are listed in batches.
	showEmpty bool

	// verbose adds identifiers and reviewer names to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to list pages without comments.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a single page report.
func (w *SimpleWriter) Write(report *model.PageReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	w.writePage(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs every report followed by a batch summary.
func (w *SimpleWriter) WriteBatch(reports []*model.PageReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	for _, r := range reports {
		if r == nil {
			continue
		}
		if !w.showEmpty && !r.Failed() && !r.Annotated() && !r.Disabled {
			continue
		}
		w.writePage(&sb, r)
	}
	w.writeSummary(&sb, Summarize(reports))
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report title.
func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PEERMARK REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// writePage writes one page section.
func (w *SimpleWriter) writePage(sb *strings.Builder, report *model.PageReport) {
	sb.WriteString(fmt.Sprintf("Page:        %s\n", report.URL))
	if report.Source != "" && report.Source != report.URL {
		sb.WriteString(fmt.Sprintf("Source:      %s\n", report.Source))
	}
	sb.WriteString(fmt.Sprintf("Host:        %s\n", report.Host))
	sb.WriteString(fmt.Sprintf("Date:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))

	switch {
	case report.Failed():
		sb.WriteString(fmt.Sprintf("Status:      ERROR - %s\n", report.ErrorMessage))
	case report.Disabled:
		sb.WriteString("Status:      Disabled for this host\n")
	default:
		sb.WriteString(fmt.Sprintf("Status:      %s\n", report.State))
	}

	sb.WriteString(fmt.Sprintf("Identifiers: %d\n", len(report.Identifiers)))
	sb.WriteString(fmt.Sprintf("Commented:   %d\n", len(report.Feedbacks)))
	sb.WriteString(fmt.Sprintf("Markers:     %d\n", report.Markers))
	if report.OutputPath != "" {
		sb.WriteString(fmt.Sprintf("Output:      %s\n", report.OutputPath))
	}
	sb.WriteString("\n")

	if w.verbose && len(report.Identifiers) > 0 {
		sb.WriteString("  Identifiers found:\n")
		for _, id := range report.Identifiers {
			sb.WriteString(fmt.Sprintf("    - %s\n", id))
		}
		sb.WriteString("\n")
	}

	if len(report.Feedbacks) > 0 {
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		for _, fb := range report.Feedbacks {
			sb.WriteString(fmt.Sprintf("  [+] %s: %s\n", fb.Identifier, fb.CommentLabel()))
			if fb.Title != "" {
				sb.WriteString(fmt.Sprintf("      Title: %s\n", fb.Title))
			}
			sb.WriteString(fmt.Sprintf("      Link:  %s\n", fb.URL))
			if w.verbose && len(fb.Users) > 0 {
				sb.WriteString(fmt.Sprintf("      By:    %s\n", fb.Users.String()))
			}
		}
		sb.WriteString("\n")
	}

	if report.Banner {
		sb.WriteString(fmt.Sprintf("  Banner shown for %d publication(s)\n\n", len(report.Publications)))
	}
}

// writeSummary writes the batch totals.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, s Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  PAGES:        %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("  ANNOTATED:    %d\n", s.Annotated))
	sb.WriteString(fmt.Sprintf("  NO COMMENTS:  %d\n", s.NoComments))
	sb.WriteString(fmt.Sprintf("  DISABLED:     %d\n", s.Disabled))
	sb.WriteString(fmt.Sprintf("  FAILED:       %d\n", s.Failed))
	sb.WriteString(fmt.Sprintf("  MARKERS:      %d\n", s.Markers))
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by peermark\n")
	sb.WriteString("https://github.com/nao1215/peermark\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
