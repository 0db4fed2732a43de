package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/peermark/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs a single page report in Markdown format.
func (w *MarkdownWriter) Write(report *model.PageReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("peermark Report")
	md.PlainText("")
	w.writePage(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs a batch summary followed by every page.
func (w *MarkdownWriter) WriteBatch(reports []*model.PageReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := Summarize(reports)

	md.H1("peermark Report")
	md.PlainText("")
	w.writeSummary(md, summary)

	for _, r := range reports {
		if r == nil {
			continue
		}
		w.writePage(md, r)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the batch summary table, chart and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Pages"},
		Rows: [][]string{
			{"💬 Annotated", strconv.Itoa(s.Annotated)},
			{"⚪ No comments", strconv.Itoa(s.NoComments)},
			{"⏸️ Disabled", strconv.Itoa(s.Disabled)},
			{"❌ Failed", strconv.Itoa(s.Failed)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**"},
		},
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, s)
	}

	switch {
	case s.Failed > 0:
		md.Warningf("%d page(s) could not be processed. See the error column below.", s.Failed)
	case s.Annotated > 0:
		md.Note(fmt.Sprintf("%d marker(s) placed across %d page(s).", s.Markers, s.Annotated))
	default:
		md.Tip("No commented publications were found.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)

	if s.Annotated > 0 {
		chart.LabelAndIntValue("Annotated", uint64(s.Annotated))
	}
	if s.NoComments > 0 {
		chart.LabelAndIntValue("No comments", uint64(s.NoComments))
	}
	if s.Disabled > 0 {
		chart.LabelAndIntValue("Disabled", uint64(s.Disabled))
	}
	if s.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(s.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePage writes the section for one page.
func (w *MarkdownWriter) writePage(md *markdown.Markdown, report *model.PageReport) {
	md.H2(report.URL)
	md.PlainText("")

	rows := [][]string{
		{"Host", "`" + report.Host + "`"},
		{"Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Status", statusText(report)},
		{"Identifiers", strconv.Itoa(len(report.Identifiers))},
		{"Markers", strconv.Itoa(report.Markers)},
	}
	if report.OutputPath != "" {
		rows = append(rows, []string{"Output", "`" + report.OutputPath + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Feedbacks) == 0 {
		return
	}

	md.H3("Commented Publications")
	md.PlainText("")

	fbRows := make([][]string, len(report.Feedbacks))
	for i, fb := range report.Feedbacks {
		title := fb.Title
		if title == "" {
			title = "-"
		}
		fbRows[i] = []string{
			"`" + fb.Identifier + "`",
			truncateString(title, 60),
			strconv.Itoa(fb.TotalComments),
			"[open](" + fb.URL + ")",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"DOI", "Title", "Comments", "Link"},
		Rows:   fbRows,
	})
	md.PlainText("")

	for _, fb := range report.Feedbacks {
		if len(fb.Users) > 0 {
			md.Details(fb.Identifier, "Comments by "+fb.Users.String())
		}
	}
	md.PlainText("")
}

// statusText returns the status cell for a page.
func statusText(report *model.PageReport) string {
	switch {
	case report.Failed():
		return "❌ Error - " + report.ErrorMessage
	case report.Disabled:
		return "⏸️ Disabled for this host"
	case report.Annotated():
		return "💬 Annotated"
	default:
		return "✅ " + outcome(report)
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [peermark](https://github.com/nao1215/peermark)*")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
