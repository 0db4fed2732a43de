package report

import (
	"io"

	"github.com/nao1215/peermark/internal/model"
)

// Writer defines the interface for report output.
// Implementations write annotation results in various formats.
type Writer interface {
	// Write outputs a single page report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.PageReport) (int, error)

	// WriteBatch outputs the reports of a batch run followed by a summary.
	WriteBatch(reports []*model.PageReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.PageReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the batch to all configured Writers.
func (m *MultiWriter) WriteBatch(reports []*model.PageReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Summary aggregates the outcome of a batch run.
type Summary struct {
	Total        int `json:"total"`
	Annotated    int `json:"annotated"`
	Disabled     int `json:"disabled"`
	Failed       int `json:"failed"`
	NoComments   int `json:"no_comments"`
	Markers      int `json:"markers"`
	Publications int `json:"publications"`
}

// Summarize counts the outcomes of reports. Nil entries are skipped.
func Summarize(reports []*model.PageReport) Summary {
	var s Summary
	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Total++
		s.Markers += r.Markers
		s.Publications += len(r.Publications)
		switch {
		case r.Failed():
			s.Failed++
		case r.Disabled:
			s.Disabled++
		case r.Annotated():
			s.Annotated++
		default:
			s.NoComments++
		}
	}
	return s
}

// outcome returns a short label for the report's result.
func outcome(r *model.PageReport) string {
	switch {
	case r.Failed():
		return "failed"
	case r.Disabled:
		return "disabled"
	case r.Annotated():
		return "annotated"
	default:
		return "no comments"
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
