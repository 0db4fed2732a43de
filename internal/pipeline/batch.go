package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/peermark/internal/model"
)

// PageFunc processes one target and fills in its report. A returned error
// is recorded in the report; it never stops the rest of the batch.
type PageFunc func(ctx context.Context, report *model.PageReport) error

// BatchProcessor handles concurrent processing of multiple pages.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// process handles a single page. Each call gets its own report and
	// must not share page state with other calls.
	process PageFunc

	// concurrency is the maximum number of pages processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent pages.
// Default is 10 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(process PageFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		process:     process,
		concurrency: 10,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch processes targets concurrently and returns one report per
// target, in input order. The error is non-nil only when ctx is cancelled;
// per-page failures are recorded in the reports.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.PageReport, error) {
	results := make([]*model.PageReport, len(targets))

	err := bp.ProcessBatchWithCallback(ctx, targets, func(report *model.PageReport, index int) {
		results[index] = report
	})

	return results, err
}

// ProcessBatchWithCallback processes targets and calls callback for each
// completed page. The callback runs on the worker goroutine, so it must be
// safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(report *model.PageReport, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_pages", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewPageReport(target)
			report.Source = target

			if err := bp.process(ctx, report); err != nil {
				report.ErrorMessage = err.Error()
				bp.logger.Warn("page failed",
					"run_id", report.ID,
					"target", target,
					"error", err,
				)
			} else {
				bp.logger.Debug("page completed",
					"run_id", report.ID,
					"target", target,
					"index", i+1,
					"total", len(targets),
				)
			}
			report.Duration = time.Since(report.StartedAt)

			callback(report, i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_pages", len(targets),
		"elapsed", time.Since(startTime),
	)

	return err
}
