package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/peermark/internal/model"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, *model.PageReport) error { return nil }

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(noop)

		if bp.concurrency != 10 {
			t.Errorf("expected default concurrency 10, got %d", bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		if bp := NewBatchProcessor(noop, WithConcurrency(5)); bp.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		if bp := NewBatchProcessor(noop, WithConcurrency(0)); bp.concurrency != 10 {
			t.Errorf("expected concurrency 10, got %d", bp.concurrency)
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("maintains result order", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(
			func(_ context.Context, report *model.PageReport) error {
				report.Host = report.URL + "-done"
				return nil
			},
			WithBatchLogger(discardLogger()),
		)

		targets := []string{"first.html", "second.html", "third.html"}
		results, err := bp.ProcessBatch(context.Background(), targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i, result := range results {
			if result.Source != targets[i] || result.Host != targets[i]+"-done" {
				t.Errorf("result[%d]: unexpected report %+v", i, result)
			}
			if result.ID == "" {
				t.Errorf("result[%d]: expected run id", i)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var maxConcurrent atomic.Int32
		var currentConcurrent atomic.Int32
		var mu sync.Mutex

		bp := NewBatchProcessor(
			func(_ context.Context, _ *model.PageReport) error {
				current := currentConcurrent.Add(1)

				mu.Lock()
				if current > maxConcurrent.Load() {
					maxConcurrent.Store(current)
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)
				currentConcurrent.Add(-1)
				return nil
			},
			WithConcurrency(2),
			WithBatchLogger(discardLogger()),
		)

		targets := make([]string, 8)
		for i := range targets {
			targets[i] = "page.html"
		}

		if _, err := bp.ProcessBatch(context.Background(), targets); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if maxConcurrent.Load() > 2 {
			t.Errorf("max concurrent was %d, expected <= 2", maxConcurrent.Load())
		}
	})

	t.Run("continues after individual page failure", func(t *testing.T) {
		t.Parallel()

		var processed atomic.Int32

		bp := NewBatchProcessor(
			func(_ context.Context, report *model.PageReport) error {
				processed.Add(1)
				if report.URL == "fail.html" {
					return errors.New("simulated failure")
				}
				return nil
			},
			WithBatchLogger(discardLogger()),
		)

		results, err := bp.ProcessBatch(context.Background(), []string{"a.html", "fail.html", "c.html"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if processed.Load() != 3 {
			t.Errorf("expected 3 processed, got %d", processed.Load())
		}
		if !results[1].Failed() || results[0].Failed() {
			t.Error("expected only the second result to fail")
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var called atomic.Int32
		bp := NewBatchProcessor(
			func(context.Context, *model.PageReport) error {
				called.Add(1)
				return nil
			},
			WithBatchLogger(discardLogger()),
		)

		_, err := bp.ProcessBatch(ctx, []string{"a.html", "b.html"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if called.Load() != 0 {
			t.Errorf("expected no page processed, got %d", called.Load())
		}
	})
}
