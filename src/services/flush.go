package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/quartz"

	"keytally/src/lib"
	"keytally/src/models"
)

// CountsWriter is the part of the persistence gateway a flush needs.
type CountsWriter interface {
	UpsertSnapshot(ctx context.Context, counts map[models.InputID]int64, at time.Time) error
	ReportTopCounts(ctx context.Context) ([]models.InputCount, error)
}

// Flusher persists counter snapshots, periodically and on demand.
type Flusher struct {
	store    *CounterStore
	repo     CountsWriter
	reporter *Reporter
	metrics  *lib.Metrics
	logger   *slog.Logger
	clock    quartz.Clock
	interval time.Duration
}

func NewFlusher(
	store *CounterStore,
	repo CountsWriter,
	reporter *Reporter,
	metrics *lib.Metrics,
	logger *slog.Logger,
	clock quartz.Clock,
	interval time.Duration,
) *Flusher {
	return &Flusher{
		store:    store,
		repo:     repo,
		reporter: reporter,
		metrics:  metrics,
		logger:   logger,
		clock:    clock,
		interval: interval,
	}
}

// Flush writes a snapshot of every counter stamped with the current time,
// then prints the top-counts report. A failed report does not fail the flush.
func (f *Flusher) Flush(ctx context.Context) error {
	snapshot := f.store.Snapshot()
	at := f.clock.Now()

	if err := f.repo.UpsertSnapshot(ctx, snapshot, at); err != nil {
		f.metrics.FlushFailed()
		return fmt.Errorf("flush counts: %w", err)
	}
	f.store.MarkFlushed(at)
	f.metrics.FlushSucceeded(at)
	f.logger.Debug("counts flushed", "rows", len(snapshot), "at", at)

	rows, err := f.repo.ReportTopCounts(ctx)
	if err != nil {
		f.logger.Warn("top counts report failed", "error", err)
		return nil
	}
	f.reporter.Counts(rows)
	return nil
}

// Start flushes every interval until ctx is done. Failed flushes are logged
// and retried on the next tick with the then-current counts.
func (f *Flusher) Start(ctx context.Context) quartz.Waiter {
	f.reporter.Status("Starting database saving...")
	return f.clock.TickerFunc(ctx, f.interval, func() error {
		if err := f.Flush(ctx); err != nil {
			f.logger.Error("periodic flush failed", "error", err)
		}
		return nil
	}, "flusher")
}
