package scheduler

import (
	"context"
	"time"

	"github.com/hupe1980/wordgain/matrix"
)

// Logger receives the scheduler's operational events.
type Logger interface {
	LogResume(ctx context.Context, runID string, from, total int)
	LogBatchCommit(ctx context.Context, runID string, r matrix.Range, cells, unresolved int, d time.Duration)
	LogCommitRetry(ctx context.Context, runID string, r matrix.Range, attempt int, err error)
	LogUnresolved(ctx context.Context, runID string, cell matrix.CellRef, err error)
	LogRunComplete(ctx context.Context, report *Report, err error)
}

// MetricsObserver receives timings of batch computation and commits.
type MetricsObserver interface {
	// RecordBatch is called when a batch has been computed.
	RecordBatch(cells, unresolved int, d time.Duration)

	// RecordCommit is called after every commit attempt.
	RecordCommit(cells int, d time.Duration, err error)
}

type nopLogger struct{}

func (nopLogger) LogResume(context.Context, string, int, int) {}
func (nopLogger) LogBatchCommit(context.Context, string, matrix.Range, int, int, time.Duration) {
}
func (nopLogger) LogCommitRetry(context.Context, string, matrix.Range, int, error) {}
func (nopLogger) LogUnresolved(context.Context, string, matrix.CellRef, error)    {}
func (nopLogger) LogRunComplete(context.Context, *Report, error)                  {}

type nopMetrics struct{}

func (nopMetrics) RecordBatch(int, int, time.Duration)   {}
func (nopMetrics) RecordCommit(int, time.Duration, error) {}
