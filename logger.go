package wordgain

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/scheduler"
)

// Logger wraps slog.Logger with wordgain-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRunID tags every record with the id of a build run.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithRange adds the column range of a batch.
func (l *Logger) WithRange(r matrix.Range) *Logger {
	return &Logger{
		Logger: l.Logger.With("start", r.Start, "end", r.End),
	}
}

// LogResume logs the start of a build run.
func (l *Logger) LogResume(ctx context.Context, runID string, from, total int) {
	if from > 0 {
		l.WithRunID(runID).InfoContext(ctx, "resuming build",
			"from", from,
			"total", total,
		)
	} else {
		l.WithRunID(runID).InfoContext(ctx, "starting build",
			"total", total,
		)
	}
}

// LogBatchCommit logs a committed batch.
func (l *Logger) LogBatchCommit(ctx context.Context, runID string, r matrix.Range, cells, unresolved int, d time.Duration) {
	l.WithRunID(runID).WithRange(r).DebugContext(ctx, "batch committed",
		"cells", cells,
		"unresolved", unresolved,
		"duration", d,
	)
}

// LogCommitRetry logs a failed commit that will be retried.
func (l *Logger) LogCommitRetry(ctx context.Context, runID string, r matrix.Range, attempt int, err error) {
	l.WithRunID(runID).WithRange(r).WarnContext(ctx, "batch commit failed, retrying",
		"attempt", attempt,
		"error", err,
	)
}

// LogUnresolved logs a cell whose computation failed.
func (l *Logger) LogUnresolved(ctx context.Context, runID string, cell matrix.CellRef, err error) {
	l.WithRunID(runID).WarnContext(ctx, "cell unresolved",
		"guess", string(cell.Guess),
		"answer", string(cell.Answer),
		"error", err,
	)
}

// LogRunComplete logs the outcome of a build run.
func (l *Logger) LogRunComplete(ctx context.Context, report *scheduler.Report, err error) {
	log := l.WithRunID(report.RunID)
	if err != nil {
		log.ErrorContext(ctx, "build halted",
			"next_offset", report.NextOffset,
			"batches", report.Batches,
			"error", err,
		)
		return
	}
	log.InfoContext(ctx, "build finished",
		"next_offset", report.NextOffset,
		"complete", report.Complete,
		"batches", report.Batches,
		"cells", report.Cells,
		"unresolved", len(report.Unresolved),
	)
}

var _ scheduler.Logger = (*Logger)(nil)
