package wordgain

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordBatch is called when a batch has been computed.
	// cells is the number of cells, unresolved the number that failed.
	RecordBatch(cells, unresolved int, duration time.Duration)

	// RecordCommit is called after every commit attempt of a batch.
	RecordCommit(cells int, duration time.Duration, err error)

	// RecordQuery is called after each query against the matrix store.
	RecordQuery(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)    {}
func (NoopMetricsCollector) RecordCommit(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordQuery(time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BatchCount       atomic.Int64
	BatchCells       atomic.Int64
	BatchUnresolved  atomic.Int64
	BatchTotalNanos  atomic.Int64
	CommitCount      atomic.Int64
	CommitErrors     atomic.Int64
	CommitTotalNanos atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryTotalNanos  atomic.Int64
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(cells, unresolved int, duration time.Duration) {
	b.BatchCount.Add(1)
	b.BatchCells.Add(int64(cells))
	b.BatchUnresolved.Add(int64(unresolved))
	b.BatchTotalNanos.Add(duration.Nanoseconds())
}

// RecordCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCommit(cells int, duration time.Duration, err error) {
	b.CommitCount.Add(1)
	b.CommitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CommitErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BatchCount:      b.BatchCount.Load(),
		BatchCells:      b.BatchCells.Load(),
		BatchUnresolved: b.BatchUnresolved.Load(),
		BatchAvgNanos:   avg(b.BatchTotalNanos.Load(), b.BatchCount.Load()),
		CommitCount:     b.CommitCount.Load(),
		CommitErrors:    b.CommitErrors.Load(),
		CommitAvgNanos:  avg(b.CommitTotalNanos.Load(), b.CommitCount.Load()),
		QueryCount:      b.QueryCount.Load(),
		QueryErrors:     b.QueryErrors.Load(),
		QueryAvgNanos:   avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BatchCount      int64
	BatchCells      int64
	BatchUnresolved int64
	BatchAvgNanos   int64
	CommitCount     int64
	CommitErrors    int64
	CommitAvgNanos  int64
	QueryCount      int64
	QueryErrors     int64
	QueryAvgNanos   int64
}
