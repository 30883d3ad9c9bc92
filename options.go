package wordgain

import (
	"log/slog"
	"time"

	"github.com/hupe1980/wordgain/internal/segment"
	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/scheduler"
)

// Compression selects the codec of segment blobs.
type Compression = segment.Compression

const (
	CompressionNone = segment.CompressionNone
	CompressionLZ4  = segment.CompressionLZ4
	CompressionZSTD = segment.CompressionZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	return segment.ParseCompression(s)
}

// Strategy selects how a batch is computed.
type Strategy = matrix.Strategy

const (
	StrategyFilter    = matrix.StrategyFilter
	StrategyPartition = matrix.StrategyPartition
)

type options struct {
	batchSize        int
	workers          int
	maxInFlight      int
	strategy         Strategy
	resume           bool
	maxRetries       int
	backoff          time.Duration
	compression      Compression
	memoryLimit      int64
	commitRate       int64
	cacheBytes       int64
	keepManifests    int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures an Analyzer.
type Option func(*options)

// WithBatchSize sets the number of guess columns computed and committed
// together. Defaults to 10.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithWorkers bounds the goroutines computing one batch.
// Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMaxInFlight sets how many batches are computed concurrently.
// Each batch owns a disjoint column range. Defaults to 1.
func WithMaxInFlight(n int) Option {
	return func(o *options) {
		o.maxInFlight = n
	}
}

// WithStrategy selects how cells are computed.
//
// StrategyFilter runs the consistency filter over the dictionary for every
// cell. StrategyPartition groups the answers of a guess column by feedback
// pattern once and shares each class between its members; it produces the
// same matrix much faster.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithResume continues a build from the store's progress instead of
// replacing the table.
func WithResume(resume bool) Option {
	return func(o *options) {
		o.resume = resume
	}
}

// WithRetry bounds the commit retries of a batch. The delay before the first
// retry is backoff and doubles with every further attempt.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(o *options) {
		o.maxRetries = maxRetries
		o.backoff = backoff
	}
}

// WithCompression selects the segment codec of blob-backed stores.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMemoryLimit bounds the memory reserved by in-flight batches and the
// segment cache. 0 disables the limit.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithCommitRateLimit caps the bytes per second written to blob-backed stores.
func WithCommitRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.commitRate = bytesPerSec
	}
}

// WithCacheSize bounds the decoded-segment cache of blob-backed stores.
// A negative size disables the cache.
func WithCacheSize(bytes int64) Option {
	return func(o *options) {
		o.cacheBytes = bytes
	}
}

// WithKeepManifests sets how many manifest versions blob-backed stores keep
// after each commit. Older versions are pruned. Values below 1 keep two.
func WithKeepManifests(n int) Option {
	return func(o *options) {
		o.keepManifests = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &wordgain.BasicMetricsCollector{}
//	a, _ := wordgain.Open(ctx, wordgain.Memory(), dict, wordgain.WithMetricsCollector(metrics))
//	// ... build ...
//	stats := metrics.GetStats()
//	fmt.Printf("Batches: %d, Avg commit: %dns\n", stats.BatchCount, stats.CommitAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		batchSize:        scheduler.DefaultBatchSize,
		maxInFlight:      1,
		strategy:         StrategyFilter,
		maxRetries:       scheduler.DefaultMaxRetries,
		backoff:          scheduler.DefaultBackoff,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.batchSize <= 0 {
		o.batchSize = scheduler.DefaultBatchSize
	}
	if o.maxInFlight <= 0 {
		o.maxInFlight = 1
	}
	return o
}
