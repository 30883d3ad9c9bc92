package resource

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for reserved batch memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxInFlight is the maximum number of batches computed concurrently.
	// If 0, defaults to 1.
	MaxInFlight int64

	// CommitBytesPerSec caps the write rate to the matrix store.
	// If 0, unlimited.
	CommitBytesPerSec int64
}

// Controller manages build resources (memory, concurrency, commit IO).
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	batchSem *semaphore.Weighted

	ioLimiter *rate.Limiter

	reclaimMu  sync.Mutex
	reclaimers []Reclaimer
}

// Reclaimer gives back memory held by a best-effort consumer such as a cache.
// It is asked to free at least bytes and returns what it actually released.
type Reclaimer func(bytes int64) int64

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}

	c := &Controller{
		cfg:      cfg,
		batchSem: semaphore.NewWeighted(cfg.MaxInFlight),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.CommitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.CommitBytesPerSec), int(cfg.CommitBytesPerSec))
	}

	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{MaxInFlight: 1}
	}
	return c.cfg
}

// RegisterReclaimer adds a consumer that AcquireMemory may shrink when the
// hard limit is exhausted.
func (c *Controller) RegisterReclaimer(fn Reclaimer) {
	if c == nil || fn == nil {
		return
	}
	c.reclaimMu.Lock()
	c.reclaimers = append(c.reclaimers, fn)
	c.reclaimMu.Unlock()
}

// AcquireMemory reserves memory. With a hard limit it first asks registered
// reclaimers to make room, then blocks until the reservation fits or ctx is
// canceled. A reservation larger than the whole limit is clamped to the limit
// so a single oversized batch can still run.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) (int64, error) {
	if c == nil || bytes <= 0 {
		return 0, nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			bytes = c.cfg.MemoryLimitBytes
		}
		if !c.memSem.TryAcquire(bytes) {
			c.reclaim(bytes)
			if err := c.memSem.Acquire(ctx, bytes); err != nil {
				return 0, err
			}
		}
	}

	c.memUsed.Add(bytes)
	return bytes, nil
}

// TryAcquireMemory attempts to reserve memory without blocking.
// Returns true if acquired, false if limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireBatch reserves an in-flight batch slot, blocking while all are busy.
func (c *Controller) AcquireBatch(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	return c.batchSem.Acquire(ctx, 1)
}

// ReleaseBatch releases an in-flight batch slot.
func (c *Controller) ReleaseBatch() {
	if c == nil {
		return
	}
	c.batchSem.Release(1)
}

// AcquireIO waits until the commit rate allows writing bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

func (c *Controller) reclaim(bytes int64) {
	c.reclaimMu.Lock()
	fns := c.reclaimers
	c.reclaimMu.Unlock()

	for _, fn := range fns {
		if bytes <= 0 {
			return
		}
		bytes -= fn(bytes)
	}
}
