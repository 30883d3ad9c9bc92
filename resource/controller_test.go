package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	got, err := c.AcquireMemory(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got)
	assert.Equal(t, int64(50), c.MemoryUsage())

	assert.True(t, c.TryAcquireMemory(40))
	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// A blocked reservation gives up with the context.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.AcquireMemory(ctx, 20)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.ReleaseMemory(90)
	assert.Zero(t, c.MemoryUsage())

	// Oversized reservations are clamped to the limit.
	got, err = c.AcquireMemory(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)
	c.ReleaseMemory(got)
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	got, err := c.AcquireMemory(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got)
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_InFlight(t *testing.T) {
	c := NewController(Config{MaxInFlight: 2})

	require.NoError(t, c.AcquireBatch(context.Background()))
	require.NoError(t, c.AcquireBatch(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireBatch(ctx), context.DeadlineExceeded)

	c.ReleaseBatch()
	require.NoError(t, c.AcquireBatch(context.Background()))
}

func TestController_Reclaim(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	// A best-effort holder owns the whole budget and gives it back on request.
	require.True(t, c.TryAcquireMemory(100))
	held := int64(100)
	var asked []int64
	c.RegisterReclaimer(func(bytes int64) int64 {
		asked = append(asked, bytes)
		n := min(bytes, held)
		held -= n
		c.ReleaseMemory(n)
		return n
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := c.AcquireMemory(ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got)
	assert.Equal(t, []int64{60}, asked)
	assert.Equal(t, int64(40), held)
	assert.Equal(t, int64(100), c.MemoryUsage())

	// Reservations that fit never reach the reclaimer.
	c.ReleaseMemory(60)
	_, err = c.AcquireMemory(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, asked, 1)
}

func TestController_CommitRate(t *testing.T) {
	c := NewController(Config{CommitBytesPerSec: 1 << 20})

	// Writes larger than the burst are split instead of rejected.
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20+10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 1<<20))
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	got, err := c.AcquireMemory(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, got)
	require.NoError(t, c.AcquireBatch(context.Background()))
	c.RegisterReclaimer(func(int64) int64 { return 0 })
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
	c.ReleaseBatch()
	c.ReleaseMemory(10)
	assert.Equal(t, int64(1), c.Config().MaxInFlight)
}
