package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	err := c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(-1))
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_Jobs(t *testing.T) {
	c := NewController(Config{MaxJobs: 2})

	require.NoError(t, c.AcquireJob(t.Context()))
	require.NoError(t, c.AcquireJob(t.Context()))
	assert.False(t, c.TryAcquireJob())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireJob(ctx), context.DeadlineExceeded)

	c.ReleaseJob()
	assert.True(t, c.TryAcquireJob())
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Equal(t, int64(0), c.MemoryUsage())
	require.NoError(t, c.AcquireJob(context.Background()))
	assert.True(t, c.TryAcquireJob())
	c.ReleaseJob()
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
	assert.True(t, c.TryAcquireIO(1<<20))
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})
	ctx := context.Background()

	require.NoError(t, c.AcquireIO(ctx, 100))
	assert.False(t, c.TryAcquireIO(2000))

	unlimited := NewController(Config{})
	require.NoError(t, unlimited.AcquireIO(ctx, 1_000_000))
}

func TestRateLimitedIO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	ctx := context.Background()

	var buf bytes.Buffer
	w := NewRateLimitedWriter(ctx, &buf, c)
	n, err := w.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	r := NewRateLimitedReader(ctx, &buf, c)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestRateLimitedWriterCanceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewRateLimitedWriter(ctx, io.Discard, c)
	_, err := w.Write(make([]byte, 100))
	assert.Error(t, err)
}
