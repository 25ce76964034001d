package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the
// memory limit.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for matrix memory.
	// If 0, usage is only tracked.
	MemoryLimitBytes int64

	// MaxJobs is the maximum number of concurrent training or
	// quantization jobs. If 0, defaults to 1.
	MaxJobs int64

	// IOLimitBytesPerSec caps model IO throughput. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller tracks memory, job slots and IO throughput.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	jobSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 1
	}

	c := &Controller{
		cfg:    cfg,
		jobSem: semaphore.NewWeighted(cfg.MaxJobs),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory reserves bytes without blocking.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return ErrMemoryLimitExceeded
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory returns a reservation made by AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireJob blocks until a job slot is free or ctx is done.
func (c *Controller) AcquireJob(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.jobSem.Acquire(ctx, 1)
}

// TryAcquireJob reserves a job slot without blocking.
func (c *Controller) TryAcquireJob() bool {
	if c == nil {
		return true
	}
	return c.jobSem.TryAcquire(1)
}

// ReleaseJob frees a job slot.
func (c *Controller) ReleaseJob() {
	if c == nil {
		return
	}
	c.jobSem.Release(1)
}

// AcquireIO waits until the IO limit allows n bytes.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil || n <= 0 {
		return nil
	}
	// WaitN rejects requests above the burst size.
	burst := c.ioLimiter.Burst()
	for n > burst {
		if err := c.ioLimiter.WaitN(ctx, burst); err != nil {
			return err
		}
		n -= burst
	}
	return c.ioLimiter.WaitN(ctx, n)
}

// TryAcquireIO reserves n bytes of IO without blocking.
func (c *Controller) TryAcquireIO(n int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), n)
}
