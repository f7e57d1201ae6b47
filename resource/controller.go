// Package resource provides the shared resource controller passed into each
// collection at definition time: a backpressure limiter for in-flight
// operations and an optional IO throughput limiter for snapshot writes.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxInflightOps caps the number of simultaneously in-flight operations
	// across all collections sharing the controller. This is backpressure,
	// not a correctness mechanism; per-id locks provide mutual exclusion.
	// If 0, defaults to 64.
	MaxInflightOps int64

	// IOLimitBytesPerSec is the maximum IO throughput for snapshot writes.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages shared resources (operation concurrency, IO).
type Controller struct {
	cfg Config

	opSem     *semaphore.Weighted
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxInflightOps <= 0 {
		cfg.MaxInflightOps = 64
	}

	c := &Controller{
		cfg:   cfg,
		opSem: semaphore.NewWeighted(cfg.MaxInflightOps),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireOp reserves an in-flight operation slot, blocking until one is
// available or ctx is canceled.
func (c *Controller) AcquireOp(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.opSem.Acquire(ctx, 1)
}

// TryAcquireOp reserves an operation slot without blocking.
func (c *Controller) TryAcquireOp() bool {
	if c == nil {
		return true
	}
	return c.opSem.TryAcquire(1)
}

// ReleaseOp releases an operation slot.
func (c *Controller) ReleaseOp() {
	if c == nil {
		return
	}
	c.opSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	// WaitN cannot exceed the burst; split large writes into burst-sized chunks.
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// InflightLimit returns the configured in-flight operation cap.
func (c *Controller) InflightLimit() int64 {
	if c == nil {
		return 64
	}
	return c.cfg.MaxInflightOps
}
