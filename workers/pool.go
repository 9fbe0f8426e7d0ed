// Package workers runs fan-out work on a bounded goroutine pool.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Pool is a bounded goroutine pool shared by fan-out callers.
type Pool struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// DefaultSize is runtime.NumCPU() / 2, with a minimum of 1.
func DefaultSize() int {
	return max(runtime.NumCPU()/2, 1)
}

// NewPool creates a pool of size workers. Sizes below 1 use DefaultSize.
func NewPool(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		size = DefaultSize()
	}

	p := &Pool{logger: slog.Default().With("component", "workers")}
	for _, opt := range opts {
		opt(p)
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	p.pool = pool
	return p, nil
}

// Cap returns the number of workers.
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Release stops the pool. It must not be used afterwards.
func (p *Pool) Release() {
	p.pool.Release()
}

// Map calls fn for every item on the pool and returns the results in input order.
// A panicking fn leaves the zero value of R in its slot.
// If the pool rejects a task (for example after Release) it runs on the calling goroutine.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) R) []R {
	results := make([]R, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("worker task panicked", "index", i, "panic", r)
				}
			}()
			results[i] = fn(ctx, item)
		}

		wg.Add(1)
		if err := p.pool.Submit(task); err != nil {
			p.logger.Warn("pool rejected task, running inline", "err", err)
			task()
		}
	}

	wg.Wait()
	return results
}
