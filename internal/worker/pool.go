// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package worker runs independent jobs on a bounded pool of goroutines and
// hands results back in submission order.
package worker

import (
	"context"
	"sync"
)

// Map calls fn for every index in [0, n) using at most workers goroutines
// and returns the results indexed by job, whatever order they completed in.
// Once ctx is done no further jobs are started; their slots keep the zero
// value of R.
func Map[R any](ctx context.Context, workers, n int, fn func(ctx context.Context, i int) R) []R {
	results := make([]R, n)
	if n == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				// Each job owns its slot, so no locking is needed.
				results[i] = fn(ctx, i)
			}
		}()
	}

submit:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break submit
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// Collector gathers values from concurrent producers.
type Collector[T any] struct {
	mu    sync.Mutex
	items []T
}

// Add appends v (thread-safe).
func (c *Collector[T]) Add(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, v)
}

// Items returns a copy of everything collected so far.
func (c *Collector[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}
