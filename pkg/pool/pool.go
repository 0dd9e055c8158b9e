// Package pool runs one phase of network-bound work: bounded fan-out with a
// wait-for-all barrier.
//
// Domain errors (anything carrying a recoverable error code) are collected
// and reported in aggregate after the barrier; they never stop sibling work.
// The first fatal error cancels the phase's context so remaining workers
// stop picking up jobs, and is returned separately - a malfunctioning
// upstream makes all subsequent decisions unreliable, so the pool is not
// allowed to run to exhaustion on a poisoned state.
package pool

import (
	"context"
	"sync"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
)

// ForEach runs fn for every item on at most workers goroutines and waits
// for all of them. It returns the collected domain errors and, separately,
// the first fatal error (or the context's cause if the caller was cancelled).
func ForEach[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) (domain []error, fatal error) {
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan T)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for range min(workers, max(len(items), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				if ctx.Err() != nil {
					continue
				}
				err := fn(ctx, item)
				if err == nil {
					continue
				}
				mu.Lock()
				if errors.IsFatal(err) {
					if fatal == nil {
						fatal = err
						cancel()
					}
				} else {
					domain = append(domain, err)
				}
				mu.Unlock()
			}
		}()
	}

	for _, item := range items {
		select {
		case jobs <- item:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if fatal == nil && ctx.Err() != nil {
		fatal = context.Cause(ctx)
	}
	return domain, fatal
}
