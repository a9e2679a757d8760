package translate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Retry
// ---------------------------------------------------------------------------

// RetryPolicy bounds retries by attempt count. The wait before retry n
// (counting from zero) is BaseDelay * 2^n.
type RetryPolicy struct {
	Retries   int
	BaseDelay time.Duration
}

// withRetry calls fn until it succeeds, fails permanently, or the retry
// budget is spent. Permanent failures do not consume the budget.
func withRetry[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.Retries || !IsTransient(err) {
			return zero, err
		}
		if serr := sleepCtx(ctx, p.BaseDelay<<attempt); serr != nil {
			return zero, err
		}
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Worker pool
// ---------------------------------------------------------------------------

// runPool runs fn for jobs 0..n-1 on at most workers goroutines. A free
// worker claims the next unclaimed job and sleeps for delay after
// finishing it. Once a job fails no new jobs are claimed; jobs already
// running finish. The first error is returned.
func runPool(ctx context.Context, n, workers int, delay time.Duration, fn func(context.Context, int) error) error {
	if n == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	var (
		next     atomic.Int64
		stopped  atomic.Bool
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stopped.Load() && ctx.Err() == nil {
				i := int(next.Add(1) - 1)
				if i >= n {
					return
				}
				if err := fn(ctx, i); err != nil {
					errOnce.Do(func() { firstErr = err })
					stopped.Store(true)
					return
				}
				if delay > 0 && sleepCtx(ctx, delay) != nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
