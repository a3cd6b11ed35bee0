// Package retry provides a generic bounded-retry wrapper with
// per-attempt timeouts and exponential backoff. It is shared by page
// fetching and webhook delivery and knows nothing about either.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptTimeout is returned for an attempt that outlived its budget.
var ErrAttemptTimeout = errors.New("attempt timed out")

// Options controls retry behavior.
type Options struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Delay is the base backoff; the wait before attempt k+1 is
	// Delay * 2^(k-1).
	Delay time.Duration
	// Timeout bounds each individual attempt.
	Timeout time.Duration
	// OnRetry observes each failed attempt before the backoff sleep.
	OnRetry func(attempt int, err error)
}

const (
	defaultMaxAttempts = 3
	defaultDelay       = time.Second
	defaultTimeout     = 15 * time.Second
)

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.Delay <= 0 {
		o.Delay = defaultDelay
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

// Do races op against the per-attempt timeout, backing off
// exponentially between failures. After exhausting all attempts the
// last error is returned. The parent context aborts the sequence
// between attempts and cancels the in-flight attempt.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var (
		zero    T
		lastErr error
	)

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := runAttempt(ctx, op, opts.Timeout)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < opts.MaxAttempts {
			if opts.OnRetry != nil {
				opts.OnRetry(attempt, err)
			}
			delay := opts.Delay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, lastErr
}

type attemptResult[T any] struct {
	value T
	err   error
}

func runAttempt[T any](ctx context.Context, op func(context.Context) (T, error), timeout time.Duration) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptResult[T], 1)
	go func() {
		value, err := op(attemptCtx)
		done <- attemptResult[T]{value: value, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-attemptCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, ErrAttemptTimeout
	}
}
