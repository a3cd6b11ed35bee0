package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	op := func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}

	got, err := Do(context.Background(), op, Options{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		Timeout:     time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, int32(3), calls.Load())
}

func TestDoPropagatesLastError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	finalErr := errors.New("attempt 4 boom")
	op := func(context.Context) (int, error) {
		n := calls.Add(1)
		if n == 4 {
			return 0, finalErr
		}
		return 0, errors.New("earlier failure")
	}

	_, err := Do(context.Background(), op, Options{
		MaxAttempts: 4,
		Delay:       time.Millisecond,
		Timeout:     time.Second,
	})
	require.ErrorIs(t, err, finalErr)
	require.Equal(t, int32(4), calls.Load())
}

func TestDoObserverSeesEachFailure(t *testing.T) {
	t.Parallel()

	var observed []int
	op := func(context.Context) (int, error) {
		return 0, errors.New("always")
	}

	_, err := Do(context.Background(), op, Options{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		Timeout:     time.Second,
		OnRetry: func(attempt int, err error) {
			observed = append(observed, attempt)
			require.Error(t, err)
		},
	})
	require.Error(t, err)
	// The final attempt has no retry after it, so it is not observed.
	require.Equal(t, []int{1, 2}, observed)
}

func TestDoExponentialBackoffTiming(t *testing.T) {
	t.Parallel()

	const base = 30 * time.Millisecond
	var stamps []time.Time
	op := func(context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("fail")
	}

	start := time.Now()
	_, err := Do(context.Background(), op, Options{
		MaxAttempts: 3,
		Delay:       base,
		Timeout:     time.Second,
	})
	require.Error(t, err)
	require.Len(t, stamps, 3)

	// Waits are base then 2*base; allow generous scheduling slack.
	gap1 := stamps[1].Sub(stamps[0])
	gap2 := stamps[2].Sub(stamps[1])
	require.GreaterOrEqual(t, gap1, base)
	require.GreaterOrEqual(t, gap2, 2*base)
	require.Less(t, time.Since(start), 10*base)
}

func TestDoTimesOutSlowAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	op := func(ctx context.Context) (int, error) {
		calls.Add(1)
		select {
		case <-time.After(5 * time.Second):
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	_, err := Do(context.Background(), op, Options{
		MaxAttempts: 2,
		Delay:       time.Millisecond,
		Timeout:     20 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrAttemptTimeout)
	require.Equal(t, int32(2), calls.Load())
}

func TestDoStopsOnCanceledParent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	op := func(context.Context) (int, error) {
		cancel()
		return 0, errors.New("fail")
	}

	_, err := Do(ctx, op, Options{MaxAttempts: 5, Delay: time.Hour, Timeout: time.Second})
	require.ErrorIs(t, err, context.Canceled)
}
