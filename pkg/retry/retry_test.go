package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DailyByte/pkg/retry"
)

var errBusy = errors.New("busy")

type fakeSleeper struct {
	waits []time.Duration
}

func (f *fakeSleeper) sleep(_ context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return nil
}

func policy(s *fakeSleeper) retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Backoff:     retry.Linear(30 * time.Second),
		Retryable:   func(err error) bool { return errors.Is(err, errBusy) },
		Sleep:       s.sleep,
	}
}

func TestDoExhaustsWithLinearBackoff(t *testing.T) {
	t.Parallel()

	s := &fakeSleeper{}
	calls := 0
	_, err := retry.Do(context.Background(), policy(s), func(context.Context, int) (string, error) {
		calls++
		return "", errBusy
	})

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
	require.ErrorIs(t, err, errBusy)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, s.waits)
}

func TestDoRecoversAfterRetryableFailure(t *testing.T) {
	t.Parallel()

	s := &fakeSleeper{}
	got, err := retry.Do(context.Background(), policy(s), func(_ context.Context, attempt int) (int, error) {
		if attempt < 2 {
			return 0, errBusy
		}
		return attempt, nil
	})

	require.NoError(t, err)
	require.Equal(t, 2, got)
	require.Equal(t, []time.Duration{30 * time.Second}, s.waits)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	t.Parallel()

	s := &fakeSleeper{}
	boom := errors.New("unauthorized")
	calls := 0
	_, err := retry.Do(context.Background(), policy(s), func(context.Context, int) (int, error) {
		calls++
		return 0, boom
	})

	require.ErrorIs(t, err, boom)
	var exhausted *retry.ExhaustedError
	require.False(t, errors.As(err, &exhausted))
	require.Equal(t, 1, calls)
	require.Empty(t, s.waits)
}

func TestContextSleepHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, retry.ContextSleep(ctx, time.Hour), context.Canceled)
}
