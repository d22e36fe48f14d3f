// ABOUTME: This file tests the retry loop with injected sleep and backoff policies
// ABOUTME: No test here waits on a real timer
package retry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors in tests
	}))
}

type recordingSleep struct {
	waits []time.Duration
	err   error
}

func (s *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return s.err
}

func (s *recordingSleep) total() time.Duration {
	var sum time.Duration
	for _, w := range s.waits {
		sum += w
	}
	return sum
}

var errTemporary = errors.New("temporary error")

func TestRetrier_Do(t *testing.T) {
	tests := map[string]struct {
		operation     func() func() error
		classifier    ErrorClassifier
		expectedCalls int
		expectedWaits int
		wantErr       bool
	}{
		"success on first attempt": {
			operation:     func() func() error { return func() error { return nil } },
			classifier:    AlwaysRetry,
			expectedCalls: 1,
		},
		"success on second attempt": {
			operation: func() func() error {
				attempt := 0
				return func() error {
					attempt++
					if attempt == 1 {
						return errTemporary
					}
					return nil
				}
			},
			classifier:    AlwaysRetry,
			expectedCalls: 2,
			expectedWaits: 1,
		},
		"failure after max attempts": {
			operation:     func() func() error { return func() error { return errTemporary } },
			classifier:    AlwaysRetry,
			expectedCalls: 3,
			expectedWaits: 2,
			wantErr:       true,
		},
		"non-retryable error fails immediately": {
			operation:     func() func() error { return func() error { return errTemporary } },
			classifier:    func(error) bool { return false },
			expectedCalls: 1,
			wantErr:       true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			sleeper := &recordingSleep{}
			retrier := NewRetrier(RetryConfig{
				MaxAttempts:   3,
				BaseDelay:     time.Second,
				MaxDelay:      10 * time.Second,
				BackoffFactor: 2.0,
			}, tc.classifier, sleeper.sleep, testLogger())

			calls := 0
			op := tc.operation()
			err := retrier.Do(context.Background(), func() error {
				calls++
				return op()
			})

			assert.Equal(t, tc.expectedCalls, calls)
			assert.Len(t, sleeper.waits, tc.expectedWaits)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errTemporary)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRetrier_LinearBackoff(t *testing.T) {
	sleeper := &recordingSleep{}
	retrier := NewRetrier(RetryConfig{
		MaxAttempts: 4,
		Backoff:     Linear(5 * time.Second),
	}, AlwaysRetry, sleeper.sleep, testLogger())

	err := retrier.Do(context.Background(), func() error { return errTemporary })

	require.Error(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}, sleeper.waits)
}

func TestRetrier_WaitAfterFinalAttempt(t *testing.T) {
	sleeper := &recordingSleep{}
	retrier := NewRetrier(RetryConfig{
		MaxAttempts:           3,
		Backoff:               Fixed(20 * time.Second),
		WaitAfterFinalAttempt: true,
	}, AlwaysRetry, sleeper.sleep, testLogger())

	calls := 0
	err := retrier.Do(context.Background(), func() error {
		calls++
		return errTemporary
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 60*time.Second, sleeper.total())
}

func TestRetrier_SleepCancelled(t *testing.T) {
	sleeper := &recordingSleep{err: context.Canceled}
	retrier := NewRetrier(RetryConfig{MaxAttempts: 5, Backoff: Fixed(time.Second)}, AlwaysRetry, sleeper.sleep, testLogger())

	calls := 0
	err := retrier.Do(context.Background(), func() error {
		calls++
		return errTemporary
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestContextSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ContextSleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, ContextSleep(context.Background(), time.Millisecond))
}

func TestCalculateDelay_Capped(t *testing.T) {
	r := NewRetrier(RetryConfig{
		MaxAttempts:   10,
		BaseDelay:     time.Second,
		MaxDelay:      4 * time.Second,
		BackoffFactor: 2.0,
	}, AlwaysRetry, nil, testLogger())

	assert.Equal(t, time.Second, r.calculateDelay(1))
	assert.Equal(t, 2*time.Second, r.calculateDelay(2))
	assert.Equal(t, 4*time.Second, r.calculateDelay(5))
}
