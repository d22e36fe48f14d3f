// ABOUTME: This file implements the explicit retry loop shared by the summarizer client and job processor
// ABOUTME: Backoff policy and sleep are injected so tests can run without real delays
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64

	// Backoff overrides the exponential policy when set.
	Backoff BackoffFunc

	// WaitAfterFinalAttempt also waits after the last failed attempt, so an
	// always-failing operation spends MaxAttempts backoff intervals in total.
	WaitAfterFinalAttempt bool
}

// ErrorClassifier reports whether err is worth another attempt.
type ErrorClassifier func(error) bool

// BackoffFunc returns the wait after the given 1-based failed attempt.
type BackoffFunc func(attempt int) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fixed waits d after every attempt.
func Fixed(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Linear waits base*attempt: 5s, 10s, 15s for a 5s base.
func Linear(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration { return base * time.Duration(attempt) }
}

// AlwaysRetry treats every error as retryable.
func AlwaysRetry(error) bool { return true }

type Retrier struct {
	config      RetryConfig
	isRetryable ErrorClassifier
	sleep       SleepFunc
	logger      *slog.Logger
}

func NewRetrier(config RetryConfig, classifier ErrorClassifier, sleep SleepFunc, logger *slog.Logger) *Retrier {
	if sleep == nil {
		sleep = ContextSleep
	}
	return &Retrier{
		config:      config,
		isRetryable: classifier,
		sleep:       sleep,
		logger:      logger,
	}
}

// Do runs operation until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. The last error is wrapped in the returned error.
func (r *Retrier) Do(ctx context.Context, operation func() error) error {
	start := time.Now()
	var lastErr error
	var totalWaitTime time.Duration

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		attemptStart := time.Now()
		lastErr = operation()
		attemptDuration := time.Since(attemptStart)

		if lastErr == nil {
			if attempt > 1 {
				r.logger.InfoContext(ctx, "operation succeeded after retry",
					"attempt", attempt,
					"attempt_duration_ms", attemptDuration.Milliseconds(),
					"total_duration_ms", time.Since(start).Milliseconds(),
					"total_wait_time_ms", totalWaitTime.Milliseconds())
			}
			return nil
		}

		isRetryable := r.isRetryable != nil && r.isRetryable(lastErr)
		r.logger.WarnContext(ctx, "operation attempt failed",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"error", lastErr,
			"retryable", isRetryable,
			"attempt_duration_ms", attemptDuration.Milliseconds())

		if !isRetryable {
			return lastErr
		}

		final := attempt == r.config.MaxAttempts
		if final && !r.config.WaitAfterFinalAttempt {
			break
		}

		delay := r.calculateDelay(attempt)
		totalWaitTime += delay

		r.logger.DebugContext(ctx, "retry backoff wait",
			"attempt", attempt,
			"retry_delay_ms", delay.Milliseconds(),
			"total_wait_time_ms", totalWaitTime.Milliseconds())

		if err := r.sleep(ctx, delay); err != nil {
			r.logger.WarnContext(ctx, "retry cancelled by context",
				"attempt", attempt,
				"context_error", err,
				"total_duration_ms", time.Since(start).Milliseconds())
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}

	r.logger.ErrorContext(ctx, "operation failed permanently",
		"attempts", r.config.MaxAttempts,
		"error", lastErr,
		"total_duration_ms", time.Since(start).Milliseconds(),
		"total_wait_time_ms", totalWaitTime.Milliseconds())

	return fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

func (r *Retrier) calculateDelay(attempt int) time.Duration {
	if r.config.Backoff != nil {
		return r.config.Backoff(attempt)
	}

	delay := float64(r.config.BaseDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))

	if r.config.MaxDelay > 0 && delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	// jitter against thundering herd
	jitter := 1.0 + (rand.Float64()-0.5)*r.config.JitterFactor
	delay *= jitter

	return time.Duration(delay)
}
