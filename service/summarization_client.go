// ABOUTME: This file implements the client for the external summarization model
// ABOUTME: It validates input against the model registry and retries cold or failing models on a fixed wait
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"summarease/config"
	"summarease/domain"
	"summarease/driver"
	"summarease/metrics"
	"summarease/retry"
	"summarease/utils"
	"summarease/utils/text"
)

type SummarizationClient struct {
	api        SummarizeAPI
	registry   *domain.ModelRegistry
	limiter    *rate.Limiter
	breaker    *utils.CircuitBreaker
	retryCount int
	retryWait  time.Duration
	sleep      retry.SleepFunc
	now        func() time.Time
	logger     *slog.Logger
}

// ClientOption customizes a SummarizationClient.
type ClientOption func(*SummarizationClient)

// WithClientSleep replaces the wait between attempts.
func WithClientSleep(sleep retry.SleepFunc) ClientOption {
	return func(c *SummarizationClient) { c.sleep = sleep }
}

// WithClientClock replaces the wall clock used for processing time.
func WithClientClock(now func() time.Time) ClientOption {
	return func(c *SummarizationClient) { c.now = now }
}

func NewSummarizationClient(api SummarizeAPI, registry *domain.ModelRegistry, cfg config.SummarizerConfig, logger *slog.Logger, opts ...ClientOption) *SummarizationClient {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	breaker := utils.NewCircuitBreaker(cfg.CircuitThreshold, cfg.CircuitTimeout).
		WithFailurePredicate(func(err error) bool {
			// a cold model is expected to answer once it has loaded
			return !errors.Is(err, domain.ErrModelLoading)
		})

	c := &SummarizationClient{
		api:        api,
		registry:   registry,
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    breaker,
		retryCount: cfg.RetryCount,
		retryWait:  cfg.RetryWait,
		sleep:      retry.ContextSleep,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate runs the checks Summarize applies before any network call.
func (c *SummarizationClient) Validate(input, modelID string) error {
	spec, _ := c.registry.Resolve(modelID)
	_, err := validateInput(input, spec)
	return err
}

func validateInput(input string, spec domain.ModelSpec) (int, error) {
	tokens := text.CountTokens(input)
	if tokens == 0 {
		return 0, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyInput)
	}
	if tokens > spec.MaxInputTokens {
		return tokens, fmt.Errorf("%w: %w: %d tokens exceeds the %d token limit of %s",
			domain.ErrValidation, domain.ErrInputTooLong, tokens, spec.MaxInputTokens, spec.ID)
	}
	return tokens, nil
}

// Summarize resolves the model, checks the token ceiling and calls the
// inference API up to retryCount times, waiting retryWait after each failed
// attempt. Exhaustion is reported as an unsuccessful result.
func (c *SummarizationClient) Summarize(ctx context.Context, req domain.SummarizeRequest) domain.SummarizeResult {
	start := c.now()

	spec, fallback := c.registry.Resolve(req.ModelID)
	if fallback {
		c.logger.WarnContext(ctx, "unknown model requested, using default",
			"requested_model", req.ModelID,
			"model", spec.ID)
	}

	stats := domain.SummarizeStats{ModelID: spec.ID, FallbackModel: fallback}

	tokens, err := validateInput(req.Text, spec)
	stats.InputTokens = tokens
	if err != nil {
		stats.ProcessingTimeMs = c.now().Sub(start).Milliseconds()
		return domain.SummarizeResult{
			Error: err.Error(),
			Kind:  domain.FailureKindValidation,
			Stats: stats,
		}
	}

	payload := driver.SummarizePayload{
		Inputs:     req.Text,
		Parameters: outputBounds(req, spec),
	}

	var (
		summary string
		lastErr error
	)
	retrier := retry.NewRetrier(retry.RetryConfig{
		MaxAttempts:           c.retryCount,
		Backoff:               retry.Fixed(c.retryWait),
		WaitAfterFinalAttempt: true,
	}, func(error) bool {
		return ctx.Err() == nil
	}, c.sleep, c.logger)

	err = retrier.Do(ctx, func() error {
		stats.Attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			lastErr = err
			return err
		}

		lastErr = c.breaker.Call(func() error {
			s, err := c.api.Summarize(ctx, spec.Endpoint, payload)
			if err != nil {
				return err
			}
			summary = s
			return nil
		})
		metrics.RecordAttempt(spec.ID, attemptResult(lastErr))
		return lastErr
	})

	stats.ProcessingTimeMs = c.now().Sub(start).Milliseconds()

	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		c.logger.ErrorContext(ctx, "summarization failed",
			"model", spec.ID,
			"attempts", stats.Attempts,
			"error", lastErr,
			"processing_time_ms", stats.ProcessingTimeMs)
		return domain.SummarizeResult{
			Error: lastErr.Error(),
			Kind:  domain.FailureKindRemote,
			Stats: stats,
		}
	}

	stats.OutputTokens = text.CountTokens(summary)
	c.logger.InfoContext(ctx, "summarization succeeded",
		"model", spec.ID,
		"attempts", stats.Attempts,
		"input_tokens", stats.InputTokens,
		"output_tokens", stats.OutputTokens,
		"processing_time_ms", stats.ProcessingTimeMs)

	return domain.SummarizeResult{
		Success: true,
		Summary: summary,
		Stats:   stats,
	}
}

// RemoteHealthy reports whether the inference API breaker is closed.
func (c *SummarizationClient) RemoteHealthy() bool {
	return c.breaker.Healthy()
}

// Registry exposes the model registry the client resolves against.
func (c *SummarizationClient) Registry() *domain.ModelRegistry {
	return c.registry
}

func outputBounds(req domain.SummarizeRequest, spec domain.ModelSpec) driver.SummarizeParameters {
	maxLen := req.MaxLength
	if maxLen <= 0 {
		maxLen = spec.DefaultMaxLength
	}
	minLen := req.MinLength
	if minLen <= 0 {
		minLen = spec.DefaultMinLength
	}
	if minLen > maxLen {
		minLen = maxLen
	}
	return driver.SummarizeParameters{MaxLength: maxLen, MinLength: minLen}
}

func attemptResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrModelLoading):
		return "model_loading"
	case errors.Is(err, domain.ErrServiceOverloaded):
		return "overloaded"
	case errors.Is(err, utils.ErrCircuitOpen):
		return "circuit_open"
	}
	return "error"
}
