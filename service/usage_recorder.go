package service

import (
	"context"
	"log/slog"
	"time"

	"summarease/metrics"
	"summarease/repository"
)

// UsageRecorder samples load gauges into the hourly usage rows. Terminal
// outcomes are counted by the job store when it commits them.
type UsageRecorder struct {
	repo   repository.UsageRepository
	logger *slog.Logger
}

func NewUsageRecorder(repo repository.UsageRepository, logger *slog.Logger) *UsageRecorder {
	return &UsageRecorder{repo: repo, logger: logger}
}

// RecordGauges stores the sampled concurrency and queue depth.
func (u *UsageRecorder) RecordGauges(ctx context.Context, at time.Time, concurrent int, queueDepth int64) {
	if err := u.repo.RecordGauges(ctx, at, concurrent, queueDepth); err != nil {
		metrics.RecordError("usage_gauges", "store")
		u.logger.WarnContext(ctx, "failed to record usage gauges", "error", err)
	}
}
