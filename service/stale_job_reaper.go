package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"summarease/config"
	"summarease/metrics"
	"summarease/repository"
)

// StaleJobReaper fails jobs that have sat in processing past the hard
// wall-clock ceiling, e.g. after a worker crash in inline mode or a lost
// queue message. A job is only stale once its owner has had the hard
// timeout plus the forced failure window to settle it.
type StaleJobReaper struct {
	jobs        repository.SummaryJobRepository
	runner      JobRunner
	hardTimeout time.Duration
	staleAfter  time.Duration
	batchSize   int
	now         func() time.Time
	logger      *slog.Logger
}

func NewStaleJobReaper(jobs repository.SummaryJobRepository, runner JobRunner, cfg config.ProcessorConfig, batchSize int, logger *slog.Logger) *StaleJobReaper {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &StaleJobReaper{
		jobs:        jobs,
		runner:      runner,
		hardTimeout: cfg.HardTimeout,
		staleAfter:  cfg.StaleAfter(),
		batchSize:   batchSize,
		now:         time.Now,
		logger:      logger,
	}
}

// Reap force-fails one batch of stale jobs and returns how many it failed.
func (r *StaleJobReaper) Reap(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.staleAfter)
	ids, err := r.jobs.FindStale(ctx, cutoff, r.batchSize)
	if err != nil {
		metrics.RecordError("reaper_find", "store")
		return 0, fmt.Errorf("failed to find stale jobs: %w", err)
	}

	reason := fmt.Sprintf("processing exceeded hard timeout of %s", r.hardTimeout)
	reaped := 0
	for _, id := range ids {
		if err := r.runner.ForceFail(ctx, id, reason); err != nil {
			metrics.RecordError("reaper_force_fail", "store")
			r.logger.ErrorContext(ctx, "failed to fail stale job", "job_id", id, "error", err)
			continue
		}
		reaped++
	}

	if len(ids) > 0 {
		r.logger.InfoContext(ctx, "stale jobs reaped",
			"found", len(ids),
			"failed", reaped,
			"cutoff", cutoff)
	}
	return reaped, nil
}

// Run is the cron entry point.
func (r *StaleJobReaper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := r.Reap(ctx); err != nil {
		r.logger.ErrorContext(ctx, "stale job reaper run failed", "error", err)
	}
}
