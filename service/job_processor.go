// ABOUTME: This file implements the job state machine: pending -> processing -> completed|failed
// ABOUTME: Infrastructure faults are retried with linear backoff, exhaustion forces a failed status
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"summarease/config"
	"summarease/domain"
	"summarease/metrics"
	"summarease/repository"
	"summarease/retry"
	"summarease/utils/logger"
	"summarease/utils/otel"
)

type JobProcessor struct {
	jobs       repository.SummaryJobRepository
	summarizer Summarizer
	archiver   *Archiver
	cfg        config.ProcessorConfig
	now        func() time.Time
	sleep      retry.SleepFunc
	logger     *slog.Logger

	busy atomic.Int64
}

// ProcessorOption customizes a JobProcessor.
type ProcessorOption func(*JobProcessor)

// WithProcessorClock replaces the wall clock used for timestamps.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *JobProcessor) { p.now = now }
}

// WithProcessorSleep replaces the wait between infrastructure retries.
func WithProcessorSleep(sleep retry.SleepFunc) ProcessorOption {
	return func(p *JobProcessor) { p.sleep = sleep }
}

// NewJobProcessor wires the processor. archiver may be nil.
func NewJobProcessor(
	jobs repository.SummaryJobRepository,
	summarizer Summarizer,
	archiver *Archiver,
	cfg config.ProcessorConfig,
	logger *slog.Logger,
	opts ...ProcessorOption,
) *JobProcessor {
	p := &JobProcessor{
		jobs:       jobs,
		summarizer: summarizer,
		archiver:   archiver,
		cfg:        cfg,
		now:        time.Now,
		sleep:      retry.ContextSleep,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Busy returns the number of Process calls in flight.
func (p *JobProcessor) Busy() int {
	return int(p.busy.Load())
}

// jobRun carries what one Process call has already done across retries.
type jobRun struct {
	id        int64
	attempts  int
	outcome   *domain.TerminalOutcome
	committed *domain.SummaryJob
	lastFault error
}

// Process drives jobID to a terminal status. Redelivery of a terminal job
// is a no-op. A cancelled parent context leaves the job in processing so
// the queue can redeliver it.
func (p *JobProcessor) Process(parent context.Context, jobID int64) error {
	ctx, cancel := context.WithTimeout(logger.WithJobID(parent, jobID), p.cfg.HardTimeout)
	defer cancel()

	ctx, span := otel.Tracer().Start(ctx, "job.process",
		trace.WithAttributes(attribute.Int64("job.id", jobID)))
	defer span.End()

	p.busy.Add(1)
	metrics.WorkersBusy.Inc()
	defer func() {
		p.busy.Add(-1)
		metrics.WorkersBusy.Dec()
	}()

	run := &jobRun{id: jobID}
	retrier := retry.NewRetrier(retry.RetryConfig{
		MaxAttempts: p.cfg.MaxRetries + 1,
		Backoff:     retry.Linear(p.cfg.RetryBaseDelay),
	}, func(err error) bool {
		return ctx.Err() == nil && domain.IsInfrastructureFault(err)
	}, p.sleep, p.logger)

	err := retrier.Do(ctx, func() error {
		run.attempts++
		if run.attempts > 1 {
			metrics.ProcessorRetriesTotal.Inc()
		}
		err := p.step(ctx, run)
		if err != nil {
			run.lastFault = err
		}
		return err
	})

	switch {
	case err == nil:
		if run.committed != nil {
			span.SetAttributes(attribute.String("job.status", string(run.committed.Status)))
			p.archive(ctx, *run.committed)
		}
		return nil

	case errors.Is(err, domain.ErrInvalidTransition):
		p.logger.WarnContext(ctx, "job was finalized by another worker", "job_id", jobID, "error", err)
		return nil

	case parent.Err() != nil:
		span.SetStatus(codes.Error, "cancelled")
		p.logger.WarnContext(ctx, "job processing interrupted, leaving for redelivery",
			"job_id", jobID, "error", parent.Err())
		return parent.Err()

	case ctx.Err() != nil:
		reason := fmt.Sprintf("processing exceeded hard timeout of %s", p.cfg.HardTimeout)
		span.SetStatus(codes.Error, reason)
		return p.forceFailDetached(parent, jobID, reason)

	case !domain.IsInfrastructureFault(err):
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	fault := run.lastFault
	if fault == nil {
		fault = err
	}
	reason := fmt.Sprintf("processing failed after %d attempts: %v", run.attempts, fault)
	span.RecordError(fault)
	span.SetStatus(codes.Error, reason)
	metrics.RecordError("job_process", "infrastructure")
	return p.forceFailDetached(parent, jobID, reason)
}

func (p *JobProcessor) step(ctx context.Context, run *jobRun) error {
	job, err := p.jobs.Get(ctx, run.id)
	if err != nil {
		return err
	}

	if job.IsTerminal() {
		if run.outcome == nil {
			p.logger.InfoContext(ctx, "job already terminal, skipping",
				"job_id", job.ID, "status", job.Status)
		}
		return nil
	}

	if job.Status == domain.SummaryJobStatusPending {
		startedAt := p.now()
		if err := p.jobs.MarkProcessing(ctx, job.ID, startedAt); err != nil {
			return err
		}
		job.Status = domain.SummaryJobStatusProcessing
		job.ProcessingStartedAt = &startedAt
		p.logger.InfoContext(ctx, "job processing started", "job_id", job.ID, "model", job.ModelID)
	}

	if run.outcome == nil {
		result := p.summarizer.Summarize(ctx, domain.SummarizeRequest{
			Text:      job.OriginalText,
			ModelID:   job.ModelID,
			MaxLength: job.MaxLength,
			MinLength: job.MinLength,
		})
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome := p.outcomeFor(result)
		run.outcome = &outcome
	}

	// the store folds the usage sample in only when this commit wins
	if err := p.jobs.CommitTerminal(ctx, job.ID, *run.outcome); err != nil {
		return err
	}

	committed := run.outcome.Apply(*job)
	run.committed = &committed

	metrics.RecordJob(string(committed.Status), committed.ModelID, float64(run.outcome.ProcessingTimeMs)/1000)
	p.logger.InfoContext(ctx, "job finished",
		"job_id", committed.ID,
		"status", committed.Status,
		"model", committed.ModelID,
		"processing_time_ms", run.outcome.ProcessingTimeMs,
		"attempts", run.attempts)
	return nil
}

func (p *JobProcessor) outcomeFor(result domain.SummarizeResult) domain.TerminalOutcome {
	completedAt := p.now()
	stats := result.Stats

	if result.Success {
		outcome := domain.NewCompletedOutcome(result.Summary, completedAt, stats.ProcessingTimeMs,
			stats.InputTokens, stats.OutputTokens, p.cfg.CostPer1KTokens)
		outcome.ModelID = stats.ModelID
		return outcome
	}

	message := result.Error
	if message == "" {
		message = "summarization failed"
	}
	outcome := domain.NewFailedOutcome(message, completedAt, stats.ProcessingTimeMs)
	outcome.ModelID = stats.ModelID
	return outcome
}

// archive is best-effort: a completed job stays completed whatever happens here.
func (p *JobProcessor) archive(ctx context.Context, job domain.SummaryJob) {
	if p.archiver == nil || job.Status != domain.SummaryJobStatusCompleted {
		return
	}

	key, err := p.archiver.Archive(ctx, job)
	if errors.Is(err, domain.ErrArchiveDisabled) {
		return
	}
	if err != nil {
		metrics.RecordError("archive_put", "storage")
		p.logger.WarnContext(ctx, "failed to archive summary", "job_id", job.ID, "error", err)
		return
	}

	if err := p.jobs.SetArchiveKey(ctx, job.ID, key); err != nil {
		metrics.RecordError("archive_link", "store")
		p.logger.WarnContext(ctx, "failed to store archive key, removing object",
			"job_id", job.ID, "archive_key", key, "error", err)
		if _, rmErr := p.archiver.Remove(ctx, key); rmErr != nil {
			p.logger.WarnContext(ctx, "failed to remove orphaned archive object",
				"archive_key", key, "error", rmErr)
		}
	}
}

// ForceFail moves a non-terminal job straight to failed with reason.
// Terminal jobs are left untouched.
func (p *JobProcessor) ForceFail(ctx context.Context, jobID int64, reason string) error {
	return p.forceFail(ctx, jobID, reason)
}

// forceFailDetached finishes the job even when the processing deadline
// has already passed.
func (p *JobProcessor) forceFailDetached(parent context.Context, jobID int64, reason string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), config.FinalizeTimeout)
	defer cancel()
	return p.forceFail(ctx, jobID, reason)
}

func (p *JobProcessor) forceFail(ctx context.Context, jobID int64, reason string) error {
	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("force fail job %d: %w", jobID, err)
	}
	if job.IsTerminal() {
		return nil
	}

	now := p.now()
	var elapsed int64
	if job.ProcessingStartedAt != nil {
		elapsed = now.Sub(*job.ProcessingStartedAt).Milliseconds()
	}
	outcome := domain.NewFailedOutcome(reason, now, elapsed)

	if err := p.jobs.CommitTerminal(ctx, jobID, outcome); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil
		}
		return fmt.Errorf("force fail job %d: %w", jobID, err)
	}

	metrics.RecordJob(string(domain.SummaryJobStatusFailed), job.ModelID, float64(elapsed)/1000)
	p.logger.WarnContext(ctx, "job force failed", "job_id", jobID, "reason", reason)
	return nil
}
