package service

import (
	"context"
	"log/slog"

	"summarease/metrics"
)

const (
	dispatchModeQueue    = "queue"
	dispatchModeInline   = "inline"
	dispatchModeFallback = "fallback"
)

// Dispatcher hands a created job to the worker queue, or runs it in the
// caller when no queue is configured. A job is never dropped: a failed
// enqueue falls back to inline processing.
type Dispatcher struct {
	queue  JobQueue
	runner JobRunner
	logger *slog.Logger
}

// NewDispatcher returns an inline dispatcher when queue is nil.
func NewDispatcher(queue JobQueue, runner JobRunner, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{queue: queue, runner: runner, logger: logger}
}

func (d *Dispatcher) Submit(ctx context.Context, jobID int64) error {
	if d.queue == nil {
		metrics.RecordDispatch(dispatchModeInline)
		return d.runner.Process(ctx, jobID)
	}

	err := d.queue.Enqueue(ctx, jobID)
	if err == nil {
		metrics.RecordDispatch(dispatchModeQueue)
		d.logger.DebugContext(ctx, "job enqueued", "job_id", jobID)
		return nil
	}

	metrics.RecordDispatch(dispatchModeFallback)
	metrics.RecordError("dispatch_enqueue", "queue")
	d.logger.WarnContext(ctx, "enqueue failed, processing job inline",
		"job_id", jobID,
		"error", err)
	return d.runner.Process(ctx, jobID)
}
