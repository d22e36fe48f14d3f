package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"summarease/config"
	"summarease/metrics"
	"summarease/service"
)

const defaultClaimInterval = time.Minute

// JobHandler owns the background loops of a worker process: the queue
// consumers, the idle-message claimer, the stale job reaper and the gauge
// sampler.
type JobHandler struct {
	workers []QueueWorker
	reaper  func()
	gauges  GaugeRecorder
	busy    func() int
	queue   service.JobQueue
	cfg     config.WorkerConfig
	logger  *slog.Logger

	claimInterval time.Duration
	now           func() time.Time

	// Job control
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	scheduler *cron.Cron
}

// NewJobHandler creates a job handler. queue may be nil in inline mode, in
// which case the sampled queue depth is zero.
func NewJobHandler(
	workers []QueueWorker,
	reaper func(),
	gauges GaugeRecorder,
	busy func() int,
	queue service.JobQueue,
	cfg config.WorkerConfig,
	logger *slog.Logger,
) *JobHandler {
	ctx, cancel := context.WithCancel(context.Background())

	return &JobHandler{
		workers:       workers,
		reaper:        reaper,
		gauges:        gauges,
		busy:          busy,
		queue:         queue,
		cfg:           cfg,
		logger:        logger,
		claimInterval: defaultClaimInterval,
		now:           time.Now,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// StartWorkers runs every queue worker in its own goroutine and a loop that
// reclaims messages abandoned by crashed workers.
func (h *JobHandler) StartWorkers(ctx context.Context) error {
	if len(h.workers) == 0 {
		h.logger.InfoContext(ctx, "no queue workers configured, jobs are processed inline")
		return nil
	}
	h.logger.InfoContext(ctx, "starting queue workers", "count", len(h.workers))

	g, gctx := errgroup.WithContext(h.ctx)
	for i, w := range h.workers {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("queue worker %d panicked: %v", i, r)
				}
			}()
			return w.Run(gctx)
		})
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		if err := g.Wait(); err != nil {
			h.logger.ErrorContext(h.ctx, "queue workers stopped", "error", err)
		}
	}()
	go func() {
		defer h.wg.Done()
		h.runClaimLoop(gctx)
	}()

	return nil
}

func (h *JobHandler) runClaimLoop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(ctx, "panic in runClaimLoop", "panic", r)
		}
	}()

	ticker := time.NewTicker(h.claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			claimed, err := h.workers[0].ClaimStale(ctx)
			if err != nil && ctx.Err() == nil {
				metrics.RecordError("queue_claim", "redis")
				h.logger.ErrorContext(ctx, "failed to claim idle messages", "error", err)
				continue
			}
			if claimed > 0 {
				h.logger.InfoContext(ctx, "claimed idle messages", "count", claimed)
			}
		}
	}
}

// StartReaper schedules the stale job reaper on the configured cron spec.
func (h *JobHandler) StartReaper(ctx context.Context) error {
	if h.reaper == nil {
		return nil
	}

	h.scheduler = cron.New(cron.WithLocation(time.UTC))
	if _, err := h.scheduler.AddFunc(h.cfg.ReaperSchedule, h.reaper); err != nil {
		return fmt.Errorf("invalid reaper schedule %q: %w", h.cfg.ReaperSchedule, err)
	}
	h.scheduler.Start()

	h.logger.InfoContext(ctx, "stale job reaper scheduled", "schedule", h.cfg.ReaperSchedule)
	return nil
}

// StartGaugeSampler periodically stores concurrency and queue depth.
func (h *JobHandler) StartGaugeSampler(ctx context.Context) error {
	if h.cfg.GaugeInterval <= 0 {
		return fmt.Errorf("gauge interval must be positive, got %s", h.cfg.GaugeInterval)
	}
	h.logger.InfoContext(ctx, "starting gauge sampler", "interval", h.cfg.GaugeInterval)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runGaugeLoop()
	}()

	return nil
}

func (h *JobHandler) runGaugeLoop() {
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(h.ctx, "panic in runGaugeLoop", "panic", r)
		}
	}()

	ticker := time.NewTicker(h.cfg.GaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.sampleGauges(h.ctx)
		}
	}
}

func (h *JobHandler) sampleGauges(ctx context.Context) {
	var depth int64
	if h.queue != nil {
		d, err := h.queue.Depth(ctx)
		if err != nil {
			metrics.RecordError("queue_depth", "redis")
			h.logger.WarnContext(ctx, "failed to read queue depth", "error", err)
		} else {
			depth = d
		}
	}
	metrics.QueueDepth.Set(float64(depth))

	busy := 0
	if h.busy != nil {
		busy = h.busy()
	}
	h.gauges.RecordGauges(ctx, h.now(), busy, depth)
}

// Stop cancels every loop and waits for them to return. A reaper run in
// progress is allowed to finish.
func (h *JobHandler) Stop() error {
	h.logger.Info("stopping job handler")
	h.cancel()
	if h.scheduler != nil {
		<-h.scheduler.Stop().Done()
	}
	h.wg.Wait()
	h.logger.Info("job handler stopped")
	return nil
}
