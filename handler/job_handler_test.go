package handler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"summarease/config"
	"summarease/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type stubWorker struct {
	running atomic.Int32
	claims  atomic.Int32
	runErr  error
	panics  bool
}

func (w *stubWorker) Run(ctx context.Context) error {
	if w.panics {
		panic("boom")
	}
	w.running.Add(1)
	defer w.running.Add(-1)
	if w.runErr != nil {
		return w.runErr
	}
	<-ctx.Done()
	return nil
}

func (w *stubWorker) ClaimStale(context.Context) (int, error) {
	w.claims.Add(1)
	return 0, nil
}

type gaugeSample struct {
	at         time.Time
	concurrent int
	depth      int64
}

type stubGauges struct {
	mu      sync.Mutex
	samples []gaugeSample
}

func (g *stubGauges) RecordGauges(_ context.Context, at time.Time, concurrent int, depth int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.samples = append(g.samples, gaugeSample{at: at, concurrent: concurrent, depth: depth})
}

func (g *stubGauges) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.samples)
}

func workerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		Count:           2,
		ReaperSchedule:  "@every 1m",
		ReaperBatchSize: 10,
		GaugeInterval:   5 * time.Millisecond,
	}
}

func TestJobHandler_StartWorkersAndStop(t *testing.T) {
	a, b := &stubWorker{}, &stubWorker{}
	h := NewJobHandler([]QueueWorker{a, b}, nil, &stubGauges{}, nil, nil, workerConfig(), testLogger())
	h.claimInterval = 5 * time.Millisecond

	require.NoError(t, h.StartWorkers(context.Background()))

	assert.Eventually(t, func() bool {
		return a.running.Load() == 1 && b.running.Load() == 1
	}, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return a.claims.Load() > 0 }, time.Second, time.Millisecond)

	require.NoError(t, h.Stop())
	assert.Equal(t, int32(0), a.running.Load())
	assert.Equal(t, int32(0), b.running.Load())
	assert.Equal(t, int32(0), b.claims.Load())
}

func TestJobHandler_FailingWorkerStopsGroup(t *testing.T) {
	tests := map[string]*stubWorker{
		"worker error": {runErr: errors.New("NOGROUP no such key")},
		"worker panic": {panics: true},
	}

	for name, failing := range tests {
		t.Run(name, func(t *testing.T) {
			healthy := &stubWorker{}
			h := NewJobHandler([]QueueWorker{healthy, failing}, nil, &stubGauges{}, nil, nil, workerConfig(), testLogger())

			require.NoError(t, h.StartWorkers(context.Background()))

			// errgroup cancels the shared context, so the healthy worker exits too
			assert.Eventually(t, func() bool { return healthy.running.Load() == 0 }, time.Second, time.Millisecond)
			require.NoError(t, h.Stop())
		})
	}
}

func TestJobHandler_NoWorkersInInlineMode(t *testing.T) {
	h := NewJobHandler(nil, nil, &stubGauges{}, nil, nil, workerConfig(), testLogger())
	require.NoError(t, h.StartWorkers(context.Background()))
	require.NoError(t, h.Stop())
}

func TestJobHandler_SampleGauges(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)

	tests := map[string]struct {
		setup     func(q *mocks.MockJobQueue)
		inline    bool
		wantDepth int64
	}{
		"queue depth is sampled": {
			setup: func(q *mocks.MockJobQueue) {
				q.EXPECT().Depth(gomock.Any()).Return(int64(12), nil)
			},
			wantDepth: 12,
		},
		"depth read failure records zero": {
			setup: func(q *mocks.MockJobQueue) {
				q.EXPECT().Depth(gomock.Any()).Return(int64(0), errors.New("connection refused"))
			},
		},
		"inline mode has no queue": {
			inline: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			gauges := &stubGauges{}
			h := NewJobHandler(nil, nil, gauges, func() int { return 3 }, nil, workerConfig(), testLogger())
			if !tc.inline {
				q := mocks.NewMockJobQueue(gomock.NewController(t))
				tc.setup(q)
				h.queue = q
			}
			h.now = func() time.Time { return now }

			h.sampleGauges(context.Background())

			require.Len(t, gauges.samples, 1)
			assert.Equal(t, gaugeSample{at: now, concurrent: 3, depth: tc.wantDepth}, gauges.samples[0])
		})
	}
}

func TestJobHandler_GaugeSamplerRunsUntilStopped(t *testing.T) {
	gauges := &stubGauges{}
	h := NewJobHandler(nil, nil, gauges, nil, nil, workerConfig(), testLogger())

	require.NoError(t, h.StartGaugeSampler(context.Background()))
	assert.Eventually(t, func() bool { return gauges.count() >= 2 }, time.Second, time.Millisecond)
	require.NoError(t, h.Stop())

	stopped := gauges.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, gauges.count())
}

func TestJobHandler_StartReaper(t *testing.T) {
	tests := map[string]struct {
		schedule string
		wantErr  bool
	}{
		"descriptor":    {schedule: "@every 1m"},
		"standard spec": {schedule: "*/5 * * * *"},
		"invalid spec":  {schedule: "every minute", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := workerConfig()
			cfg.ReaperSchedule = tc.schedule
			h := NewJobHandler(nil, func() {}, &stubGauges{}, nil, nil, cfg, testLogger())

			err := h.StartReaper(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, h.scheduler.Entries(), 1)
			}
			require.NoError(t, h.Stop())
		})
	}
}

func TestJobHandler_ReaperFires(t *testing.T) {
	cfg := workerConfig()
	cfg.ReaperSchedule = "@every 1s"
	var runs atomic.Int32
	h := NewJobHandler(nil, func() { runs.Add(1) }, &stubGauges{}, nil, nil, cfg, testLogger())

	require.NoError(t, h.StartReaper(context.Background()))
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, h.Stop())
}
