package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarease/domain"
)

type processorEvent int

const (
	eventProcessSuccess processorEvent = iota
	eventProcessFailure
	eventProcessWithOutage
	eventForceFail
	eventRedeliver
	eventCount
)

func (e processorEvent) String() string {
	return [...]string{"process-success", "process-failure", "process-outage", "force-fail", "redeliver"}[e]
}

var allowedEdges = map[domain.SummaryJobStatus][]domain.SummaryJobStatus{
	domain.SummaryJobStatusPending:    {domain.SummaryJobStatusProcessing, domain.SummaryJobStatusFailed},
	domain.SummaryJobStatusProcessing: {domain.SummaryJobStatusCompleted, domain.SummaryJobStatusFailed},
}

func assertLegalHistory(t *testing.T, history []domain.SummaryJobStatus) {
	t.Helper()
	require.NotEmpty(t, history)
	assert.Equal(t, domain.SummaryJobStatusPending, history[0])
	for i := 1; i < len(history); i++ {
		assert.Contains(t, allowedEdges[history[i-1]], history[i],
			"illegal transition %s -> %s in %v", history[i-1], history[i], history)
	}
	terminal := 0
	for _, s := range history {
		if s.IsTerminal() {
			terminal++
		}
	}
	assert.LessOrEqual(t, terminal, 1, "more than one terminal status in %v", history)
}

// TestJobProcessor_RandomEventSequences drives jobs through random mixes of
// processing, outages, forced failures and redeliveries and checks the
// status history, field presence and accounting after every step.
func TestJobProcessor_RandomEventSequences(t *testing.T) {
	for seed := uint64(1); seed <= 200; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, seed*31))
			summarizer := &stubSummarizer{}
			f := newProcessorFixture(t, summarizer, nil, testProcessorConfig())
			id := f.createJob(t, domain.SummaryJob{})

			steps := 1 + rng.IntN(8)
			var events []processorEvent
			for range steps {
				event := processorEvent(rng.IntN(int(eventCount)))
				events = append(events, event)

				before := f.jobs.job(id)
				switch event {
				case eventProcessSuccess:
					summarizer.result = successResult(fmt.Sprintf("summary %d", rng.IntN(1000)))
					require.NoError(t, f.processor.Process(context.Background(), id))
				case eventProcessFailure:
					summarizer.result = failureResult("inference API returned status 500")
					require.NoError(t, f.processor.Process(context.Background(), id))
				case eventProcessWithOutage:
					summarizer.result = successResult("after outage")
					f.jobs.failCommit = rng.IntN(5)
					require.NoError(t, f.processor.Process(context.Background(), id))
				case eventForceFail:
					require.NoError(t, f.processor.ForceFail(context.Background(), id, "stale job"))
				case eventRedeliver:
					require.NoError(t, f.processor.Process(context.Background(), id))
				}
				f.jobs.failCommit = 0

				after := f.jobs.job(id)
				require.NoError(t, after.Validate(), "events %v", events)
				assertLegalHistory(t, f.jobs.statuses(id))

				if before.IsTerminal() {
					assert.Equal(t, before, after, "terminal job changed after %v", events)
				}
				assert.True(t, after.IsTerminal(), "job not terminal after %v", events)
				assert.Equal(t, 1, f.usage.sampleCount(), "usage samples after %v", events)

				// the counted sample is the one that settled the job
				day, hour := domain.HourBucket(*after.CompletedAt)
				row, err := f.usage.GetHourly(context.Background(), day, hour)
				require.NoError(t, err)
				if after.Status == domain.SummaryJobStatusCompleted {
					assert.Equal(t, int64(1), row.SuccessfulRequests, "events %v", events)
				} else {
					assert.Equal(t, int64(1), row.FailedRequests, "events %v", events)
				}
			}
		})
	}
}

func TestJobProcessor_RunningAverageMatchesMean(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	summarizer := &stubSummarizer{}
	f := newProcessorFixture(t, summarizer, nil, testProcessorConfig())

	var total float64
	const n = 50
	for i := range n {
		ms := int64(100 + rng.IntN(5000))
		total += float64(ms)
		result := successResult(fmt.Sprintf("summary %d", i))
		result.Stats.ProcessingTimeMs = ms
		summarizer.result = result

		id := f.createJob(t, domain.SummaryJob{})
		require.NoError(t, f.processor.Process(context.Background(), id))
	}

	// the ticking clock keeps all completions well inside one hour
	rows, err := f.usage.ListDay(context.Background(), f.jobs.job(1).CompletedAt.UTC().Truncate(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(n), rows[0].TotalRequests)
	assert.InDelta(t, total/n, rows[0].AvgProcessingTimeMs, 1e-6)
}
