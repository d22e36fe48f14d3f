package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"summarease/domain"
	"summarease/mocks"
)

func TestDispatcher_Submit(t *testing.T) {
	tests := map[string]struct {
		withQueue bool
		setup     func(queue *mocks.MockJobQueue, runner *mocks.MockJobRunner)
		wantErr   error
	}{
		"queue accepts the job": {
			withQueue: true,
			setup: func(queue *mocks.MockJobQueue, runner *mocks.MockJobRunner) {
				queue.EXPECT().Enqueue(gomock.Any(), int64(42)).Return(nil)
			},
		},
		"no queue runs inline": {
			setup: func(_ *mocks.MockJobQueue, runner *mocks.MockJobRunner) {
				runner.EXPECT().Process(gomock.Any(), int64(42)).Return(nil)
			},
		},
		"enqueue failure falls back to inline": {
			withQueue: true,
			setup: func(queue *mocks.MockJobQueue, runner *mocks.MockJobRunner) {
				gomock.InOrder(
					queue.EXPECT().Enqueue(gomock.Any(), int64(42)).Return(domain.ErrQueueUnavailable),
					runner.EXPECT().Process(gomock.Any(), int64(42)).Return(nil),
				)
			},
		},
		"inline error is returned": {
			setup: func(_ *mocks.MockJobQueue, runner *mocks.MockJobRunner) {
				runner.EXPECT().Process(gomock.Any(), int64(42)).Return(domain.ErrJobNotFound)
			},
			wantErr: domain.ErrJobNotFound,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			queue := mocks.NewMockJobQueue(ctrl)
			runner := mocks.NewMockJobRunner(ctrl)
			tc.setup(queue, runner)

			var q JobQueue
			if tc.withQueue {
				q = queue
			}
			err := NewDispatcher(q, runner, testLogger()).Submit(context.Background(), 42)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

// failingQueue rejects every enqueue.
type failingQueue struct{}

func (failingQueue) Enqueue(context.Context, int64) error {
	return errors.New("dial tcp 10.0.0.9:6379: connection refused")
}

func (failingQueue) Depth(context.Context) (int64, error) { return 0, domain.ErrQueueUnavailable }

func TestDispatcher_FallbackReachesTerminalState(t *testing.T) {
	summarizer := &stubSummarizer{result: successResult("inline summary")}
	f := newProcessorFixture(t, summarizer, nil, testProcessorConfig())
	id := f.createJob(t, domain.SummaryJob{})

	dispatcher := NewDispatcher(failingQueue{}, f.processor, testLogger())
	require.NoError(t, dispatcher.Submit(context.Background(), id))

	job := f.jobs.job(id)
	assert.True(t, job.IsTerminal())
	assert.Equal(t, domain.SummaryJobStatusCompleted, job.Status)
}
