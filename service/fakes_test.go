package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"summarease/domain"
)

var errStoreDown = errors.New("dial tcp 10.0.0.5:5432: connection refused")

// memoryJobStore applies the same guarded transitions as the SQL store and
// keeps the status history of every job.
type memoryJobStore struct {
	mu      sync.Mutex
	nextID  int64
	jobs    map[int64]domain.SummaryJob
	history map[int64][]domain.SummaryJobStatus

	failGet        int
	failMark       int
	failCommit     int
	failSetArchive int
	commits        int

	// usage receives the sample of every winning commit, as the SQL store's
	// transaction does. A failing usage repo leaves the commit in place.
	usage *memoryUsageRepo
}

func newMemoryJobStore() *memoryJobStore {
	return &memoryJobStore{
		jobs:    make(map[int64]domain.SummaryJob),
		history: make(map[int64][]domain.SummaryJobStatus),
	}
}

func (s *memoryJobStore) Create(_ context.Context, job *domain.SummaryJob) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := *job
	stored.ID = s.nextID
	if stored.Status == "" {
		stored.Status = domain.SummaryJobStatusPending
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	}
	s.jobs[stored.ID] = stored
	s.history[stored.ID] = []domain.SummaryJobStatus{stored.Status}
	return stored.ID, nil
}

func (s *memoryJobStore) Get(_ context.Context, id int64) (*domain.SummaryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet > 0 {
		s.failGet--
		return nil, errStoreDown
	}
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrJobNotFound, id)
	}
	return &job, nil
}

func (s *memoryJobStore) ListByUser(_ context.Context, userID int64, offset, limit int) ([]*domain.SummaryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.SummaryJob
	for _, job := range s.jobs {
		if job.UserID == userID {
			job := job
			out = append(out, &job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryJobStore) MarkProcessing(_ context.Context, id int64, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMark > 0 {
		s.failMark--
		return errStoreDown
	}
	job, ok := s.jobs[id]
	if !ok || job.Status != domain.SummaryJobStatusPending {
		return fmt.Errorf("%w: job %d is not pending", domain.ErrInvalidTransition, id)
	}
	job.Status = domain.SummaryJobStatusProcessing
	job.ProcessingStartedAt = &startedAt
	s.jobs[id] = job
	s.history[id] = append(s.history[id], job.Status)
	return nil
}

func (s *memoryJobStore) CommitTerminal(ctx context.Context, id int64, outcome domain.TerminalOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCommit > 0 {
		s.failCommit--
		return errStoreDown
	}
	job, ok := s.jobs[id]
	if !ok || job.IsTerminal() || !outcome.Status.IsTerminal() {
		return fmt.Errorf("%w: job %d is already terminal or missing", domain.ErrInvalidTransition, id)
	}
	job = outcome.Apply(job)
	s.jobs[id] = job
	s.history[id] = append(s.history[id], job.Status)
	s.commits++
	if s.usage != nil {
		_ = s.usage.RecordOutcome(ctx, outcome.CompletedAt, outcome.UsageSample())
	}
	return nil
}

func (s *memoryJobStore) SetArchiveKey(_ context.Context, id int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSetArchive > 0 {
		s.failSetArchive--
		return errStoreDown
	}
	job, ok := s.jobs[id]
	if !ok || job.Status != domain.SummaryJobStatusCompleted {
		return fmt.Errorf("%w: job %d is not completed", domain.ErrInvalidTransition, id)
	}
	job.ArchiveKey = &key
	s.jobs[id] = job
	return nil
}

func (s *memoryJobStore) FindStale(_ context.Context, startedBefore time.Time, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, job := range s.jobs {
		if job.Status == domain.SummaryJobStatusProcessing && job.ProcessingStartedAt.Before(startedBefore) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *memoryJobStore) job(id int64) domain.SummaryJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *memoryJobStore) statuses(id int64) []domain.SummaryJobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SummaryJobStatus(nil), s.history[id]...)
}

// memoryUsageRepo folds samples into hourly rows the way the SQL store does.
type memoryUsageRepo struct {
	mu      sync.Mutex
	rows    map[string]domain.UsageStatistics
	samples int
	fail    bool
}

func newMemoryUsageRepo() *memoryUsageRepo {
	return &memoryUsageRepo{rows: make(map[string]domain.UsageStatistics)}
}

func hourKey(at time.Time) (string, time.Time, int) {
	day, hour := domain.HourBucket(at)
	return fmt.Sprintf("%s/%02d", day.Format(time.DateOnly), hour), day, hour
}

func (u *memoryUsageRepo) RecordOutcome(_ context.Context, at time.Time, sample domain.UsageSample) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return errStoreDown
	}
	key, day, hour := hourKey(at)
	row, ok := u.rows[key]
	if !ok {
		row = domain.UsageStatistics{Day: day, Hour: hour}
	}
	u.rows[key] = row.Apply(sample)
	u.samples++
	return nil
}

func (u *memoryUsageRepo) RecordGauges(_ context.Context, at time.Time, concurrent int, queueDepth int64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	key, day, hour := hourKey(at)
	row, ok := u.rows[key]
	if !ok {
		row = domain.UsageStatistics{Day: day, Hour: hour}
	}
	row.PeakConcurrentRequests = max(row.PeakConcurrentRequests, concurrent)
	row.QueueDepth = max(row.QueueDepth, queueDepth)
	u.rows[key] = row
	return nil
}

func (u *memoryUsageRepo) GetHourly(_ context.Context, day time.Time, hour int) (*domain.UsageStatistics, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	row, ok := u.rows[fmt.Sprintf("%s/%02d", day.Format(time.DateOnly), hour)]
	if !ok {
		return &domain.UsageStatistics{Day: day, Hour: hour}, nil
	}
	return &row, nil
}

func (u *memoryUsageRepo) ListDay(_ context.Context, day time.Time) ([]*domain.UsageStatistics, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []*domain.UsageStatistics
	for _, row := range u.rows {
		if row.Day.Equal(day) {
			row := row
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out, nil
}

func (u *memoryUsageRepo) sampleCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.samples
}

// stubSummarizer returns a canned result and counts calls.
type stubSummarizer struct {
	mu       sync.Mutex
	result   domain.SummarizeResult
	onCall   func(ctx context.Context)
	requests []domain.SummarizeRequest
}

func (s *stubSummarizer) Summarize(ctx context.Context, req domain.SummarizeRequest) domain.SummarizeResult {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	onCall := s.onCall
	result := s.result
	s.mu.Unlock()
	if onCall != nil {
		onCall(ctx)
	}
	return result
}

func (s *stubSummarizer) Validate(string, string) error { return nil }

func (s *stubSummarizer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func successResult(summary string) domain.SummarizeResult {
	return domain.SummarizeResult{
		Success: true,
		Summary: summary,
		Stats: domain.SummarizeStats{
			ModelID:          "bart-cnn",
			ProcessingTimeMs: 1200,
			InputTokens:      600,
			OutputTokens:     40,
			Attempts:         1,
		},
	}
}

func failureResult(message string) domain.SummarizeResult {
	return domain.SummarizeResult{
		Error: message,
		Kind:  domain.FailureKindRemote,
		Stats: domain.SummarizeStats{ModelID: "bart-cnn", ProcessingTimeMs: 60000, InputTokens: 600, Attempts: 3},
	}
}
