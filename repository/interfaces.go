package repository

import (
	"context"
	"time"

	"summarease/domain"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/repository_mocks.go -package=mocks

// SummaryJobRepository persists job records. It is the only writer of job
// state.
type SummaryJobRepository interface {
	Create(ctx context.Context, job *domain.SummaryJob) (int64, error)
	Get(ctx context.Context, id int64) (*domain.SummaryJob, error)
	ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*domain.SummaryJob, error)
	MarkProcessing(ctx context.Context, id int64, startedAt time.Time) error
	CommitTerminal(ctx context.Context, id int64, outcome domain.TerminalOutcome) error
	SetArchiveKey(ctx context.Context, id int64, key string) error
	FindStale(ctx context.Context, startedBefore time.Time, limit int) ([]int64, error)
}

// UsageRepository maintains the hourly usage_statistics rows.
type UsageRepository interface {
	RecordOutcome(ctx context.Context, at time.Time, sample domain.UsageSample) error
	RecordGauges(ctx context.Context, at time.Time, concurrent int, queueDepth int64) error
	GetHourly(ctx context.Context, day time.Time, hour int) (*domain.UsageStatistics, error)
	ListDay(ctx context.Context, day time.Time) ([]*domain.UsageStatistics, error)
}

// UserRepository reads users and debits credits on submission.
type UserRepository interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
	CreateJobWithCredit(ctx context.Context, job *domain.SummaryJob) (int64, error)
}
