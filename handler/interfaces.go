package handler

import (
	"context"
	"time"

	"summarease/domain"
	"summarease/service"
)

// QueueWorker consumes the work queue until its context ends.
type QueueWorker interface {
	Run(ctx context.Context) error
	ClaimStale(ctx context.Context) (int, error)
}

// GaugeRecorder stores sampled concurrency and queue depth.
type GaugeRecorder interface {
	RecordGauges(ctx context.Context, at time.Time, concurrent int, queueDepth int64)
}

// SummaryService is the submission surface the HTTP API calls.
type SummaryService interface {
	Submit(ctx context.Context, user *domain.User, in service.SubmitInput) (*domain.SummaryJob, error)
	Get(ctx context.Context, user *domain.User, id int64) (*domain.SummaryJob, error)
	List(ctx context.Context, user *domain.User, offset, limit int) ([]*domain.SummaryJob, error)
}

// ArchiveReader resolves archived summaries for download.
type ArchiveReader interface {
	PresignURL(ctx context.Context, key string) (string, time.Duration, error)
	Fetch(ctx context.Context, key string) (*service.ArchivedSummary, error)
}

// UsageReader reads the hourly usage rows.
type UsageReader interface {
	GetHourly(ctx context.Context, day time.Time, hour int) (*domain.UsageStatistics, error)
	ListDay(ctx context.Context, day time.Time) ([]*domain.UsageStatistics, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RemoteHealth reports whether the summarization backend circuit is closed.
type RemoteHealth interface {
	RemoteHealthy() bool
}
