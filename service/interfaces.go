package service

import (
	"context"
	"time"

	"summarease/domain"
	"summarease/driver"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/service_mocks.go -package=mocks

// SummarizeAPI performs a single inference call.
type SummarizeAPI interface {
	Summarize(ctx context.Context, endpoint string, payload driver.SummarizePayload) (string, error)
}

// Summarizer turns text into a summary result. Remote failures are reported
// in the result, never as an error.
type Summarizer interface {
	Summarize(ctx context.Context, req domain.SummarizeRequest) domain.SummarizeResult
	Validate(text, modelID string) error
}

// JobQueue hands a job id to the workers.
type JobQueue interface {
	Enqueue(ctx context.Context, jobID int64) error
	Depth(ctx context.Context) (int64, error)
}

// JobRunner drives one job to a terminal status.
type JobRunner interface {
	Process(ctx context.Context, jobID int64) error
	ForceFail(ctx context.Context, jobID int64, reason string) error
}

// ArchiveStore keeps completed summaries outside the database.
type ArchiveStore interface {
	Put(ctx context.Context, jobID int64, body []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// JobDispatcher routes a created job to the queue or runs it inline.
type JobDispatcher interface {
	Submit(ctx context.Context, jobID int64) error
}
