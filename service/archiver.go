package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"summarease/domain"
)

// ArchivedSummary is the JSON document stored for a completed job.
type ArchivedSummary struct {
	JobID            int64     `json:"job_id"`
	UserID           int64     `json:"user_id"`
	ModelID          string    `json:"model_id,omitempty"`
	OriginalText     string    `json:"original_text"`
	SummaryText      string    `json:"summary_text"`
	CreatedAt        time.Time `json:"created_at"`
	CompletedAt      time.Time `json:"completed_at"`
	ProcessingTimeMs *int64    `json:"processing_time_ms,omitempty"`
	OriginalTokens   *int      `json:"original_tokens,omitempty"`
	SummaryTokens    *int      `json:"summary_tokens,omitempty"`
	ProcessingCost   *float64  `json:"processing_cost,omitempty"`
}

// Archiver copies completed summaries to the archive store and hands out
// presigned links to them.
type Archiver struct {
	store      ArchiveStore
	presignTTL time.Duration
	urls       *expirable.LRU[string, string]
	logger     *slog.Logger
}

// NewArchiver caches presigned URLs for half their lifetime so a cached
// link always has at least ttl/2 left.
func NewArchiver(store ArchiveStore, presignTTL time.Duration, cacheSize int, logger *slog.Logger) *Archiver {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	return &Archiver{
		store:      store,
		presignTTL: presignTTL,
		urls:       expirable.NewLRU[string, string](cacheSize, nil, presignTTL/2),
		logger:     logger,
	}
}

// Archive stores the document for a completed job and returns its key.
func (a *Archiver) Archive(ctx context.Context, job domain.SummaryJob) (string, error) {
	if job.Status != domain.SummaryJobStatusCompleted || job.SummaryText == nil || job.CompletedAt == nil {
		return "", fmt.Errorf("%w: only completed jobs are archived", domain.ErrInvalidTransition)
	}

	body, err := json.Marshal(ArchivedSummary{
		JobID:            job.ID,
		UserID:           job.UserID,
		ModelID:          job.ModelID,
		OriginalText:     job.OriginalText,
		SummaryText:      *job.SummaryText,
		CreatedAt:        job.CreatedAt,
		CompletedAt:      *job.CompletedAt,
		ProcessingTimeMs: job.ProcessingTimeMs,
		OriginalTokens:   job.OriginalTokens,
		SummaryTokens:    job.SummaryTokens,
		ProcessingCost:   job.ProcessingCost,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode archive document: %w", err)
	}

	key, err := a.store.Put(ctx, job.ID, body)
	if err != nil {
		return "", err
	}

	a.logger.InfoContext(ctx, "summary archived", "job_id", job.ID, "archive_key", key, "size_bytes", len(body))
	return key, nil
}

// PresignURL returns a time-limited GET link for key.
func (a *Archiver) PresignURL(ctx context.Context, key string) (string, time.Duration, error) {
	if url, ok := a.urls.Get(key); ok {
		return url, a.presignTTL, nil
	}

	url, err := a.store.Presign(ctx, key, a.presignTTL)
	if err != nil {
		return "", 0, err
	}
	a.urls.Add(key, url)
	return url, a.presignTTL, nil
}

// Fetch reads the archived document back.
func (a *Archiver) Fetch(ctx context.Context, key string) (*ArchivedSummary, error) {
	body, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var doc ArchivedSummary
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode archive document %s: %w", key, err)
	}
	return &doc, nil
}

// Remove deletes the archived document and forgets its cached link.
func (a *Archiver) Remove(ctx context.Context, key string) (bool, error) {
	a.urls.Remove(key)
	return a.store.Delete(ctx, key)
}
