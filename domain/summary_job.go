package domain

import (
	"fmt"
	"time"
)

// SummaryJobStatus represents the lifecycle status of a summary job
type SummaryJobStatus string

const (
	SummaryJobStatusPending    SummaryJobStatus = "pending"
	SummaryJobStatusProcessing SummaryJobStatus = "processing"
	SummaryJobStatusCompleted  SummaryJobStatus = "completed"
	SummaryJobStatusFailed     SummaryJobStatus = "failed"
)

// IsTerminal returns true for completed and failed.
func (s SummaryJobStatus) IsTerminal() bool {
	return s == SummaryJobStatusCompleted || s == SummaryJobStatusFailed
}

// Valid reports whether s is one of the four known statuses.
func (s SummaryJobStatus) Valid() bool {
	switch s {
	case SummaryJobStatusPending, SummaryJobStatusProcessing, SummaryJobStatusCompleted, SummaryJobStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo encodes pending -> processing -> {completed, failed}.
// A pending job may also be failed directly when processing is abandoned
// before it could start.
func (s SummaryJobStatus) CanTransitionTo(next SummaryJobStatus) bool {
	switch s {
	case SummaryJobStatusPending:
		return next == SummaryJobStatusProcessing || next == SummaryJobStatusFailed
	case SummaryJobStatusProcessing:
		return next == SummaryJobStatusCompleted || next == SummaryJobStatusFailed
	}
	return false
}

// SummaryJob is one summarization request and its lifecycle record.
// It is a plain record; mutations go through SummaryJobRepository.
type SummaryJob struct {
	ID                  int64            `db:"id" json:"id"`
	UserID              int64            `db:"user_id" json:"user_id"`
	OriginalText        string           `db:"original_text" json:"original_text"`
	ModelID             string           `db:"model_id" json:"model_id"`
	MaxLength           int              `db:"max_length" json:"max_length"`
	MinLength           int              `db:"min_length" json:"min_length"`
	SummaryText         *string          `db:"summary_text" json:"summary_text"`   // Nullable
	ErrorMessage        *string          `db:"error_message" json:"error_message"` // Nullable
	Status              SummaryJobStatus `db:"status" json:"status"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	ProcessingStartedAt *time.Time       `db:"processing_started_at" json:"processing_started_at"`
	CompletedAt         *time.Time       `db:"completed_at" json:"completed_at"`
	ProcessingTimeMs    *int64           `db:"processing_time_ms" json:"processing_time_ms"`
	OriginalTokens      *int             `db:"original_tokens" json:"original_tokens"`
	SummaryTokens       *int             `db:"summary_tokens" json:"summary_tokens"`
	ProcessingCost      *float64         `db:"processing_cost" json:"processing_cost"`
	ArchiveKey          *string          `db:"archive_key" json:"archive_key,omitempty"`
}

// IsTerminal returns true if the job status is terminal (completed or failed)
func (j *SummaryJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Validate checks the field/status invariants of a job record.
func (j *SummaryJob) Validate() error {
	if !j.Status.Valid() {
		return fmt.Errorf("unknown status %q", j.Status)
	}
	completed := j.Status == SummaryJobStatusCompleted
	failed := j.Status == SummaryJobStatusFailed

	if (j.SummaryText != nil) != completed {
		return fmt.Errorf("summary_text presence does not match status %s", j.Status)
	}
	if (j.ErrorMessage != nil) != failed {
		return fmt.Errorf("error_message presence does not match status %s", j.Status)
	}
	if (j.ProcessingStartedAt != nil) != (j.Status != SummaryJobStatusPending) {
		return fmt.Errorf("processing_started_at presence does not match status %s", j.Status)
	}
	if (j.CompletedAt != nil) != j.Status.IsTerminal() {
		return fmt.Errorf("completed_at presence does not match status %s", j.Status)
	}
	if j.ProcessingStartedAt != nil && j.ProcessingStartedAt.Before(j.CreatedAt) {
		return fmt.Errorf("processing_started_at precedes created_at")
	}
	if j.CompletedAt != nil && j.ProcessingStartedAt != nil && j.CompletedAt.Before(*j.ProcessingStartedAt) {
		return fmt.Errorf("completed_at precedes processing_started_at")
	}
	if j.ArchiveKey != nil && !completed {
		return fmt.Errorf("archive_key set on %s job", j.Status)
	}
	return nil
}

// TerminalOutcome carries every field written by the terminal commit.
type TerminalOutcome struct {
	Status           SummaryJobStatus
	SummaryText      *string
	ErrorMessage     *string
	CompletedAt      time.Time
	ProcessingTimeMs int64
	OriginalTokens   *int
	SummaryTokens    *int
	ProcessingCost   *float64
	ModelID          string
}

// NewCompletedOutcome builds the outcome of a successful summarization.
func NewCompletedOutcome(summary string, completedAt time.Time, processingTimeMs int64, inputTokens, outputTokens int, costPer1K float64) TerminalOutcome {
	cost := EstimateCost(inputTokens, outputTokens, costPer1K)
	return TerminalOutcome{
		Status:           SummaryJobStatusCompleted,
		SummaryText:      &summary,
		CompletedAt:      completedAt,
		ProcessingTimeMs: processingTimeMs,
		OriginalTokens:   &inputTokens,
		SummaryTokens:    &outputTokens,
		ProcessingCost:   &cost,
	}
}

// NewFailedOutcome builds the outcome of an unsuccessful attempt.
func NewFailedOutcome(message string, completedAt time.Time, processingTimeMs int64) TerminalOutcome {
	return TerminalOutcome{
		Status:           SummaryJobStatusFailed,
		ErrorMessage:     &message,
		CompletedAt:      completedAt,
		ProcessingTimeMs: processingTimeMs,
	}
}

// Succeeded reports whether the outcome is a completion.
func (o TerminalOutcome) Succeeded() bool {
	return o.Status == SummaryJobStatusCompleted
}

// UsageSample converts the outcome into a usage accounting sample.
func (o TerminalOutcome) UsageSample() UsageSample {
	var tokens *int
	if o.OriginalTokens != nil || o.SummaryTokens != nil {
		total := 0
		if o.OriginalTokens != nil {
			total += *o.OriginalTokens
		}
		if o.SummaryTokens != nil {
			total += *o.SummaryTokens
		}
		tokens = &total
	}
	return UsageSample{
		ProcessingTimeMs: float64(o.ProcessingTimeMs),
		Tokens:           tokens,
		Cost:             o.ProcessingCost,
		Success:          o.Succeeded(),
	}
}

// Apply returns a copy of job with the outcome applied, the way the store
// persists it.
func (o TerminalOutcome) Apply(job SummaryJob) SummaryJob {
	completedAt := o.CompletedAt
	job.Status = o.Status
	job.SummaryText = o.SummaryText
	job.ErrorMessage = o.ErrorMessage
	job.CompletedAt = &completedAt
	if job.ProcessingStartedAt == nil {
		job.ProcessingStartedAt = &completedAt
	}
	ms := o.ProcessingTimeMs
	job.ProcessingTimeMs = &ms
	job.OriginalTokens = o.OriginalTokens
	job.SummaryTokens = o.SummaryTokens
	job.ProcessingCost = o.ProcessingCost
	if o.ModelID != "" {
		job.ModelID = o.ModelID
	}
	return job
}

// EstimateCost returns (in+out)/1000 * costPer1K.
func EstimateCost(inputTokens, outputTokens int, costPer1K float64) float64 {
	return float64(inputTokens+outputTokens) / 1000 * costPer1K
}
