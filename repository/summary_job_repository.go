package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"summarease/config"
	"summarease/domain"
	"summarease/driver"
	"summarease/metrics"
)

const (
	fullJobColumns = `id, user_id, original_text, model_id, max_length, min_length,
		summary_text, error_message, status, created_at, processing_started_at, completed_at,
		processing_time_ms, original_tokens, summary_tokens, processing_cost, archive_key`

	reducedJobColumns = `id, user_id, original_text,
		summary_text, error_message, status, created_at, processing_started_at, completed_at`
)

// rowQuerier is satisfied by both the pool and a pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type summaryJobRepository struct {
	db      driver.PgxIface
	profile config.SchemaProfile
	logger  *slog.Logger
}

// NewSummaryJobRepository creates the job store. The reduced profile skips
// the optional metric and model columns on every read and write.
func NewSummaryJobRepository(db driver.PgxIface, profile config.SchemaProfile, logger *slog.Logger) SummaryJobRepository {
	return &summaryJobRepository{
		db:      db,
		profile: profile,
		logger:  logger,
	}
}

func (r *summaryJobRepository) reduced() bool {
	return r.profile == config.SchemaProfileReduced
}

func (r *summaryJobRepository) columns() string {
	if r.reduced() {
		return reducedJobColumns
	}
	return fullJobColumns
}

// Create inserts job as pending and returns its id.
func (r *summaryJobRepository) Create(ctx context.Context, job *domain.SummaryJob) (int64, error) {
	if r.db == nil {
		r.logger.ErrorContext(ctx, "database connection is nil")
		return 0, fmt.Errorf("database connection is nil")
	}

	id, err := insertJob(ctx, r.db, r.profile, job)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to create summary job", "error", err, "user_id", job.UserID)
		return 0, err
	}

	r.logger.InfoContext(ctx, "summary job created", "job_id", id, "user_id", job.UserID)
	return id, nil
}

func insertJob(ctx context.Context, q rowQuerier, profile config.SchemaProfile, job *domain.SummaryJob) (int64, error) {
	if job == nil {
		return 0, fmt.Errorf("job cannot be nil")
	}
	if job.OriginalText == "" {
		return 0, fmt.Errorf("%w: original text cannot be empty", domain.ErrValidation)
	}

	var (
		query string
		args  []any
	)
	if profile == config.SchemaProfileReduced {
		query = `
			INSERT INTO summaries (user_id, original_text, status, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		args = []any{job.UserID, job.OriginalText, string(domain.SummaryJobStatusPending), job.CreatedAt}
	} else {
		query = `
			INSERT INTO summaries (user_id, original_text, model_id, max_length, min_length, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`
		args = []any{job.UserID, job.OriginalText, job.ModelID, job.MaxLength, job.MinLength,
			string(domain.SummaryJobStatusPending), job.CreatedAt}
	}

	var id int64
	if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create summary job: %w", err)
	}

	job.ID = id
	job.Status = domain.SummaryJobStatusPending
	return id, nil
}

func (r *summaryJobRepository) Get(ctx context.Context, id int64) (*domain.SummaryJob, error) {
	if r.db == nil {
		r.logger.ErrorContext(ctx, "database connection is nil")
		return nil, fmt.Errorf("database connection is nil")
	}

	startTime := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM summaries WHERE id = $1`, r.columns())

	job, err := r.scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "summary job not found", "job_id", id)
			return nil, fmt.Errorf("%w: %d", domain.ErrJobNotFound, id)
		}
		r.logger.ErrorContext(ctx, "failed to get summary job", "error", err, "job_id", id)
		return nil, fmt.Errorf("failed to get summary job: %w", err)
	}

	r.logger.DebugContext(ctx, "summary job retrieved",
		"job_id", id,
		"status", job.Status,
		"query_duration_ms", time.Since(startTime).Milliseconds())
	return job, nil
}

// ListByUser returns the user's jobs, newest first.
func (r *summaryJobRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*domain.SummaryJob, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset cannot be negative")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM summaries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`, r.columns())

	rows, err := r.db.Query(ctx, query, userID, offset, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list summary jobs", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to list summary jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*domain.SummaryJob, 0, limit)
	for rows.Next() {
		job, err := r.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summary jobs: %w", err)
	}
	return jobs, nil
}

// MarkProcessing moves a pending job to processing.
func (r *summaryJobRepository) MarkProcessing(ctx context.Context, id int64, startedAt time.Time) error {
	query := `
		UPDATE summaries
		SET status = $2, processing_started_at = $3
		WHERE id = $1 AND status = $4
	`

	tag, err := r.db.Exec(ctx, query, id, string(domain.SummaryJobStatusProcessing), startedAt,
		string(domain.SummaryJobStatusPending))
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to mark job processing", "error", err, "job_id", id)
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %d is not pending", domain.ErrInvalidTransition, id)
	}

	r.logger.InfoContext(ctx, "summary job processing", "job_id", id)
	return nil
}

// CommitTerminal writes the outcome in a single guarded UPDATE so the status
// and its fields never become visible separately. The outcome's usage sample
// is folded into the hourly statistics in the same transaction, so only the
// caller whose UPDATE wins is counted.
func (r *summaryJobRepository) CommitTerminal(ctx context.Context, id int64, outcome domain.TerminalOutcome) error {
	if !outcome.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is not a terminal status", domain.ErrInvalidTransition, outcome.Status)
	}

	var (
		query string
		args  []any
	)
	if r.reduced() {
		query = `
			UPDATE summaries
			SET status = $2, summary_text = $3, error_message = $4, completed_at = $5,
				processing_started_at = COALESCE(processing_started_at, $5)
			WHERE id = $1 AND status IN ('pending', 'processing')
		`
		args = []any{id, string(outcome.Status), outcome.SummaryText, outcome.ErrorMessage, outcome.CompletedAt}
	} else {
		query = `
			UPDATE summaries
			SET status = $2, summary_text = $3, error_message = $4, completed_at = $5,
				processing_started_at = COALESCE(processing_started_at, $5),
				processing_time_ms = $6, original_tokens = $7, summary_tokens = $8, processing_cost = $9,
				model_id = COALESCE(NULLIF($10, ''), model_id)
			WHERE id = $1 AND status IN ('pending', 'processing')
		`
		args = []any{id, string(outcome.Status), outcome.SummaryText, outcome.ErrorMessage, outcome.CompletedAt,
			outcome.ProcessingTimeMs, outcome.OriginalTokens, outcome.SummaryTokens, outcome.ProcessingCost,
			outcome.ModelID}
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to begin transaction", "error", err, "job_id", id)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.ErrorContext(ctx, "failed to rollback transaction", "error", err, "job_id", id)
		}
	}()

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to commit terminal outcome", "error", err, "job_id", id)
		return fmt.Errorf("failed to commit terminal outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %d is already terminal or missing", domain.ErrInvalidTransition, id)
	}

	r.recordUsage(ctx, tx, id, outcome)

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "failed to commit transaction", "error", err, "job_id", id)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "summary job finished",
		"job_id", id,
		"status", outcome.Status,
		"processing_time_ms", outcome.ProcessingTimeMs)
	return nil
}

// recordUsage runs under a savepoint. A usage failure is logged and rolled
// back on its own, the status change still commits.
func (r *summaryJobRepository) recordUsage(ctx context.Context, tx pgx.Tx, id int64, outcome domain.TerminalOutcome) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		metrics.RecordError("usage_record", "store")
		r.logger.WarnContext(ctx, "failed to open usage savepoint", "error", err, "job_id", id)
		return
	}

	if _, err := applyUsageSample(ctx, sp, outcome.CompletedAt, outcome.UsageSample()); err != nil {
		metrics.RecordError("usage_record", "store")
		r.logger.WarnContext(ctx, "failed to record usage, job status kept", "error", err, "job_id", id)
		if err := sp.Rollback(ctx); err != nil {
			r.logger.ErrorContext(ctx, "failed to rollback usage savepoint", "error", err, "job_id", id)
		}
		return
	}

	if err := sp.Commit(ctx); err != nil {
		metrics.RecordError("usage_record", "store")
		r.logger.WarnContext(ctx, "failed to release usage savepoint", "error", err, "job_id", id)
	}
}

// SetArchiveKey records the archive pointer of a completed job. It is a
// no-op under the reduced profile.
func (r *summaryJobRepository) SetArchiveKey(ctx context.Context, id int64, key string) error {
	if r.reduced() {
		r.logger.DebugContext(ctx, "archive key not stored under reduced schema", "job_id", id)
		return nil
	}

	query := `
		UPDATE summaries
		SET archive_key = $2
		WHERE id = $1 AND status = $3
	`
	tag, err := r.db.Exec(ctx, query, id, key, string(domain.SummaryJobStatusCompleted))
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to set archive key", "error", err, "job_id", id)
		return fmt.Errorf("failed to set archive key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %d is not completed", domain.ErrInvalidTransition, id)
	}
	return nil
}

// FindStale returns processing jobs started before startedBefore, oldest first.
func (r *summaryJobRepository) FindStale(ctx context.Context, startedBefore time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	query := `
		SELECT id FROM summaries
		WHERE status = $1 AND processing_started_at < $2
		ORDER BY processing_started_at
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, string(domain.SummaryJobStatusProcessing), startedBefore, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find stale jobs", "error", err)
		return nil, fmt.Errorf("failed to find stale jobs: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan stale job id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stale jobs: %w", err)
	}
	return ids, nil
}

func (r *summaryJobRepository) scanJob(row pgx.Row) (*domain.SummaryJob, error) {
	var job domain.SummaryJob
	var status string

	var dest []any
	if r.reduced() {
		dest = []any{
			&job.ID, &job.UserID, &job.OriginalText,
			&job.SummaryText, &job.ErrorMessage, &status, &job.CreatedAt, &job.ProcessingStartedAt, &job.CompletedAt,
		}
	} else {
		dest = []any{
			&job.ID, &job.UserID, &job.OriginalText, &job.ModelID, &job.MaxLength, &job.MinLength,
			&job.SummaryText, &job.ErrorMessage, &status, &job.CreatedAt, &job.ProcessingStartedAt, &job.CompletedAt,
			&job.ProcessingTimeMs, &job.OriginalTokens, &job.SummaryTokens, &job.ProcessingCost, &job.ArchiveKey,
		}
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	job.Status = domain.SummaryJobStatus(status)
	return &job, nil
}
