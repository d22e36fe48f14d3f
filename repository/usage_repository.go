package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"summarease/domain"
	"summarease/driver"
)

const usageColumns = `id, day, hour, total_requests, successful_requests, failed_requests,
	avg_processing_time_ms, max_processing_time_ms, total_tokens_processed, api_cost,
	peak_concurrent_requests, queue_depth`

type usageRepository struct {
	db     driver.PgxIface
	logger *slog.Logger
}

func NewUsageRepository(db driver.PgxIface, logger *slog.Logger) UsageRepository {
	return &usageRepository{db: db, logger: logger}
}

// RecordOutcome folds one sample into the row for the hour containing at.
// The row is created lazily and locked FOR UPDATE, so concurrent workers
// apply their samples one after another.
func (r *usageRepository) RecordOutcome(ctx context.Context, at time.Time, sample domain.UsageSample) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.ErrorContext(ctx, "failed to rollback transaction", "error", err)
		}
	}()

	next, err := applyUsageSample(ctx, tx, at, sample)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit usage row: %w", err)
	}

	r.logger.DebugContext(ctx, "usage recorded",
		"day", next.Day.Format(time.DateOnly),
		"hour", next.Hour,
		"total_requests", next.TotalRequests,
		"success", sample.Success)
	return nil
}

// applyUsageSample runs the lock and increment of the hourly row inside tx.
// The job store calls it from the same transaction that settles the job.
func applyUsageSample(ctx context.Context, tx pgx.Tx, at time.Time, sample domain.UsageSample) (*domain.UsageStatistics, error) {
	day, hour := domain.HourBucket(at)

	if _, err := tx.Exec(ctx, `
		INSERT INTO usage_statistics (day, hour)
		VALUES ($1, $2)
		ON CONFLICT (day, hour) DO NOTHING
	`, day, hour); err != nil {
		return nil, fmt.Errorf("failed to create usage row: %w", err)
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM usage_statistics
		WHERE day = $1 AND hour = $2
		FOR UPDATE
	`, usageColumns), day, hour)
	stats, err := scanUsage(row)
	if err != nil {
		return nil, fmt.Errorf("failed to lock usage row: %w", err)
	}

	next := stats.Apply(sample)
	if _, err := tx.Exec(ctx, `
		UPDATE usage_statistics
		SET total_requests = $2, successful_requests = $3, failed_requests = $4,
			avg_processing_time_ms = $5, max_processing_time_ms = $6,
			total_tokens_processed = $7, api_cost = $8
		WHERE id = $1
	`, next.ID, next.TotalRequests, next.SuccessfulRequests, next.FailedRequests,
		next.AvgProcessingTimeMs, next.MaxProcessingTimeMs, next.TotalTokensProcessed, next.APICost); err != nil {
		return nil, fmt.Errorf("failed to update usage row: %w", err)
	}
	return &next, nil
}

// RecordGauges raises the hour's peak concurrency and queue depth.
func (r *usageRepository) RecordGauges(ctx context.Context, at time.Time, concurrent int, queueDepth int64) error {
	day, hour := domain.HourBucket(at)

	_, err := r.db.Exec(ctx, `
		INSERT INTO usage_statistics (day, hour, peak_concurrent_requests, queue_depth)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (day, hour) DO UPDATE
		SET peak_concurrent_requests = GREATEST(usage_statistics.peak_concurrent_requests, EXCLUDED.peak_concurrent_requests),
			queue_depth = GREATEST(usage_statistics.queue_depth, EXCLUDED.queue_depth)
	`, day, hour, concurrent, queueDepth)
	if err != nil {
		return fmt.Errorf("failed to record usage gauges: %w", err)
	}
	return nil
}

// GetHourly returns the row for (day, hour), or an empty row when nothing
// was recorded in that hour.
func (r *usageRepository) GetHourly(ctx context.Context, day time.Time, hour int) (*domain.UsageStatistics, error) {
	day, _ = domain.HourBucket(day)

	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM usage_statistics
		WHERE day = $1 AND hour = $2
	`, usageColumns), day, hour)

	stats, err := scanUsage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.UsageStatistics{Day: day, Hour: hour}, nil
		}
		return nil, fmt.Errorf("failed to get usage row: %w", err)
	}
	return stats, nil
}

// ListDay returns the recorded hours of day in hour order.
func (r *usageRepository) ListDay(ctx context.Context, day time.Time) ([]*domain.UsageStatistics, error) {
	day, _ = domain.HourBucket(day)

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM usage_statistics
		WHERE day = $1
		ORDER BY hour
	`, usageColumns), day)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage rows: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.UsageStatistics, 0, 24)
	for rows.Next() {
		stats, err := scanUsage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		result = append(result, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage rows: %w", err)
	}
	return result, nil
}

func scanUsage(row pgx.Row) (*domain.UsageStatistics, error) {
	var s domain.UsageStatistics
	err := row.Scan(
		&s.ID, &s.Day, &s.Hour,
		&s.TotalRequests, &s.SuccessfulRequests, &s.FailedRequests,
		&s.AvgProcessingTimeMs, &s.MaxProcessingTimeMs, &s.TotalTokensProcessed, &s.APICost,
		&s.PeakConcurrentRequests, &s.QueueDepth,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
