package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"summarease/config"
	"summarease/domain"
	"summarease/driver"
)

type userRepository struct {
	db      driver.PgxIface
	profile config.SchemaProfile
	logger  *slog.Logger
}

func NewUserRepository(db driver.PgxIface, profile config.SchemaProfile, logger *slog.Logger) UserRepository {
	return &userRepository{db: db, profile: profile, logger: logger}
}

func (r *userRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, credits, role, is_active, created_at
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", domain.ErrUserNotFound, id)
		}
		r.logger.ErrorContext(ctx, "failed to get user", "error", err, "user_id", id)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateJobWithCredit debits one credit from job.UserID and inserts the
// pending job in the same transaction. The user row is locked first so two
// submissions cannot both spend the last credit.
func (r *userRepository) CreateJobWithCredit(ctx context.Context, job *domain.SummaryJob) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.ErrorContext(ctx, "failed to rollback transaction", "error", err)
		}
	}()

	user, err := scanUser(tx.QueryRow(ctx, `
		SELECT id, email, credits, role, is_active, created_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, job.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %d", domain.ErrUserNotFound, job.UserID)
		}
		return 0, fmt.Errorf("failed to lock user: %w", err)
	}
	if !user.IsActive {
		return 0, fmt.Errorf("%w: inactive user", domain.ErrForbidden)
	}
	if user.Credits <= 0 {
		return 0, domain.ErrInsufficientCredits
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET credits = credits - 1
		WHERE id = $1 AND credits > 0
	`, job.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to debit credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, domain.ErrInsufficientCredits
	}

	id, err := insertJob(ctx, tx, r.profile, job)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit submission: %w", err)
	}

	r.logger.InfoContext(ctx, "credit debited for summary job",
		"user_id", job.UserID,
		"job_id", id,
		"credits_left", user.Credits-1)
	return id, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Credits, &role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}
