// ABOUTME: This file implements the submission path: validate, debit one credit, create the job, dispatch
// ABOUTME: It also serves ownership-checked reads of job records
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"summarease/domain"
	"summarease/repository"
	"summarease/utils/text"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// SubmitInput is the user-supplied part of a new job.
type SubmitInput struct {
	Text      string `json:"original_text" validate:"required,max=200000"`
	ModelID   string `json:"model,omitempty" validate:"omitempty,max=64"`
	MaxLength int    `json:"max_length,omitempty" validate:"omitempty,min=10,max=1024"`
	MinLength int    `json:"min_length,omitempty" validate:"omitempty,min=1,max=1024"`
}

type SubmissionService struct {
	users      repository.UserRepository
	jobs       repository.SummaryJobRepository
	summarizer Summarizer
	dispatcher JobDispatcher
	validate   *validator.Validate
	now        func() time.Time
	logger     *slog.Logger
}

func NewSubmissionService(
	users repository.UserRepository,
	jobs repository.SummaryJobRepository,
	summarizer Summarizer,
	dispatcher JobDispatcher,
	logger *slog.Logger,
) *SubmissionService {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &SubmissionService{
		users:      users,
		jobs:       jobs,
		summarizer: summarizer,
		dispatcher: dispatcher,
		validate:   validate,
		now:        time.Now,
		logger:     logger,
	}
}

// Submit creates a pending job for user and dispatches it. Validation
// failures are returned before any credit is spent. A dispatch error does
// not undo the submission: the job stays visible and the reaper finishes it.
func (s *SubmissionService) Submit(ctx context.Context, user *domain.User, in SubmitInput) (*domain.SummaryJob, error) {
	if !user.IsActive {
		return nil, fmt.Errorf("%w: inactive user", domain.ErrForbidden)
	}

	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	normalized := text.Normalize(in.Text)
	if err := s.summarizer.Validate(normalized, in.ModelID); err != nil {
		return nil, err
	}

	job := &domain.SummaryJob{
		UserID:       user.ID,
		OriginalText: normalized,
		ModelID:      in.ModelID,
		MaxLength:    in.MaxLength,
		MinLength:    in.MinLength,
		Status:       domain.SummaryJobStatusPending,
		CreatedAt:    s.now().UTC(),
	}

	id, err := s.users.CreateJobWithCredit(ctx, job)
	if err != nil {
		return nil, err
	}
	job.ID = id

	s.logger.InfoContext(ctx, "summary job submitted",
		"job_id", id,
		"user_id", user.ID,
		"model", in.ModelID,
		"input_chars", len(normalized))

	// inline processing must outlive a client that hangs up
	if err := s.dispatcher.Submit(context.WithoutCancel(ctx), id); err != nil {
		s.logger.ErrorContext(ctx, "failed to dispatch summary job", "job_id", id, "error", err)
	}

	stored, err := s.jobs.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to reload submitted job", "job_id", id, "error", err)
		return job, nil
	}
	return stored, nil
}

func (s *SubmissionService) validateInput(in SubmitInput) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		messages := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			messages = append(messages, fieldMessage(fe))
		}
		return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(messages, ", "))
	}
	if in.MaxLength > 0 && in.MinLength > in.MaxLength {
		return fmt.Errorf("%w: min_length must not exceed max_length", domain.ErrValidation)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// Get returns a job readable by user.
func (s *SubmissionService) Get(ctx context.Context, user *domain.User, id int64) (*domain.SummaryJob, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanRead(job.UserID) {
		return nil, fmt.Errorf("%w: job %d", domain.ErrForbidden, id)
	}
	return job, nil
}

// List pages through the user's own jobs, newest first.
func (s *SubmissionService) List(ctx context.Context, user *domain.User, offset, limit int) ([]*domain.SummaryJob, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	return s.jobs.ListByUser(ctx, user.ID, offset, limit)
}
