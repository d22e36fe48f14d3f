package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"summarease/domain"
	"summarease/driver"
	"summarease/middleware"
	"summarease/service"
)

// ArchiveLinkResponse is returned for GET /summaries/:id/archive.
type ArchiveLinkResponse struct {
	URL              string `json:"url"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}

// SummaryHandler serves the summary submission and read API.
type SummaryHandler struct {
	summaries SummaryService
	archive   ArchiveReader
	usage     UsageReader
	logger    *slog.Logger
}

func NewSummaryHandler(summaries SummaryService, archive ArchiveReader, usage UsageReader, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		summaries: summaries,
		archive:   archive,
		usage:     usage,
		logger:    logger,
	}
}

// HandleCreate handles POST /api/v1/summaries.
func (h *SummaryHandler) HandleCreate(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var in service.SubmitInput
	if err := c.Bind(&in); err != nil {
		h.logger.WarnContext(c.Request().Context(), "failed to bind request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	job, err := h.summaries.Submit(c.Request().Context(), user, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// HandleList handles GET /api/v1/summaries?skip=&limit=.
func (h *SummaryHandler) HandleList(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", service.DefaultListLimit)
	if err != nil {
		return err
	}

	jobs, err := h.summaries.List(c.Request().Context(), user, skip, limit)
	if err != nil {
		return err
	}
	if jobs == nil {
		jobs = []*domain.SummaryJob{}
	}
	return c.JSON(http.StatusOK, jobs)
}

// HandleGet handles GET /api/v1/summaries/:id.
func (h *SummaryHandler) HandleGet(c echo.Context) error {
	job, err := h.readJob(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// HandleArchiveLink handles GET /api/v1/summaries/:id/archive.
func (h *SummaryHandler) HandleArchiveLink(c echo.Context) error {
	job, err := h.readJob(c)
	if err != nil {
		return err
	}
	key, err := archiveKey(job)
	if err != nil {
		return err
	}

	url, ttl, err := h.archive.PresignURL(c.Request().Context(), key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ArchiveLinkResponse{
		URL:              url,
		ExpiresInSeconds: int64(ttl / time.Second),
	})
}

// HandleArchiveContent handles GET /api/v1/summaries/:id/archive/content.
func (h *SummaryHandler) HandleArchiveContent(c echo.Context) error {
	job, err := h.readJob(c)
	if err != nil {
		return err
	}
	key, err := archiveKey(job)
	if err != nil {
		return err
	}

	doc, err := h.archive.Fetch(c.Request().Context(), key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// HandleUsage handles GET /api/v1/admin/usage?day=YYYY-MM-DD[&hour=H].
// Without hour every recorded hour of the day is returned.
func (h *SummaryHandler) HandleUsage(c echo.Context) error {
	ctx := c.Request().Context()

	day := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.QueryParam("day"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return fmt.Errorf("%w: day must be YYYY-MM-DD", domain.ErrValidation)
		}
		day = parsed
	}

	if c.QueryParam("hour") == "" {
		rows, err := h.usage.ListDay(ctx, day)
		if err != nil {
			return err
		}
		if rows == nil {
			rows = []*domain.UsageStatistics{}
		}
		return c.JSON(http.StatusOK, rows)
	}

	hour, err := queryInt(c, "hour", 0)
	if err != nil {
		return err
	}
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour must be between 0 and 23", domain.ErrValidation)
	}

	row, err := h.usage.GetHourly(ctx, day, hour)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, row)
}

func (h *SummaryHandler) readJob(c echo.Context) (*domain.SummaryJob, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: id must be a positive integer", domain.ErrValidation)
	}
	return h.summaries.Get(c.Request().Context(), user, id)
}

func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
	}
	return user, nil
}

func archiveKey(job *domain.SummaryJob) (string, error) {
	if job.ArchiveKey == nil || *job.ArchiveKey == "" {
		return "", fmt.Errorf("job %d has no archived summary: %w", job.ID, driver.ErrArchiveObjectNotFound)
	}
	return *job.ArchiveKey, nil
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return v, nil
}
