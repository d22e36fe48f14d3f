package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 3 * time.Second

// HealthStatus is the readiness report.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler reports liveness and dependency readiness.
type HealthHandler struct {
	database Pinger
	queue    Pinger
	remote   RemoteHealth
	logger   *slog.Logger
}

// NewHealthHandler creates a health handler. queue is nil in inline mode.
func NewHealthHandler(database Pinger, queue Pinger, remote RemoteHealth, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		database: database,
		queue:    queue,
		remote:   remote,
		logger:   logger,
	}
}

// HandleLive handles GET /health.
func (h *HealthHandler) HandleLive(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleReady handles GET /health/ready. The database and queue are
// required; an open summarizer circuit only degrades the report.
func (h *HealthHandler) HandleReady(c echo.Context) error {
	status := h.CheckDependencies(c.Request().Context())

	code := http.StatusOK
	if status.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// CheckDependencies pings every dependency.
func (h *HealthHandler) CheckDependencies(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatus{Status: "healthy", Checks: map[string]string{}}

	if err := h.database.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database health check failed", "error", err)
		status.Checks["database"] = "unreachable"
		status.Status = "unhealthy"
	} else {
		status.Checks["database"] = "ok"
	}

	switch {
	case h.queue == nil:
		status.Checks["queue"] = "inline"
	case h.queue.Ping(ctx) != nil:
		h.logger.ErrorContext(ctx, "queue health check failed")
		status.Checks["queue"] = "unreachable"
		status.Status = "unhealthy"
	default:
		status.Checks["queue"] = "ok"
	}

	if h.remote.RemoteHealthy() {
		status.Checks["summarizer"] = "ok"
	} else {
		status.Checks["summarizer"] = "circuit_open"
		if status.Status == "healthy" {
			status.Status = "degraded"
		}
	}

	return status
}
