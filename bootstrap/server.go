package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	appmiddleware "summarease/middleware"
)

// NewHTTPServer creates and configures the Echo HTTP server. Health and
// metrics are always served; the summary API only when withAPI is set.
func NewHTTPServer(deps *Dependencies, otelEnabled bool, otelServiceName string, withAPI bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.HTTPWriteTimeout()

	e.HTTPErrorHandler = appmiddleware.CustomHTTPErrorHandler(deps.Logger)

	if otelEnabled {
		e.Use(otelecho.Middleware(otelServiceName))
		e.Use(appmiddleware.SpanOutcomeMiddleware())
	}

	e.Use(appmiddleware.RequestIDMiddleware())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/health/ready" || path == "/metrics"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			deps.Logger.InfoContext(c.Request().Context(), "HTTP request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/health", deps.HealthHandler.HandleLive)
	e.GET("/health/ready", deps.HealthHandler.HandleReady)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if withAPI {
		api := e.Group("/api/v1", deps.Auth.RequireUser())
		api.POST("/summaries", deps.SummaryHandler.HandleCreate)
		api.GET("/summaries", deps.SummaryHandler.HandleList)
		api.GET("/summaries/:id", deps.SummaryHandler.HandleGet)
		api.GET("/summaries/:id/archive", deps.SummaryHandler.HandleArchiveLink)
		api.GET("/summaries/:id/archive/content", deps.SummaryHandler.HandleArchiveContent)

		admin := api.Group("/admin", appmiddleware.RequireAdmin())
		admin.GET("/usage", deps.SummaryHandler.HandleUsage)
	}

	return e
}

// StartHTTPServer starts the HTTP server in a goroutine.
func StartHTTPServer(e *echo.Echo, port int, log *slog.Logger) {
	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Info("Starting HTTP server", "port", port)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()
}
