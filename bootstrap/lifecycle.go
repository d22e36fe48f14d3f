package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"summarease/config"
	"summarease/domain"
	"summarease/utils/logger"
	"summarease/utils/otel"
)

// Mode selects which surfaces a process runs.
type Mode string

const (
	// ModeServe runs the summary API, the workers and the reaper.
	ModeServe Mode = "serve"
	// ModeWorker runs the workers and the reaper behind health and metrics.
	ModeWorker Mode = "worker"
)

// Run is the main application entry point. It initializes all dependencies,
// starts servers and background jobs, then blocks until ctx is cancelled.
func Run(ctx context.Context, mode Mode) error {
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
		}
	}()

	loggerConfig := logger.LoadLoggerConfigFromEnv()
	log := logger.New(loggerConfig, otelCfg.Enabled)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log.Info("Starting summarease",
		"mode", mode,
		"log_level", loggerConfig.Level,
		"otel_enabled", otelCfg.Enabled,
		"service", otelCfg.ServiceName)

	deps, cleanup, err := BuildDependencies(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer cleanup()

	httpServer := NewHTTPServer(deps, otelCfg.Enabled, otelCfg.ServiceName, mode == ModeServe)
	StartHTTPServer(httpServer, cfg.Server.Port, log)

	if err := startJobs(ctx, deps, log); err != nil {
		shutdown(httpServer, deps, log)
		return fmt.Errorf("failed to start jobs: %w", err)
	}

	log.Info("summarease started successfully", "mode", mode)
	<-ctx.Done()

	shutdown(httpServer, deps, log)
	return nil
}

func startJobs(ctx context.Context, deps *Dependencies, log *slog.Logger) error {
	log.Info("Starting background jobs")

	if err := deps.JobHandler.StartWorkers(ctx); err != nil {
		return fmt.Errorf("failed to start queue workers: %w", err)
	}
	if err := deps.JobHandler.StartReaper(ctx); err != nil {
		return fmt.Errorf("failed to start stale job reaper: %w", err)
	}
	if err := deps.JobHandler.StartGaugeSampler(ctx); err != nil {
		return fmt.Errorf("failed to start gauge sampler: %w", err)
	}

	// Non-fatal dependency health check
	if status := deps.HealthHandler.CheckDependencies(ctx); status.Status != "healthy" {
		log.Warn("Some dependencies are not healthy", "checks", status.Checks)
	}
	return nil
}

func shutdown(httpServer interface{ Shutdown(context.Context) error }, deps *Dependencies, log *slog.Logger) {
	log.Info("Shutting down summarease")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	if err := deps.JobHandler.Stop(); err != nil {
		log.Error("Error stopping job handler", "error", err)
	}

	log.Info("summarease stopped")
}

// ProcessJob drives one job to a terminal status in this process and
// returns the stored record.
func ProcessJob(ctx context.Context, jobID int64) (*domain.SummaryJob, error) {
	log := logger.New(logger.LoadLoggerConfigFromEnv(), false)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	// no consumers are needed for a single inline run
	cfg.Redis.URL = ""

	deps, cleanup, err := BuildDependencies(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer cleanup()

	if err := deps.Processor.Process(ctx, jobID); err != nil {
		return nil, fmt.Errorf("failed to process job %d: %w", jobID, err)
	}
	return deps.Jobs.Get(ctx, jobID)
}
