package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"summarease/config"
	"summarease/consumer"
	"summarease/driver"
	"summarease/handler"
	"summarease/middleware"
	"summarease/repository"
	"summarease/service"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	Config *config.Config
	DBPool *pgxpool.Pool
	Redis  *redis.Client // nil in inline mode
	Logger *slog.Logger

	Jobs       repository.SummaryJobRepository
	Processor  *service.JobProcessor
	Submission *service.SubmissionService

	JobHandler     *handler.JobHandler
	HealthHandler  *handler.HealthHandler
	SummaryHandler *handler.SummaryHandler
	Auth           *middleware.JWTAuthMiddleware
}

// BuildDependencies constructs all application dependencies.
// Returns a cleanup function that should be deferred.
func BuildDependencies(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Dependencies, func(), error) {
	dbPool, err := driver.InitPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){dbPool.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Repositories
	jobRepo := repository.NewSummaryJobRepository(dbPool, cfg.Schema.Profile, log)
	usageRepo := repository.NewUsageRepository(dbPool, log)
	userRepo := repository.NewUserRepository(dbPool, cfg.Schema.Profile, log)

	// Summarization client
	registry, err := cfg.Summarizer.ModelRegistry()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to build model registry: %w", err)
	}
	api := driver.NewHuggingFaceAPI(&http.Client{}, cfg.Summarizer.APIKey, cfg.Summarizer.Timeout, log)
	client := service.NewSummarizationClient(api, registry, cfg.Summarizer, log)

	archiver, err := buildArchiver(ctx, cfg.Archive, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	usage := service.NewUsageRecorder(usageRepo, log)
	processor := service.NewJobProcessor(jobRepo, client, archiver, cfg.Processor, log)

	// Work queue. Interface values stay untyped nil in inline mode.
	var (
		redisClient *redis.Client
		queue       service.JobQueue
		queuePinger handler.Pinger
		workers     []handler.QueueWorker
	)
	if cfg.QueueEnabled() {
		redisClient, err = driver.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		stream := driver.NewRedisStreamDriver(redisClient, cfg.Redis.StreamKey)
		queue, queuePinger = stream, stream

		workers, err = buildWorkers(ctx, redisClient, cfg, processor, log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	dispatcher := service.NewDispatcher(queue, processor, log)
	submission := service.NewSubmissionService(userRepo, jobRepo, client, dispatcher, log)
	reaper := service.NewStaleJobReaper(jobRepo, processor, cfg.Processor, cfg.Worker.ReaperBatchSize, log)

	log.InfoContext(ctx, "dependencies built",
		"queue_enabled", queue != nil,
		"workers", len(workers),
		"archive_enabled", cfg.Archive.Enabled(),
		"schema_profile", cfg.Schema.Profile,
		"default_model", registry.Default().ID)

	return &Dependencies{
		Config:         cfg,
		DBPool:         dbPool,
		Redis:          redisClient,
		Logger:         log,
		Jobs:           jobRepo,
		Processor:      processor,
		Submission:     submission,
		JobHandler:     handler.NewJobHandler(workers, reaper.Run, usage, processor.Busy, queue, cfg.Worker, log),
		HealthHandler:  handler.NewHealthHandler(dbPool, queuePinger, client, log),
		SummaryHandler: handler.NewSummaryHandler(submission, archiver, usageRepo, log),
		Auth:           middleware.NewJWTAuthMiddleware(userRepo, cfg.Auth, log),
	}, cleanup, nil
}

func buildArchiver(ctx context.Context, cfg config.ArchiveConfig, log *slog.Logger) (*service.Archiver, error) {
	var store service.ArchiveStore = driver.DisabledArchive{}
	if cfg.Enabled() {
		s3Client, err := driver.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = driver.NewS3ArchiveDriver(s3Client, cfg.Bucket)
		log.InfoContext(ctx, "summary archival enabled", "bucket", cfg.Bucket, "region", cfg.Region)
	}
	return service.NewArchiver(store, cfg.PresignTTL, cfg.PresignCacheSize, log), nil
}

// buildWorkers creates one consumer per configured worker, all in the same
// group with distinct consumer names.
func buildWorkers(ctx context.Context, client *redis.Client, cfg *config.Config, runner service.JobRunner, log *slog.Logger) ([]handler.QueueWorker, error) {
	base := consumer.ConfigFrom(cfg.Redis, cfg.Processor)

	workers := make([]handler.QueueWorker, 0, cfg.Worker.Count)
	for i := range cfg.Worker.Count {
		c := consumer.NewConsumer(client, base.WithConsumerName(fmt.Sprintf("%s-%d", base.ConsumerName, i)), runner, log)
		if i == 0 {
			if err := c.EnsureGroup(ctx); err != nil {
				return nil, err
			}
		}
		workers = append(workers, c)
	}
	return workers, nil
}
