package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Port <= 0 || config.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", config.Database.Port)
	}

	if config.Database.MinConns > config.Database.MaxConns {
		return fmt.Errorf("database min conns (%d) exceeds max conns (%d)", config.Database.MinConns, config.Database.MaxConns)
	}

	if config.Redis.URL != "" {
		if config.Redis.StreamKey == "" || config.Redis.GroupName == "" {
			return fmt.Errorf("redis stream key and group name are required when REDIS_URL is set")
		}
		if config.Redis.MaxDeliveries <= 0 {
			return fmt.Errorf("queue max deliveries must be positive: %d", config.Redis.MaxDeliveries)
		}
	}

	if config.Summarizer.Timeout <= 0 {
		return fmt.Errorf("summarizer timeout must be positive: %v", config.Summarizer.Timeout)
	}

	if config.Summarizer.RetryCount <= 0 {
		return fmt.Errorf("summarizer retry count must be positive: %d", config.Summarizer.RetryCount)
	}

	if config.Summarizer.RetryWait < 0 {
		return fmt.Errorf("summarizer retry wait must be non-negative: %v", config.Summarizer.RetryWait)
	}

	if config.Summarizer.RateLimit <= 0 {
		return fmt.Errorf("summarizer rate limit must be positive: %f", config.Summarizer.RateLimit)
	}

	if _, err := config.Summarizer.ModelRegistry(); err != nil {
		return fmt.Errorf("invalid model registry: %w", err)
	}

	if config.Processor.MaxRetries < 0 {
		return fmt.Errorf("processor max retries must be non-negative: %d", config.Processor.MaxRetries)
	}

	if config.Processor.CostPer1KTokens < 0 {
		return fmt.Errorf("cost per 1k tokens must be non-negative: %f", config.Processor.CostPer1KTokens)
	}

	if config.Processor.HardTimeout <= config.Summarizer.Timeout {
		return fmt.Errorf("job hard timeout (%v) must exceed summarizer timeout (%v)", config.Processor.HardTimeout, config.Summarizer.Timeout)
	}

	if config.Worker.Count <= 0 {
		return fmt.Errorf("worker count must be positive: %d", config.Worker.Count)
	}

	if _, err := cron.ParseStandard(config.Worker.ReaperSchedule); err != nil {
		return fmt.Errorf("invalid reaper schedule %q: %w", config.Worker.ReaperSchedule, err)
	}

	if config.Archive.Enabled() && config.Archive.PresignTTL <= 0 {
		return fmt.Errorf("presign TTL must be positive: %v", config.Archive.PresignTTL)
	}

	if config.Credits.Default < 0 {
		return fmt.Errorf("default credits must be non-negative: %d", config.Credits.Default)
	}

	switch config.Schema.Profile {
	case SchemaProfileFull, SchemaProfileReduced:
	default:
		return fmt.Errorf("unknown schema profile: %s", config.Schema.Profile)
	}

	return nil
}
