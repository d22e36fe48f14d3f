package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadConfig builds the configuration from defaults, an optional .env file
// and overrides provided via environment variables.
func LoadConfig() (*Config, error) {
	loadDotEnv()

	config := defaultConfig()

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// loadDotEnv loads the first env file found. Variables already present in the
// environment win over the file.
func loadDotEnv() {
	paths := []string{".env"}
	if p := os.Getenv("ENV_FILE"); p != "" {
		paths = append([]string{p}, paths...)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func loadFromEnv(config *Config) error {
	if err := loadServerConfig(&config.Server); err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}

	if err := loadDatabaseConfig(&config.Database); err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	if err := loadRedisConfig(&config.Redis); err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}

	if err := loadSummarizerConfig(&config.Summarizer); err != nil {
		return fmt.Errorf("failed to load summarizer config: %w", err)
	}

	if err := loadProcessorConfig(&config.Processor); err != nil {
		return fmt.Errorf("failed to load processor config: %w", err)
	}

	if err := loadWorkerConfig(&config.Worker); err != nil {
		return fmt.Errorf("failed to load worker config: %w", err)
	}

	if err := loadArchiveConfig(&config.Archive); err != nil {
		return fmt.Errorf("failed to load archive config: %w", err)
	}

	loadAuthConfig(&config.Auth)

	if err := loadCreditsConfig(&config.Credits); err != nil {
		return fmt.Errorf("failed to load credits config: %w", err)
	}

	if profile := os.Getenv("SCHEMA_PROFILE"); profile != "" {
		config.Schema.Profile = SchemaProfile(profile)
	}

	return nil
}

func loadServerConfig(cfg *ServerConfig) error {
	var err error

	if cfg.Port, err = parseIntEnv("SERVER_PORT", cfg.Port); err != nil {
		return err
	}

	if cfg.ShutdownTimeout, err = parseDurationEnv("SERVER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}

	if cfg.ReadTimeout, err = parseDurationEnv("SERVER_READ_TIMEOUT", cfg.ReadTimeout); err != nil {
		return err
	}

	if cfg.WriteTimeout, err = parseDurationEnv("SERVER_WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return err
	}

	return nil
}

func loadDatabaseConfig(cfg *DatabaseConfig) error {
	var err error

	cfg.Host = stringEnv("DB_HOST", cfg.Host)
	cfg.User = stringEnv("DB_USER", cfg.User)
	cfg.Password = stringEnv("DB_PASSWORD", cfg.Password)
	cfg.Name = stringEnv("DB_NAME", cfg.Name)
	cfg.SSLMode = stringEnv("DB_SSL_MODE", cfg.SSLMode)

	if cfg.Port, err = parseIntEnv("DB_PORT", cfg.Port); err != nil {
		return err
	}

	maxConns, err := parseIntEnv("DB_MAX_CONNS", int(cfg.MaxConns))
	if err != nil {
		return err
	}
	cfg.MaxConns = int32(maxConns)

	minConns, err := parseIntEnv("DB_MIN_CONNS", int(cfg.MinConns))
	if err != nil {
		return err
	}
	cfg.MinConns = int32(minConns)

	if cfg.MaxConnLifetime, err = parseDurationEnv("DB_MAX_CONN_LIFETIME", cfg.MaxConnLifetime); err != nil {
		return err
	}

	if cfg.MaxConnIdleTime, err = parseDurationEnv("DB_MAX_CONN_IDLE_TIME", cfg.MaxConnIdleTime); err != nil {
		return err
	}

	return nil
}

func loadRedisConfig(cfg *RedisConfig) error {
	var err error

	cfg.URL = stringEnv("REDIS_URL", cfg.URL)
	cfg.StreamKey = stringEnv("REDIS_STREAM_KEY", cfg.StreamKey)
	cfg.DLQStreamKey = stringEnv("REDIS_DLQ_STREAM_KEY", cfg.DLQStreamKey)
	cfg.GroupName = stringEnv("REDIS_GROUP_NAME", cfg.GroupName)
	cfg.ConsumerName = stringEnv("REDIS_CONSUMER_NAME", cfg.ConsumerName)

	if cfg.BlockTimeout, err = parseDurationEnv("REDIS_BLOCK_TIMEOUT", cfg.BlockTimeout); err != nil {
		return err
	}

	maxDeliveries, err := parseIntEnv("QUEUE_MAX_DELIVERIES", int(cfg.MaxDeliveries))
	if err != nil {
		return err
	}
	cfg.MaxDeliveries = int64(maxDeliveries)

	return nil
}

func loadSummarizerConfig(cfg *SummarizerConfig) error {
	var err error

	cfg.APIURL = stringEnv("HUGGINGFACE_API_URL", cfg.APIURL)
	cfg.APIKey = stringEnv("HUGGINGFACE_API_KEY", cfg.APIKey)
	cfg.DefaultModel = stringEnv("SUMMARIZER_DEFAULT_MODEL", cfg.DefaultModel)

	if cfg.Timeout, err = parseDurationEnv("SUMMARIZER_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	if cfg.RetryCount, err = parseIntEnv("SUMMARIZER_RETRY_COUNT", cfg.RetryCount); err != nil {
		return err
	}

	if cfg.RetryWait, err = parseDurationEnv("SUMMARIZER_RETRY_WAIT", cfg.RetryWait); err != nil {
		return err
	}

	if cfg.RateLimit, err = parseFloatEnv("SUMMARIZER_RATE_LIMIT", cfg.RateLimit); err != nil {
		return err
	}

	if cfg.CircuitThreshold, err = parseIntEnv("SUMMARIZER_CIRCUIT_THRESHOLD", cfg.CircuitThreshold); err != nil {
		return err
	}

	if cfg.CircuitTimeout, err = parseDurationEnv("SUMMARIZER_CIRCUIT_TIMEOUT", cfg.CircuitTimeout); err != nil {
		return err
	}

	return nil
}

func loadProcessorConfig(cfg *ProcessorConfig) error {
	var err error

	if cfg.ProcessDirectly, err = parseBoolEnv("PROCESS_DIRECTLY", cfg.ProcessDirectly); err != nil {
		return err
	}

	if cfg.MaxRetries, err = parseIntEnv("PROCESSOR_MAX_RETRIES", cfg.MaxRetries); err != nil {
		return err
	}

	if cfg.RetryBaseDelay, err = parseDurationEnv("PROCESSOR_RETRY_BASE_DELAY", cfg.RetryBaseDelay); err != nil {
		return err
	}

	if cfg.CostPer1KTokens, err = parseFloatEnv("COST_PER_1K_TOKENS", cfg.CostPer1KTokens); err != nil {
		return err
	}

	if cfg.HardTimeout, err = parseDurationEnv("JOB_HARD_TIMEOUT", cfg.HardTimeout); err != nil {
		return err
	}

	return nil
}

func loadWorkerConfig(cfg *WorkerConfig) error {
	var err error

	if cfg.Count, err = parseIntEnv("MAX_WORKERS", cfg.Count); err != nil {
		return err
	}

	cfg.ReaperSchedule = stringEnv("REAPER_SCHEDULE", cfg.ReaperSchedule)

	if cfg.ReaperBatchSize, err = parseIntEnv("REAPER_BATCH_SIZE", cfg.ReaperBatchSize); err != nil {
		return err
	}

	if cfg.GaugeInterval, err = parseDurationEnv("WORKER_GAUGE_INTERVAL", cfg.GaugeInterval); err != nil {
		return err
	}

	return nil
}

func loadArchiveConfig(cfg *ArchiveConfig) error {
	var err error

	cfg.Bucket = stringEnv("S3_BUCKET_NAME", cfg.Bucket)
	cfg.Region = stringEnv("AWS_REGION", cfg.Region)
	cfg.AccessKeyID = stringEnv("AWS_ACCESS_KEY_ID", cfg.AccessKeyID)
	cfg.SecretAccessKey = stringEnv("AWS_SECRET_ACCESS_KEY", cfg.SecretAccessKey)
	cfg.Endpoint = stringEnv("S3_ENDPOINT", cfg.Endpoint)

	if cfg.UsePathStyle, err = parseBoolEnv("S3_USE_PATH_STYLE", cfg.UsePathStyle); err != nil {
		return err
	}

	if cfg.PresignTTL, err = parseDurationEnv("S3_PRESIGN_TTL", cfg.PresignTTL); err != nil {
		return err
	}

	if cfg.PresignCacheSize, err = parseIntEnv("S3_PRESIGN_CACHE_SIZE", cfg.PresignCacheSize); err != nil {
		return err
	}

	return nil
}

func loadAuthConfig(cfg *AuthConfig) {
	cfg.JWTSecret = stringEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.Issuer = stringEnv("JWT_ISSUER", cfg.Issuer)
}

func loadCreditsConfig(cfg *CreditsConfig) error {
	var err error

	if cfg.Default, err = parseIntEnv("DEFAULT_CREDITS", cfg.Default); err != nil {
		return err
	}

	return nil
}

func stringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return d, nil
	}
	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return i, nil
	}
	return defaultValue, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return b, nil
	}
	return defaultValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return f, nil
	}
	return defaultValue, nil
}
