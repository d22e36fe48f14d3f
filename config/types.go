package config

import (
	"fmt"
	"time"
)

// Config aggregates all service configuration blocks.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Redis      RedisConfig      `json:"redis"`
	Summarizer SummarizerConfig `json:"summarizer"`
	Processor  ProcessorConfig  `json:"processor"`
	Worker     WorkerConfig     `json:"worker"`
	Archive    ArchiveConfig    `json:"archive"`
	Auth       AuthConfig       `json:"auth"`
	Credits    CreditsConfig    `json:"credits"`
	Schema     SchemaConfig     `json:"schema"`
}

// HTTPWriteTimeout is the server write timeout. A submission processed
// inline holds its response until the job settles, so the configured value
// is raised to cover InlineBound plus time to write the reply.
func (c *Config) HTTPWriteTimeout() time.Duration {
	return max(c.Server.WriteTimeout, c.Processor.InlineBound()+inlineReplyMargin)
}

const inlineReplyMargin = 15 * time.Second

type ServerConfig struct {
	Port            int           `json:"port" env:"SERVER_PORT" default:"9200"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
}

type DatabaseConfig struct {
	Host            string        `json:"host" env:"DB_HOST" default:"localhost"`
	Port            int           `json:"port" env:"DB_PORT" default:"5432"`
	User            string        `json:"user" env:"DB_USER" default:"summarease"`
	Password        string        `json:"-" env:"DB_PASSWORD" default:"summarease"`
	Name            string        `json:"name" env:"DB_NAME" default:"summarease"`
	SSLMode         string        `json:"ssl_mode" env:"DB_SSL_MODE" default:"prefer"`
	MaxConns        int32         `json:"max_conns" env:"DB_MAX_CONNS" default:"10"`
	MinConns        int32         `json:"min_conns" env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `json:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `json:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ConnectionString builds the keyword/value DSN understood by pgxpool.ParseConfig.
func (dc *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d pool_min_conns=%d pool_max_conn_lifetime=%s pool_max_conn_idle_time=%s",
		dc.Host, dc.Port, dc.User, dc.Password, dc.Name, dc.SSLMode,
		dc.MaxConns, dc.MinConns, dc.MaxConnLifetime, dc.MaxConnIdleTime,
	)
}

// RedisConfig configures the work queue. An empty URL disables the queue and
// the dispatcher processes jobs inline.
type RedisConfig struct {
	URL           string        `json:"url" env:"REDIS_URL" default:""`
	StreamKey     string        `json:"stream_key" env:"REDIS_STREAM_KEY" default:"summarease:jobs"`
	DLQStreamKey  string        `json:"dlq_stream_key" env:"REDIS_DLQ_STREAM_KEY" default:"summarease:jobs:dlq"`
	GroupName     string        `json:"group_name" env:"REDIS_GROUP_NAME" default:"summary-workers"`
	ConsumerName  string        `json:"consumer_name" env:"REDIS_CONSUMER_NAME" default:""`
	BlockTimeout  time.Duration `json:"block_timeout" env:"REDIS_BLOCK_TIMEOUT" default:"5s"`
	MaxDeliveries int64         `json:"max_deliveries" env:"QUEUE_MAX_DELIVERIES" default:"5"`
}

type SummarizerConfig struct {
	APIURL           string        `json:"api_url" env:"HUGGINGFACE_API_URL" default:"https://api-inference.huggingface.co/models"`
	APIKey           string        `json:"-" env:"HUGGINGFACE_API_KEY" default:""`
	DefaultModel     string        `json:"default_model" env:"SUMMARIZER_DEFAULT_MODEL" default:"bart-cnn"`
	Timeout          time.Duration `json:"timeout" env:"SUMMARIZER_TIMEOUT" default:"60s"`
	RetryCount       int           `json:"retry_count" env:"SUMMARIZER_RETRY_COUNT" default:"3"`
	RetryWait        time.Duration `json:"retry_wait" env:"SUMMARIZER_RETRY_WAIT" default:"20s"`
	RateLimit        float64       `json:"rate_limit" env:"SUMMARIZER_RATE_LIMIT" default:"5"`
	CircuitThreshold int           `json:"circuit_threshold" env:"SUMMARIZER_CIRCUIT_THRESHOLD" default:"5"`
	CircuitTimeout   time.Duration `json:"circuit_timeout" env:"SUMMARIZER_CIRCUIT_TIMEOUT" default:"60s"`
}

type ProcessorConfig struct {
	ProcessDirectly bool          `json:"process_directly" env:"PROCESS_DIRECTLY" default:"false"`
	MaxRetries      int           `json:"max_retries" env:"PROCESSOR_MAX_RETRIES" default:"3"`
	RetryBaseDelay  time.Duration `json:"retry_base_delay" env:"PROCESSOR_RETRY_BASE_DELAY" default:"5s"`
	CostPer1KTokens float64       `json:"cost_per_1k_tokens" env:"COST_PER_1K_TOKENS" default:"0.0002"`
	HardTimeout     time.Duration `json:"hard_timeout" env:"JOB_HARD_TIMEOUT" default:"10m"`
}

// FinalizeTimeout bounds the forced failure that follows a hard timeout.
const FinalizeTimeout = 30 * time.Second

// claimMargin covers the ack and the queue round trip after a job settles.
const claimMargin = 30 * time.Second

// InlineBound is the longest a synchronous Process call can take: the hard
// timeout plus the forced failure that may follow it.
func (c ProcessorConfig) InlineBound() time.Duration {
	return c.HardTimeout + FinalizeTimeout
}

// StaleAfter is how long a job may stay claimed before another worker or
// the reaper takes it over. The owner has settled the job by then, forced
// failure included.
func (c ProcessorConfig) StaleAfter() time.Duration {
	return c.HardTimeout + FinalizeTimeout + claimMargin
}

type WorkerConfig struct {
	Count           int           `json:"count" env:"MAX_WORKERS" default:"4"`
	ReaperSchedule  string        `json:"reaper_schedule" env:"REAPER_SCHEDULE" default:"@every 1m"`
	ReaperBatchSize int           `json:"reaper_batch_size" env:"REAPER_BATCH_SIZE" default:"50"`
	GaugeInterval   time.Duration `json:"gauge_interval" env:"WORKER_GAUGE_INTERVAL" default:"30s"`
}

// ArchiveConfig configures S3 archival. An empty bucket disables archival.
type ArchiveConfig struct {
	Bucket           string        `json:"bucket" env:"S3_BUCKET_NAME" default:""`
	Region           string        `json:"region" env:"AWS_REGION" default:"us-east-1"`
	AccessKeyID      string        `json:"-" env:"AWS_ACCESS_KEY_ID" default:""`
	SecretAccessKey  string        `json:"-" env:"AWS_SECRET_ACCESS_KEY" default:""`
	Endpoint         string        `json:"endpoint" env:"S3_ENDPOINT" default:""`
	UsePathStyle     bool          `json:"use_path_style" env:"S3_USE_PATH_STYLE" default:"false"`
	PresignTTL       time.Duration `json:"presign_ttl" env:"S3_PRESIGN_TTL" default:"1h"`
	PresignCacheSize int           `json:"presign_cache_size" env:"S3_PRESIGN_CACHE_SIZE" default:"1024"`
}

// Enabled reports whether a bucket is configured.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

type AuthConfig struct {
	JWTSecret string `json:"-" env:"JWT_SECRET" default:""`
	Issuer    string `json:"issuer" env:"JWT_ISSUER" default:"summarease"`
}

type CreditsConfig struct {
	Default int `json:"default" env:"DEFAULT_CREDITS" default:"10"`
}

// SchemaProfile selects which optional job columns the store reads and writes.
type SchemaProfile string

const (
	SchemaProfileFull    SchemaProfile = "full"
	SchemaProfileReduced SchemaProfile = "reduced"
)

type SchemaConfig struct {
	Profile SchemaProfile `json:"profile" env:"SCHEMA_PROFILE" default:"full"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            9200,
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "summarease",
			Password:        "summarease",
			Name:            "summarease",
			SSLMode:         "prefer",
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			StreamKey:     "summarease:jobs",
			DLQStreamKey:  "summarease:jobs:dlq",
			GroupName:     "summary-workers",
			BlockTimeout:  5 * time.Second,
			MaxDeliveries: 5,
		},
		Summarizer: SummarizerConfig{
			APIURL:           "https://api-inference.huggingface.co/models",
			DefaultModel:     "bart-cnn",
			Timeout:          60 * time.Second,
			RetryCount:       3,
			RetryWait:        20 * time.Second,
			RateLimit:        5,
			CircuitThreshold: 5,
			CircuitTimeout:   60 * time.Second,
		},
		Processor: ProcessorConfig{
			MaxRetries:      3,
			RetryBaseDelay:  5 * time.Second,
			CostPer1KTokens: 0.0002,
			HardTimeout:     10 * time.Minute,
		},
		Worker: WorkerConfig{
			Count:           4,
			ReaperSchedule:  "@every 1m",
			ReaperBatchSize: 50,
			GaugeInterval:   30 * time.Second,
		},
		Archive: ArchiveConfig{
			Region:           "us-east-1",
			PresignTTL:       time.Hour,
			PresignCacheSize: 1024,
		},
		Auth: AuthConfig{
			Issuer: "summarease",
		},
		Credits: CreditsConfig{
			Default: 10,
		},
		Schema: SchemaConfig{
			Profile: SchemaProfileFull,
		},
	}
}
