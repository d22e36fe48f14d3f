// ABOUTME: This file provides context keys and loader for structured logging
// ABOUTME: Request IDs and job IDs ride on the context into every log line
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	JobIDKey     ContextKey = "job_id"
)

// LoggerConfig is read from LOG_LEVEL, LOG_EXPORT_LEVEL and SERVICE_NAME.
// ExportLevel is the lowest level shipped through OTel.
type LoggerConfig struct {
	Level       string
	ExportLevel string
	ServiceName string
}

func LoadLoggerConfigFromEnv() *LoggerConfig {
	return &LoggerConfig{
		Level:       getEnvOrDefault("LOG_LEVEL", "info"),
		ExportLevel: getEnvOrDefault("LOG_EXPORT_LEVEL", "info"),
		ServiceName: getEnvOrDefault("SERVICE_NAME", "summarease-worker"),
	}
}

// New builds the process logger. With enableOTel, records are also exported
// through the OTel log provider installed by utils/otel.
func New(config *LoggerConfig, enableOTel bool) *slog.Logger {
	return NewWithWriter(os.Stdout, config, enableOTel)
}

func NewWithWriter(output io.Writer, config *LoggerConfig, enableOTel bool) *slog.Logger {
	return NewUnifiedLoggerWithOTel(output, config, enableOTel).Logger()
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithJobID tags every record logged under ctx with the job id.
func WithJobID(ctx context.Context, jobID int64) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

// RequestIDFromContext returns the request ID stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func JobIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(JobIDKey).(int64)
	return id, ok
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
