// ABOUTME: This file provides the slog-based JSON logger shared by every component
// ABOUTME: Level names are lowercased and every record carries service and version
package logger

import (
	"io"
	"log/slog"
	"strings"
)

const serviceVersion = "1.0.0"

// UnifiedLogger wraps a configured *slog.Logger. Correlation fields are read
// from the context of each call.
type UnifiedLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewUnifiedLoggerWithLevel creates a JSON logger writing to output.
func NewUnifiedLoggerWithLevel(output io.Writer, serviceName, level string) *UnifiedLogger {
	handler := slog.NewJSONHandler(output, handlerOptions(level))
	return newUnifiedLogger(newContextHandler(handler), serviceName)
}

// NewUnifiedLoggerWithOTel creates a logger that also exports records at or
// above config.ExportLevel through the OpenTelemetry log bridge when
// enableOTel is set.
func NewUnifiedLoggerWithOTel(output io.Writer, config *LoggerConfig, enableOTel bool) *UnifiedLogger {
	var handler slog.Handler = slog.NewJSONHandler(output, handlerOptions(config.Level))
	if enableOTel {
		handler = newOTelExportHandler(handler, config.ServiceName, ParseLevel(config.ExportLevel))
	}
	return newUnifiedLogger(newContextHandler(handler), config.ServiceName)
}

func newUnifiedLogger(handler slog.Handler, serviceName string) *UnifiedLogger {
	return &UnifiedLogger{
		logger:      slog.New(handler).With("service", serviceName, "version", serviceVersion),
		serviceName: serviceName,
	}
}

// Logger returns the underlying slog logger.
func (ul *UnifiedLogger) Logger() *slog.Logger {
	return ul.logger
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(level string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: false,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				// lowercase for the log forwarder
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.Attr{Key: "level", Value: slog.StringValue(strings.ToLower(lvl.String()))}
				}
			}
			return a
		},
	}
}
