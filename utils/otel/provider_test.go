package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		t.Setenv("OTEL_SERVICE_NAME", "")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
		t.Setenv("OTEL_ENABLED", "")

		cfg := ConfigFromEnv()

		assert.Equal(t, "summarease-worker", cfg.ServiceName)
		assert.Equal(t, "http://localhost:4318", cfg.OTLPEndpoint)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, 0.1, cfg.SampleRatio)
	})

	t.Run("custom values", func(t *testing.T) {
		t.Setenv("OTEL_SERVICE_NAME", "test-service")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel:4318")
		t.Setenv("OTEL_ENABLED", "false")
		t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "1")

		cfg := ConfigFromEnv()

		assert.Equal(t, "test-service", cfg.ServiceName)
		assert.Equal(t, "http://otel:4318", cfg.OTLPEndpoint)
		assert.False(t, cfg.Enabled)
		assert.Equal(t, 1.0, cfg.SampleRatio)
	})

	t.Run("out of range ratio keeps default", func(t *testing.T) {
		t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "3")
		assert.Equal(t, 0.1, ConfigFromEnv().SampleRatio)
	})
}

func TestInitProvider_Disabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
