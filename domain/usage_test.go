package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUsageStatistics_Apply(t *testing.T) {
	t.Run("running average matches arithmetic mean", func(t *testing.T) {
		samples := []float64{120, 80, 455.5, 3, 1000, 250, 17.25}
		var stats UsageStatistics
		sum := 0.0
		for _, s := range samples {
			stats = stats.Apply(UsageSample{ProcessingTimeMs: s, Success: true})
			sum += s
		}

		assert.Equal(t, int64(len(samples)), stats.TotalRequests)
		assert.InDelta(t, sum/float64(len(samples)), stats.AvgProcessingTimeMs, 1e-9)
		assert.Equal(t, 1000.0, stats.MaxProcessingTimeMs)
	})

	t.Run("missing tokens and cost add zero", func(t *testing.T) {
		tokens := 40
		cost := 0.5
		stats := UsageStatistics{}.
			Apply(UsageSample{ProcessingTimeMs: 10, Tokens: &tokens, Cost: &cost, Success: true}).
			Apply(UsageSample{ProcessingTimeMs: 20, Success: false})

		assert.Equal(t, int64(40), stats.TotalTokensProcessed)
		assert.Equal(t, 0.5, stats.APICost)
		assert.Equal(t, int64(1), stats.SuccessfulRequests)
		assert.Equal(t, int64(1), stats.FailedRequests)
	})
}

func TestHourBucket(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	day, hour := HourBucket(time.Date(2026, 5, 2, 3, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), day)
	assert.Equal(t, 18, hour)
}
