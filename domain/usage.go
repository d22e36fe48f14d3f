package domain

import "time"

// UsageSample is one terminal job outcome as seen by usage accounting.
// Tokens and Cost are optional and count as zero when nil.
type UsageSample struct {
	ProcessingTimeMs float64
	Tokens           *int
	Cost             *float64
	Success          bool
}

// UsageStatistics is the aggregate row for one calendar hour.
type UsageStatistics struct {
	ID                     int64     `db:"id" json:"id"`
	Day                    time.Time `db:"day" json:"day"`
	Hour                   int       `db:"hour" json:"hour"`
	TotalRequests          int64     `db:"total_requests" json:"total_requests"`
	SuccessfulRequests     int64     `db:"successful_requests" json:"successful_requests"`
	FailedRequests         int64     `db:"failed_requests" json:"failed_requests"`
	AvgProcessingTimeMs    float64   `db:"avg_processing_time_ms" json:"avg_processing_time_ms"`
	MaxProcessingTimeMs    float64   `db:"max_processing_time_ms" json:"max_processing_time_ms"`
	TotalTokensProcessed   int64     `db:"total_tokens_processed" json:"total_tokens_processed"`
	APICost                float64   `db:"api_cost" json:"api_cost"`
	PeakConcurrentRequests int       `db:"peak_concurrent_requests" json:"peak_concurrent_requests"`
	QueueDepth             int64     `db:"queue_depth" json:"queue_depth"`
}

// Apply folds one sample into the aggregate. The running average uses the
// post-increment total so no per-sample history is needed.
func (u UsageStatistics) Apply(s UsageSample) UsageStatistics {
	u.TotalRequests++
	if s.Success {
		u.SuccessfulRequests++
	} else {
		u.FailedRequests++
	}

	n := float64(u.TotalRequests)
	u.AvgProcessingTimeMs = (u.AvgProcessingTimeMs*(n-1) + s.ProcessingTimeMs) / n
	if s.ProcessingTimeMs > u.MaxProcessingTimeMs {
		u.MaxProcessingTimeMs = s.ProcessingTimeMs
	}

	if s.Tokens != nil {
		u.TotalTokensProcessed += int64(*s.Tokens)
	}
	if s.Cost != nil {
		u.APICost += *s.Cost
	}
	return u
}

// HourBucket truncates t (in UTC) to the (day, hour) pair that keys a usage row.
func HourBucket(t time.Time) (time.Time, int) {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day, t.Hour()
}
