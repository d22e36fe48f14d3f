// Package metrics provides Prometheus metrics for the summarization workers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "summarease"

var (
	// JobsProcessedTotal counts terminal job outcomes.
	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Total number of jobs that reached a terminal status",
		},
		[]string{"status", "model"},
	)

	// JobDuration measures end-to-end processing time of one job.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of job processing in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	// SummarizerAttempts counts remote summarization attempts.
	SummarizerAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summarizer_attempts_total",
			Help:      "Total number of calls to the inference API",
		},
		[]string{"model", "result"},
	)

	// ProcessorRetriesTotal counts processor-level retries after infrastructure faults.
	ProcessorRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processor_retries_total",
			Help:      "Total number of job re-runs after an infrastructure fault",
		},
	)

	// DispatchTotal counts dispatch decisions.
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Total number of dispatched jobs by mode",
		},
		[]string{"mode"},
	)

	// ErrorsTotal counts errors by type.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"operation", "error_type"},
	)

	// WorkersBusy tracks jobs currently in flight.
	WorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_busy",
			Help:      "Number of jobs currently being processed",
		},
	)

	// QueueDepth tracks unacknowledged queue messages.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of queue messages not yet acknowledged",
		},
	)
)

// RecordJob records a terminal job outcome.
func RecordJob(status, model string, seconds float64) {
	JobsProcessedTotal.WithLabelValues(status, model).Inc()
	JobDuration.WithLabelValues(status).Observe(seconds)
}

// RecordAttempt records one inference API attempt.
func RecordAttempt(model, result string) {
	SummarizerAttempts.WithLabelValues(model, result).Inc()
}

// RecordDispatch records whether a job went through the queue or inline.
func RecordDispatch(mode string) {
	DispatchTotal.WithLabelValues(mode).Inc()
}

// RecordError records an error.
func RecordError(operation, errorType string) {
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}
