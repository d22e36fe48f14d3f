package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordJob(t *testing.T) {
	before := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("completed", "bart-cnn"))

	RecordJob("completed", "bart-cnn", 1.5)

	assert.Equal(t, before+1, testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("completed", "bart-cnn")))
}

func TestRecordDispatch(t *testing.T) {
	tests := map[string]struct {
		mode string
	}{
		"queue":    {mode: "queue"},
		"inline":   {mode: "inline"},
		"fallback": {mode: "fallback"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			before := testutil.ToFloat64(DispatchTotal.WithLabelValues(tc.mode))
			RecordDispatch(tc.mode)
			assert.Equal(t, before+1, testutil.ToFloat64(DispatchTotal.WithLabelValues(tc.mode)))
		})
	}
}

func TestRecordError(t *testing.T) {
	before := testutil.ToFloat64(ErrorsTotal.WithLabelValues("usage_record", "db"))
	RecordError("usage_record", "db")
	assert.Equal(t, before+1, testutil.ToFloat64(ErrorsTotal.WithLabelValues("usage_record", "db")))
}
