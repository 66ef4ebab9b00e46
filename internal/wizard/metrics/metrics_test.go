package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncDuplicateQuery("sent")
	m.IncDuplicateQuery("sent")
	m.IncDuplicateQuery("stale")
	m.IncClassification("exact")
	m.IncSubmission("add", "created")
	m.IncStepTransition("next", "blocked")
	m.IncSessionClosed("dismiss")
	m.ObserveDuplicateLatency(10 * time.Millisecond)
	m.ObserveSubmitLatency(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DuplicateQueries.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateQueries.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateClassifications.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("add", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepTransitions.WithLabelValues("next", "blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsClosed.WithLabelValues("dismiss")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncDuplicateQuery("sent")
		m.IncClassification("none")
		m.IncSubmission("edit", "failed")
		m.IncStepTransition("prev", "moved")
		m.IncSessionClosed("cancel")
		m.ObserveDuplicateLatency(time.Second)
		m.ObserveSubmitLatency(time.Second)
	})
}
