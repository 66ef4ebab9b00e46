package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for wizard sessions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Duplicate checks by outcome: sent, applied, stale, failed, skipped
	DuplicateQueries *prometheus.CounterVec

	// Applied classifications: none, similar, exact
	DuplicateClassifications *prometheus.CounterVec

	DuplicateLatency prometheus.Histogram

	// Submissions by mode (add, edit) and outcome
	Submissions *prometheus.CounterVec

	SubmitLatency prometheus.Histogram

	// Step moves by direction (next, prev) and result (moved, blocked)
	StepTransitions *prometheus.CounterVec

	// Sessions closed by reason
	SessionsClosed *prometheus.CounterVec
}

// New registers the wizard metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		DuplicateQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civreg_wizard_duplicate_queries_total",
			Help: "Duplicate checks by outcome",
		}, []string{"outcome"}),

		DuplicateClassifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civreg_wizard_duplicate_classifications_total",
			Help: "Duplicate classifications applied to sessions",
		}, []string{"classification"}),

		DuplicateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "civreg_wizard_duplicate_query_duration_seconds",
			Help:    "Duration of duplicate search calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civreg_wizard_submissions_total",
			Help: "Record submissions by mode and outcome",
		}, []string{"mode", "outcome"}),

		SubmitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "civreg_wizard_submit_duration_seconds",
			Help:    "Duration of create and update calls to the registry",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		StepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civreg_wizard_step_transitions_total",
			Help: "Step navigation attempts by direction and result",
		}, []string{"direction", "result"}),

		SessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civreg_wizard_sessions_closed_total",
			Help: "Closed wizard sessions by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncDuplicateQuery(outcome string) {
	if m != nil {
		m.DuplicateQueries.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncClassification(classification string) {
	if m != nil {
		m.DuplicateClassifications.WithLabelValues(classification).Inc()
	}
}

func (m *Metrics) ObserveDuplicateLatency(d time.Duration) {
	if m != nil {
		m.DuplicateLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncSubmission(mode, outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(mode, outcome).Inc()
	}
}

func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncStepTransition(direction, result string) {
	if m != nil {
		m.StepTransitions.WithLabelValues(direction, result).Inc()
	}
}

func (m *Metrics) IncSessionClosed(reason string) {
	if m != nil {
		m.SessionsClosed.WithLabelValues(reason).Inc()
	}
}
