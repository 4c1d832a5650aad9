package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Completed *prometheus.CounterVec
	Findings  *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Completed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_verifications_completed_total",
			Help: "Verifications completed by document kind and final status",
		}, []string{"kind", "status"}),
		Findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_verification_findings_total",
			Help: "Findings recorded on completed verifications",
		}, []string{"finding"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docverify_verification_duration_seconds",
			Help:    "Wall time from submission to terminal status",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveCompleted(kind, status string, findings []string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Completed.WithLabelValues(kind, status).Inc()
	for _, f := range findings {
		m.Findings.WithLabelValues(f).Inc()
	}
	m.Duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
