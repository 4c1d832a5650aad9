package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Posted *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Posted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_doubts_posted_total",
			Help: "Community questions posted, by whether an answer was attached",
		}, []string{"answer_status"}),
	}
}

func (m *Metrics) IncrementPosted(answerStatus string) {
	if m != nil {
		m.Posted.WithLabelValues(answerStatus).Inc()
	}
}
