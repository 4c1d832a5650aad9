package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Searches *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_scheme_searches_total",
			Help: "Scheme catalog searches, by whether any scheme matched",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementSearches(matched bool) {
	if m == nil {
		return
	}
	result := "empty"
	if matched {
		result = "matched"
	}
	m.Searches.WithLabelValues(result).Inc()
}
