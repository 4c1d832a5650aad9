package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Calls        *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	CacheHits    *prometheus.CounterVec
	CacheMisses  *prometheus.CounterVec
	BreakerOpen  prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_genai_calls_total",
			Help: "Model calls by flow and outcome category",
		}, []string{"flow", "outcome"}),
		CallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docverify_genai_call_duration_seconds",
			Help:    "Latency of model calls that reached the provider",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
		}, []string{"flow"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_genai_cache_hits_total",
			Help: "Flow results served from the cache",
		}, []string{"flow"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_genai_cache_misses_total",
			Help: "Flow results that required a model call",
		}, []string{"flow"}),
		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "docverify_genai_breaker_open",
			Help: "1 while the model circuit breaker rejects calls",
		}),
	}
}

func (m *Metrics) ObserveCall(flow, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(flow, outcome).Inc()
	m.CallDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementCacheHit(flow string) {
	if m != nil {
		m.CacheHits.WithLabelValues(flow).Inc()
	}
}

func (m *Metrics) IncrementCacheMiss(flow string) {
	if m != nil {
		m.CacheMisses.WithLabelValues(flow).Inc()
	}
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
