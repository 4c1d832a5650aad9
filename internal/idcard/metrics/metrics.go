package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CardsCreated       prometheus.Counter
	CardsDeleted       prometheus.Counter
	IDNumberCollisions prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CardsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "docverify_id_cards_created_total",
			Help: "Total number of reference ID cards created",
		}),
		CardsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "docverify_id_cards_deleted_total",
			Help: "Total number of reference ID cards deleted by their owner",
		}),
		IDNumberCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "docverify_id_number_collisions_total",
			Help: "Generated ID numbers rejected because they were already registered",
		}),
	}
}

func (m *Metrics) IncrementCardsCreated() {
	if m != nil {
		m.CardsCreated.Inc()
	}
}

func (m *Metrics) IncrementCardsDeleted() {
	if m != nil {
		m.CardsDeleted.Inc()
	}
}

func (m *Metrics) IncrementIDNumberCollisions() {
	if m != nil {
		m.IDNumberCollisions.Inc()
	}
}
