package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts dispatch outcomes and per-channel deliveries.
type Metrics struct {
	Dispatched *prometheus.CounterVec
	Deliveries *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Dispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordergate_notifications_dispatched_total",
			Help: "Notifications processed by outcome",
		}, []string{"outcome"}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordergate_notifications_deliveries_total",
			Help: "Channel delivery attempts by result",
		}, []string{"channel", "result"}),
	}
}

func (m *Metrics) dispatched(outcome Outcome) {
	if m == nil {
		return
	}
	m.Dispatched.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) delivery(channel string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Deliveries.WithLabelValues(channel, result).Inc()
}
