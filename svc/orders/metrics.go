package orders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transition results recorded in metrics.
const (
	resultOK        = "ok"
	resultInvalid   = "invalid"
	resultForbidden = "forbidden"
	resultConflict  = "conflict"
	resultError     = "error"
)

// Metrics counts order transitions by edge and result.
type Metrics struct {
	Transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ordergate_order_transitions_total",
			Help: "Order status transition attempts by source, target and result.",
		}, []string{"from", "to", "result"}),
	}
}

func (m *Metrics) observe(from, to, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to, result).Inc()
}
