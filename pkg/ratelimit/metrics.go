package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts rate limit decisions per scope.
type Metrics struct {
	Allowed   *prometheus.CounterVec
	Throttled *prometheus.CounterVec
	Degraded  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Allowed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordergate_ratelimit_allowed_total",
			Help: "Attempts admitted by rate limiting",
		}, []string{"scope"}),
		Throttled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordergate_ratelimit_throttled_total",
			Help: "Attempts rejected because the bucket was exhausted",
		}, []string{"scope"}),
		Degraded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordergate_ratelimit_degraded_total",
			Help: "Decisions taken by fail policy because the counter store was unavailable",
		}, []string{"scope", "policy"}),
	}
}

func (m *Metrics) observe(res *Result, policy FailPolicy) {
	if m == nil || res == nil || res.Scope == "" {
		return
	}
	switch {
	case res.Degraded:
		m.Degraded.WithLabelValues(res.Scope, string(policy)).Inc()
	case res.Allowed:
		m.Allowed.WithLabelValues(res.Scope).Inc()
	default:
		m.Throttled.WithLabelValues(res.Scope).Inc()
	}
}
