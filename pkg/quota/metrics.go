package quota

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for quota checks.
type Metrics struct {
	// Check outcomes
	checks  *prometheus.CounterVec
	denials *prometheus.CounterVec

	// Burst pool
	burstServed  prometheus.Counter
	burstCredits *prometheus.GaugeVec

	// Session registry
	activeSessions prometheus.Gauge

	// Check latency
	checkDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance with Prometheus collectors
// registered on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		checks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_quota_checks_total",
				Help: "Total number of quota checks performed",
			},
			[]string{"session", "result"},
		),

		denials: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_quota_denials_total",
				Help: "Total number of quota denials",
			},
			[]string{"session", "limit_type", "window"},
		),

		burstServed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ganymede_quota_burst_served_total",
				Help: "Total number of requests admitted via burst credits",
			},
		),

		burstCredits: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ganymede_quota_burst_credits",
				Help: "Burst credits currently available",
			},
			[]string{"session"},
		),

		activeSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ganymede_quota_active_sessions",
				Help: "Number of session limiters currently tracked",
			},
		),

		checkDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ganymede_quota_check_duration_seconds",
				Help:    "Duration of quota checks in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),
	}
}

// RecordCheck records the outcome of a single quota check.
func (m *Metrics) RecordCheck(session string, decision *Decision) {
	result := "allowed"
	if !decision.Allowed {
		result = "denied"
	}
	m.checks.WithLabelValues(session, result).Inc()

	if !decision.Allowed {
		m.denials.WithLabelValues(session, string(decision.LimitType), string(decision.Window)).Inc()
	}
	if decision.ServedByBurst {
		m.burstServed.Inc()
	}
}

// UpdateBurstCredits updates the available burst credits for a session.
func (m *Metrics) UpdateBurstCredits(session string, credits int64) {
	m.burstCredits.WithLabelValues(session).Set(float64(credits))
}

// UpdateActiveSessions updates the tracked session count.
func (m *Metrics) UpdateActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}

// RecordCheckDuration records the duration of a check in seconds.
func (m *Metrics) RecordCheckDuration(seconds float64) {
	m.checkDuration.Observe(seconds)
}
