package accesskit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of one Service.
type Metrics struct {
	Decisions      *prometheus.CounterVec
	DecisionErrors *prometheus.CounterVec
	Cycles         prometheus.Counter
	WalkDepth      prometheus.Histogram
	Transactions   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Authorization decisions by check and outcome",
			},
			[]string{"check", "outcome"},
		),
		DecisionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decision_errors_total",
				Help:      "Store failures that resolved to a denial",
			},
			[]string{"check"},
		),
		Cycles: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hierarchy_cycles_total",
				Help:      "Manager-chain walks aborted by the cycle guard",
			},
		),
		WalkDepth: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "hierarchy_walk_depth",
				Help:      "Steps taken by hierarchy walks",
				Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
			},
		),
		Transactions: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_duration_seconds",
				Help:      "Duration of administrative transactions by outcome",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) observeDecision(check string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.Decisions.WithLabelValues(check, outcome).Inc()
}

func (m *Metrics) observeError(check string) {
	if m == nil {
		return
	}
	m.DecisionErrors.WithLabelValues(check).Inc()
}

func (m *Metrics) observeCycle() {
	if m == nil {
		return
	}
	m.Cycles.Inc()
}

func (m *Metrics) observeTransaction(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "commit"
	if err != nil {
		outcome = "rollback"
	}
	m.Transactions.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) observeDepth(steps int) {
	if m == nil {
		return
	}
	m.WalkDepth.Observe(float64(steps))
}
