package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the fan-out layer.
type Metrics struct {
	DispatchesTotal *prometheus.CounterVec
	ChainCallsTotal *prometheus.CounterVec
	CallDuration    *prometheus.HistogramVec
	PartialFailures prometheus.Counter
}

// NewMetrics creates and registers the fan-out metrics.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "chainsearch"
	}

	return &Metrics{
		DispatchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "dispatches_total",
			Help:      "Fan-out dispatches by logical operation",
		}, []string{"operation"}),
		ChainCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "chain_calls_total",
			Help:      "Per-chain adapter call outcomes",
		}, []string{"chain", "outcome"}),
		CallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "call_duration_seconds",
			Help:      "Adapter call latency by chain",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chain"}),
		PartialFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "partial_failures_total",
			Help:      "Dispatches where at least one chain failed while others succeeded",
		}),
	}
}

func (m *Metrics) observeCall(chain string, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ChainCallsTotal.WithLabelValues(chain, outcome).Inc()
	m.CallDuration.WithLabelValues(chain).Observe(seconds)
}

func (m *Metrics) observeDispatch(operation string, failed, succeeded int) {
	if m == nil {
		return
	}
	m.DispatchesTotal.WithLabelValues(operation).Inc()
	if failed > 0 && succeeded > 0 {
		m.PartialFailures.Inc()
	}
}
