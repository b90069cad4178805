package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the decision pipeline.
type Metrics struct {
	decisions          *prometheus.CounterVec
	oracleCalls        prometheus.Counter
	oracleCoalesced    prometheus.Counter
	oracleErrors       prometheus.Counter
	cacheWriteFailures prometheus.Counter
}

// NewMetrics creates the engine's counters and registers them on reg when
// it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pigeonhole",
			Name:      "decisions_total",
			Help:      "Categorization decisions by source",
		}, []string{"source"}),
		oracleCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pigeonhole",
			Name:      "oracle_calls_total",
			Help:      "Oracle gateway invocations, including coalesced attachments",
		}),
		oracleCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pigeonhole",
			Name:      "oracle_coalesced_total",
			Help:      "Oracle calls that attached to an in-flight request",
		}),
		oracleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pigeonhole",
			Name:      "oracle_errors_total",
			Help:      "Oracle calls that failed after retries",
		}),
		cacheWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pigeonhole",
			Name:      "cache_write_failures_total",
			Help:      "Cache write-backs that failed (never surfaced to callers)",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.decisions, m.oracleCalls, m.oracleCoalesced, m.oracleErrors, m.cacheWriteFailures)
	}

	return m
}

func (m *Metrics) recordDecision(source string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(source).Inc()
}
