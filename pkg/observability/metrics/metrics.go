package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the gating cascade. The in-process counters that
// the orchestrator exposes through its stats snapshot are kept separately in
// pkg/gating; these collectors are the surface scraped by the embedding
// service.
var (
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oraclegate",
		Subsystem: "gating",
		Name:      "decisions_total",
		Help:      "Gating decisions by terminal stage and reason code",
	}, []string{"stage", "reason"})

	OracleCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oraclegate",
		Subsystem: "gating",
		Name:      "oracle_calls_total",
		Help:      "Decisions that resolved to calling the oracle",
	})

	DecisionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oraclegate",
		Subsystem: "gating",
		Name:      "decision_latency_seconds",
		Help:      "End-to-end latency of a single cascade evaluation",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
	})

	NonconformityScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oraclegate",
		Subsystem: "scoring",
		Name:      "nonconformity_score",
		Help:      "Distribution of nonconformity scores at the threshold stage",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oraclegate",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Verdict cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oraclegate",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Verdict cache misses, including TTL-expired entries",
	})

	CacheEvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oraclegate",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Cache evictions by cause (ttl, overflow)",
	}, []string{"cause"})

	CalibrationThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "oraclegate",
		Subsystem: "calibration",
		Name:      "threshold",
		Help:      "Active nonconformity skip threshold (tau)",
	})

	HardSkipMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oraclegate",
		Subsystem: "rules",
		Name:      "hard_skip_matches_total",
		Help:      "Hard-skip and anti-skip rule matches by rule category",
	}, []string{"category"})
)

// RecordDecision updates the decision counters for one terminal decision.
func RecordDecision(stage, reason string, callOracle bool) {
	DecisionsTotal.WithLabelValues(stage, reason).Inc()
	if callOracle {
		OracleCallsTotal.Inc()
	}
}

// RecordDecisionLatency observes one cascade evaluation duration in seconds.
func RecordDecisionLatency(seconds float64) {
	DecisionLatency.Observe(seconds)
}
