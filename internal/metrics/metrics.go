package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for AnalysesTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	AnalysesTotal     *prometheus.CounterVec // by outcome
	AnalysisDuration  prometheus.Histogram
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	EquilibriumMethod *prometheus.CounterVec // by solver method
	AdvisoryFallbacks prometheus.Counter
}

// NewMetrics creates and registers the engine metrics. Pass a fresh
// registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strategix_analyses_total",
			Help: "Analyses run, by outcome",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "strategix_analysis_duration_seconds",
			Help:    "Wall time of uncached analyses",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strategix_report_cache_hits_total",
			Help: "Analyses served from the report cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strategix_report_cache_misses_total",
			Help: "Analyses computed because the report cache missed",
		}),
		EquilibriumMethod: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strategix_equilibrium_method_total",
			Help: "Equilibria solved, by method",
		}, []string{"method"}),
		AdvisoryFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strategix_advisory_fallbacks_total",
			Help: "Advisory requests answered by the deterministic fallback",
		}),
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.CacheHits,
		m.CacheMisses,
		m.EquilibriumMethod,
		m.AdvisoryFallbacks,
	)
	return m
}
