// Package metrics provides Prometheus metrics for certificate validation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the validation, rule and trust list collectors.
type Metrics struct {
	ValidationsTotal          *prometheus.CounterVec // by outcome
	ValidationDurationSeconds prometheus.Histogram

	RuleFailuresTotal *prometheus.CounterVec // by rule id
	RuleFaultsTotal   prometheus.Counter

	BundleCacheTotal  *prometheus.CounterVec // by bundle kind and hit/miss
	TrustFetchesTotal *prometheus.CounterVec // by source and result
	TrustBreakerOpen  prometheus.Gauge
}

// New registers the collectors with the default registry. Call it once per process.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg, for tests.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ValidationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "greenlight_validations_total",
			Help: "Certificate validations by outcome",
		}, []string{"outcome"}),
		ValidationDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "greenlight_validation_duration_seconds",
			Help:    "End to end certificate validation latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RuleFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "greenlight_rule_failures_total",
			Help: "Business rule failures by rule identifier",
		}, []string{"rule_id"}),
		RuleFaultsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "greenlight_rule_faults_total",
			Help: "Business rules that could not be evaluated",
		}),
		BundleCacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "greenlight_bundle_cache_total",
			Help: "Parsed trust bundle cache lookups",
		}, []string{"kind", "result"}),
		TrustFetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "greenlight_trust_fetches_total",
			Help: "Trust list retrievals by source and result",
		}, []string{"source", "result"}),
		TrustBreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "greenlight_trust_breaker_open",
			Help: "1 while the trust list circuit breaker is open",
		}),
	}
}

func (m *Metrics) ObserveValidation(outcome string, elapsed time.Duration) {
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
	m.ValidationDurationSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementRuleFailure(ruleID string, fault bool) {
	m.RuleFailuresTotal.WithLabelValues(ruleID).Inc()
	if fault {
		m.RuleFaultsTotal.Inc()
	}
}

func (m *Metrics) RecordBundleCache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.BundleCacheTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordTrustFetch(source string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.TrustFetchesTotal.WithLabelValues(source, result).Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.TrustBreakerOpen.Set(1)
		return
	}
	m.TrustBreakerOpen.Set(0)
}
