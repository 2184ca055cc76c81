// Package metrics exposes Prometheus counters for the response cache and the
// search orchestrator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kotoba"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheLookups   *prometheus.CounterVec
	cacheEvictions prometheus.Counter
	cacheWriteFail prometheus.Counter
	fetches        *prometheus.CounterVec
	staleResponses *prometheus.CounterVec
	transitions    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid global registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "response_cache",
				Name:      "lookups_total",
				Help:      "Response cache lookups by result (hit, miss, expired).",
			},
			[]string{"result"},
		),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "response_cache",
			Name:      "evictions_total",
			Help:      "Entries evicted to relieve storage quota pressure.",
		}),
		cacheWriteFail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "response_cache",
			Name:      "write_failures_total",
			Help:      "Cache writes abandoned because storage stayed full or unavailable.",
		}),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_fetches_total",
				Help:      "Search API fetches by endpoint and outcome (ok, error, cached).",
			},
			[]string{"endpoint", "outcome"},
		),
		staleResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "stale_responses_total",
				Help:      "Responses discarded because their search was superseded.",
			},
			[]string{"outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "transitions_total",
				Help:      "View state transitions by target state.",
			},
			[]string{"state"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.cacheLookups,
			m.cacheEvictions,
			m.cacheWriteFail,
			m.fetches,
			m.staleResponses,
			m.transitions,
		)
	}
	return m
}

// CacheLookup records a response cache lookup result: "hit", "miss" or "expired".
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// CacheEvicted records n evicted entries.
func (m *Metrics) CacheEvicted(n int) {
	if m == nil {
		return
	}
	m.cacheEvictions.Add(float64(n))
}

// CacheWriteFailed records an abandoned cache write.
func (m *Metrics) CacheWriteFailed() {
	if m == nil {
		return
	}
	m.cacheWriteFail.Inc()
}

// Fetch records a fetch for endpoint with outcome "ok", "error" or "cached".
func (m *Metrics) Fetch(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(endpoint, outcome).Inc()
}

// StaleResponse records a discarded response with outcome "ok" or "error".
func (m *Metrics) StaleResponse(outcome string) {
	if m == nil {
		return
	}
	m.staleResponses.WithLabelValues(outcome).Inc()
}

// Transition records a view state transition.
func (m *Metrics) Transition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}
