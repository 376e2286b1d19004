// Package prometheus implements the observability hooks with Prometheus
// counters and histograms.
package prometheus

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/updatecheck/pkg/observability"
)

const namespace = "updatecheck"

// Metrics implements ResolverHooks, RegistryHooks and CacheHooks.
type Metrics struct {
	checks          *prometheus.CounterVec
	checkDuration   *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	cache           *prometheus.CounterVec
}

var (
	_ observability.ResolverHooks = (*Metrics)(nil)
	_ observability.RegistryHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
)

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Dependency update checks by ecosystem and outcome.",
		}, []string{"ecosystem", "outcome"}),
		checkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Duration of dependency update checks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"ecosystem"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_requests_total",
			Help:      "Registry requests by host and status code.",
		}, []string{"host", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_request_duration_seconds",
			Help:      "Duration of registry requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_retries_total",
			Help:      "Retried registry requests by registry.",
		}, []string{"registry"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and writes by key type.",
		}, []string{"type", "event"}),
	}
	if reg != nil {
		reg.MustRegister(m.checks, m.checkDuration, m.requests, m.requestDuration, m.retries, m.cache)
	}
	return m
}

// Install registers m as the process-wide hooks.
func (m *Metrics) Install() {
	observability.SetResolverHooks(m)
	observability.SetRegistryHooks(m)
	observability.SetCacheHooks(m)
}

func (m *Metrics) OnCheckStart(context.Context, string, string) {}

func (m *Metrics) OnCheckComplete(_ context.Context, ecosystem, _ string, outcome string, d time.Duration, _ error) {
	m.checks.WithLabelValues(ecosystem, outcome).Inc()
	m.checkDuration.WithLabelValues(ecosystem).Observe(d.Seconds())
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration, _ error) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(host, code).Inc()
	m.requestDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnRetry(_ context.Context, registry string, _ int, _ error) {
	m.retries.WithLabelValues(registry).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cache.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cache.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cache.WithLabelValues(keyType, "set").Inc()
}
