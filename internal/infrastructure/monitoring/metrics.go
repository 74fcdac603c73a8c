// Package monitoring wires structured logging, Prometheus metrics and
// OpenTelemetry tracing for the gateway.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bocado-ai/gate/internal/domain/service"
)

const namespace = "bocado"

// Metrics manages the Prometheus metrics and implements service.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	Admissions      *prometheus.CounterVec
	CacheAccess     *prometheus.CounterVec
	ModelCalls      *prometheus.CounterVec
	ModelLatency    *prometheus.HistogramVec
	PersistFailures *prometheus.CounterVec
	MapsCalls       *prometheus.CounterVec
	CleanupDeleted  *prometheus.CounterVec

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	HTTPActiveRequests prometheus.Gauge
}

var _ service.Metrics = (*Metrics)(nil)

// NewMetrics creates the metrics and registers them on a dedicated registry
// together with the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_decisions_total",
			Help:      "Rate-limit decisions by policy and outcome.",
		}, []string{"policy", "result", "reason"}),
		CacheAccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_access_total",
			Help:      "Cache lookups by domain and result.",
		}, []string{"domain", "result"}),
		ModelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Generative model invocations.",
		}, []string{"kind", "result"}),
		ModelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Latency of generative model invocations.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"kind"}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Best-effort writes that failed.",
		}, []string{"target"}),
		MapsCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maps_requests_total",
			Help:      "Maps proxy requests by action.",
		}, []string{"action", "cached", "result"}),
		CleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_deleted_total",
			Help:      "Records removed by cleanup jobs.",
		}, []string{"job"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		HTTPActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "In-flight HTTP requests.",
		}),
	}
	reg.MustRegister(
		m.Admissions, m.CacheAccess, m.ModelCalls, m.ModelLatency,
		m.PersistFailures, m.MapsCalls, m.CleanupDeleted,
		m.HTTPRequests, m.HTTPDuration, m.HTTPActiveRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry to expose on /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) RecordAdmission(policy string, allowed bool, reason string) {
	r := "allowed"
	if !allowed {
		r = "rejected"
	}
	m.Admissions.WithLabelValues(policy, r, reason).Inc()
}

func (m *Metrics) RecordCacheAccess(domain string, hit bool) {
	r := "miss"
	if hit {
		r = "hit"
	}
	m.CacheAccess.WithLabelValues(domain, r).Inc()
}

func (m *Metrics) RecordModelCall(kind string, success bool, duration time.Duration) {
	m.ModelCalls.WithLabelValues(kind, result(success)).Inc()
	m.ModelLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) RecordPersistFailure(target string) {
	m.PersistFailures.WithLabelValues(target).Inc()
}

func (m *Metrics) RecordMapsCall(action string, cached bool, success bool) {
	m.MapsCalls.WithLabelValues(action, strconv.FormatBool(cached), result(success)).Inc()
}

func (m *Metrics) RecordCleanup(job string, deleted int) {
	m.CleanupDeleted.WithLabelValues(job).Add(float64(deleted))
}

// ActiveRequestsInc tracks a request entering the server.
func (m *Metrics) ActiveRequestsInc() { m.HTTPActiveRequests.Inc() }

// ActiveRequestsDec tracks a request leaving the server.
func (m *Metrics) ActiveRequestsDec() { m.HTTPActiveRequests.Dec() }

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(path, method string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(path, method).Observe(d.Seconds())
}
