// Package metrics implements the observability hooks with Prometheus
// collectors.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/buildorder/pkg/observability"
)

// Metrics holds the collectors. Create one per registry with [New].
type Metrics struct {
	loadTotal       *prometheus.CounterVec
	resolveTotal    *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	resolvedNodes   *prometheus.GaugeVec
	cyclesTotal     prometheus.Counter
	cacheTotal      *prometheus.CounterVec
	cacheBytes      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildorder_workspace_loads_total",
				Help: "Number of workspace descriptions parsed, by outcome.",
			},
			[]string{"result"},
		),
		resolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildorder_resolutions_total",
				Help: "Number of resolution operations, by operation and outcome.",
			},
			[]string{"op", "result"},
		),
		resolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "buildorder_resolution_duration_seconds",
				Help:    "Time taken by a resolution operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		resolvedNodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "buildorder_resolved_nodes",
				Help: "Number of nodes in the last successful result, by operation.",
			},
			[]string{"op"},
		),
		cyclesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "buildorder_cycles_total",
				Help: "Number of reference cycles reported.",
			},
		),
		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildorder_cache_requests_total",
				Help: "Cache lookups and writes, by key type and outcome.",
			},
			[]string{"key_type", "result"},
		),
		cacheBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildorder_cache_written_bytes_total",
				Help: "Bytes written to the cache, by key type.",
			},
			[]string{"key_type"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildorder_http_requests_total",
				Help: "HTTP API requests, by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "buildorder_http_request_duration_seconds",
				Help:    "HTTP API request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "buildorder_http_requests_in_flight",
				Help: "HTTP API requests currently being served.",
			},
		),
	}
	reg.MustRegister(
		m.loadTotal,
		m.resolveTotal,
		m.resolveDuration,
		m.resolvedNodes,
		m.cyclesTotal,
		m.cacheTotal,
		m.cacheBytes,
		m.requestsTotal,
		m.requestDuration,
		m.inFlight,
	)
	return m
}

// Hooks returns the hook set backed by these collectors.
func (m *Metrics) Hooks() observability.Hooks {
	return observability.Hooks{Pipeline: m, Cache: m, API: m}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnLoad(_ context.Context, _, _ int, _ time.Duration, err error) {
	m.loadTotal.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) OnResolveStart(context.Context, string, int) {}

func (m *Metrics) OnResolveComplete(_ context.Context, op string, nodes int, d time.Duration, err error) {
	m.resolveTotal.WithLabelValues(op, outcome(err)).Inc()
	m.resolveDuration.WithLabelValues(op).Observe(d.Seconds())
	if err == nil {
		m.resolvedNodes.WithLabelValues(op).Set(float64(nodes))
	}
}

func (m *Metrics) OnCycle(context.Context, int) { m.cyclesTotal.Inc() }

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheTotal.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) { m.inFlight.Inc() }

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.inFlight.Dec()
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.APIHooks      = (*Metrics)(nil)
)
