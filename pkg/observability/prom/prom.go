// Package prom implements the observability hooks with Prometheus collectors.
//
// All metrics are prefixed with bubblechart_. [Metrics.Middleware] counts
// HTTP requests handled by the server; /metrics is served with promhttp.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/bubblechart/pkg/observability"
)

const namespace = "bubblechart"

// Metrics holds every collector and implements PipelineHooks, CacheHooks
// and SimulationHooks.
type Metrics struct {
	stageTotal      *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	intents         *prometheus.HistogramVec
	cacheOps        *prometheus.CounterVec
	cacheBytes      *prometheus.CounterVec
	simulations     *prometheus.CounterVec
	simulationTicks prometheus.Histogram
	activeSims      prometheus.Gauge
	framesDropped   prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// It panics if a collector is already registered, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_total",
			Help:      "Pipeline stage executions by stage, label and outcome.",
		}, []string{"stage", "label", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "label"}),
		intents: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intents",
			Help:      "Number of intents per load or layout.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"stage"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Finished force simulations by outcome.",
		}, []string{"status"}),
		simulationTicks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_ticks",
			Help:      "Ticks run per force simulation.",
			Buckets:   prometheus.LinearBuckets(0, 50, 8),
		}),
		activeSims: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulations_active",
			Help:      "Force simulations currently running.",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Simulation frames not delivered to slow subscribers.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(
		m.stageTotal, m.stageDuration, m.intents,
		m.cacheOps, m.cacheBytes,
		m.simulations, m.simulationTicks, m.activeSims, m.framesDropped,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Register installs m as the global pipeline, cache and simulation hooks.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetSimulationHooks(m)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// =============================================================================
// Pipeline
// =============================================================================

func (m *Metrics) OnLoadStart(context.Context, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, source string, n int, d time.Duration, err error) {
	m.observeStage("load", source, d, err)
	if err == nil {
		m.intents.WithLabelValues("load").Observe(float64(n))
	}
}

func (m *Metrics) OnLayoutStart(_ context.Context, _ string, n int) {
	m.intents.WithLabelValues("layout").Observe(float64(n))
}

func (m *Metrics) OnLayoutComplete(_ context.Context, policy string, d time.Duration, err error) {
	m.observeStage("layout", policy, d, err)
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	for _, f := range formats {
		m.observeStage("render", f, d, err)
	}
}

func (m *Metrics) observeStage(stage, label string, d time.Duration, err error) {
	m.stageTotal.WithLabelValues(stage, label, status(err)).Inc()
	m.stageDuration.WithLabelValues(stage, label).Observe(d.Seconds())
}

// =============================================================================
// Cache
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// Simulation
// =============================================================================

func (m *Metrics) OnSimulationStart(context.Context, string, int) {
	m.activeSims.Inc()
}

func (m *Metrics) OnSimulationComplete(_ context.Context, _ string, ticks int, _ time.Duration, err error) {
	m.activeSims.Dec()
	m.simulations.WithLabelValues(status(err)).Inc()
	m.simulationTicks.Observe(float64(ticks))
}

func (m *Metrics) OnFrameDropped(context.Context, string) {
	m.framesDropped.Inc()
}

// =============================================================================
// HTTP
// =============================================================================

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE streams keep working.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware counts requests and records their latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.code)).Inc()
		m.httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

var (
	_ observability.PipelineHooks   = (*Metrics)(nil)
	_ observability.CacheHooks      = (*Metrics)(nil)
	_ observability.SimulationHooks = (*Metrics)(nil)
)
