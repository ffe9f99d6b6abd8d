package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many instances as
// they like. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpInFlight  prometheus.Gauge
	recomputes    *prometheus.CounterVec
	nodesComputed prometheus.Counter
	scenarios     *prometheus.CounterVec
	llmCalls      *prometheus.CounterVec
	llmDuration   *prometheus.HistogramVec
	llmDropped    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		}),
		recomputes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_recomputes_total",
			Help: "Dashboard graph evaluations by changed input",
		}, []string{"input"}),
		nodesComputed: f.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_nodes_recomputed_total",
			Help: "Dashboard outputs recomputed",
		}),
		scenarios: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scenario_runs_total",
			Help: "Scenario evaluations by kind and whether they applied",
		}, []string{"kind", "applied"}),
		llmCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Text service calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		llmDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Text service latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"operation"}),
		llmDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_dropped_lines_total",
			Help: "Malformed lines dropped while decoding text service output",
		}, []string{"operation"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.httpInFlight.Inc()
}

func (m *Metrics) RequestFinished(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpInFlight.Dec()
	labels := prometheus.Labels{"method": method, "route": route, "status": strconv.Itoa(status)}
	m.httpRequests.With(labels).Inc()
	m.httpDuration.With(labels).Observe(d.Seconds())
}

func (m *Metrics) Recomputed(input string, nodes int) {
	if m == nil {
		return
	}
	if input == "" {
		input = "all"
	}
	m.recomputes.WithLabelValues(input).Inc()
	m.nodesComputed.Add(float64(nodes))
}

func (m *Metrics) ScenarioRun(kind string, applied bool) {
	if m == nil {
		return
	}
	m.scenarios.WithLabelValues(kind, strconv.FormatBool(applied)).Inc()
}

func (m *Metrics) LLMCall(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.llmCalls.WithLabelValues(operation, outcome).Inc()
	m.llmDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) LLMDropped(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.llmDropped.WithLabelValues(operation).Add(float64(n))
}
