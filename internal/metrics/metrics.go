package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "linkpulse"

// Metrics owns a private Prometheus registry with the run series.
type Metrics struct {
	registry     *prometheus.Registry
	probes       *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	fallbacks    prometheus.Counter
	links        *prometheus.GaugeVec
	lastRun      prometheus.Gauge
	httpRequests *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Probe results by tier and outcome, including delegated results that fell back to the direct tier.",
		}, []string{"tier", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_latency_seconds",
			Help:      "Latency of successful probes.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"tier"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Links handed from the delegated tier to the direct tier.",
		}),
		links: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "links",
			Help:      "Links in the last report by state.",
		}, []string{"state"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last report was produced.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the preview server.",
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(m.probes, m.latency, m.fallbacks, m.links, m.lastRun, m.httpRequests)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordProbe(tier string, success bool, latencySeconds float64) {
	m.probes.WithLabelValues(tier, outcomeLabel(success)).Inc()
	if success && latencySeconds >= 0 {
		m.latency.WithLabelValues(tier).Observe(latencySeconds)
	}
}

func (m *Metrics) RecordFallback() {
	m.fallbacks.Inc()
}

func (m *Metrics) RecordRun(accessible, inaccessible int, at time.Time) {
	m.links.WithLabelValues("accessible").Set(float64(accessible))
	m.links.WithLabelValues("inaccessible").Set(float64(inaccessible))
	m.lastRun.Set(float64(at.Unix()))
}

func (m *Metrics) RecordHTTPRequest(method string, status int) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
