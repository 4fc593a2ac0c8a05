package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds all Prometheus metrics for the panel
type MetricsRegistry struct {
	registry *prometheus.Registry

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Ingestion Metrics
	MessagesTotal *prometheus.CounterVec
	MergeDuration prometheus.Histogram
	StateChanges  prometheus.Counter

	// Asset Metrics
	AssetEnsureTotal   *prometheus.CounterVec
	AssetFetchDuration *prometheus.HistogramVec
	AssetBytes         *prometheus.GaugeVec

	// Render Metrics
	RedrawsTotal   *prometheus.CounterVec
	RedrawDuration prometheus.Histogram
}

// NewMetricsRegistry builds every metric on a fresh registry, so that several
// instances can coexist in tests.
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &MetricsRegistry{
		registry: reg,

		// HTTP Metrics
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airtracker_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "airtracker_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "airtracker_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Ingestion Metrics
		MessagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airtracker_messages_total",
				Help: "Telemetry documents received, by source and result",
			},
			[]string{"source", "result"},
		),
		MergeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "airtracker_merge_duration_seconds",
				Help:    "Time spent parsing and merging one document",
				Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
			},
		),
		StateChanges: f.NewCounter(
			prometheus.CounterOpts{
				Name: "airtracker_state_changes_total",
				Help: "Documents that changed the flight state",
			},
		),

		// Asset Metrics
		AssetEnsureTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airtracker_asset_ensure_total",
				Help: "Asset ensure calls by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		AssetFetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "airtracker_asset_fetch_duration_seconds",
				Help:    "Time to load and decode an asset that was not already cached",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
		AssetBytes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "airtracker_asset_bytes",
				Help: "Compressed size of the currently cached asset",
			},
			[]string{"kind"},
		),

		// Render Metrics
		RedrawsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airtracker_redraws_total",
				Help: "Full-surface redraws by reason",
			},
			[]string{"reason"},
		),
		RedrawDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "airtracker_redraw_duration_seconds",
				Help:    "Time to repaint the whole surface",
				Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
	}
}

// CounterFunc exposes a counter that another component already keeps.
func (m *MetricsRegistry) CounterFunc(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, fn))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *MetricsRegistry) Gatherer() prometheus.Gatherer {
	return m.registry
}
