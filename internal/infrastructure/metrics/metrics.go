// Package metrics provides Prometheus metrics for the price pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the tracker.
type Metrics struct {
	registry *prometheus.Registry

	// Source metrics
	SourceFetches       *prometheus.CounterVec
	SourceFetchDuration *prometheus.HistogramVec

	// Resolution metrics
	Resolutions        *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	LastPrice          *prometheus.GaugeVec

	// Alert metrics
	AlertsFired *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "crypto_price_tracker"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SourceFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetches_total",
			Help:      "Total number of source fetch attempts by source and result",
		}, []string{"source", "result"}),
		SourceFetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of source fetch attempts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),

		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of price resolutions by asset and outcome",
		}, []string{"asset", "outcome"}),
		ResolutionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of full fallback chain resolutions",
			Buckets:   prometheus.DefBuckets,
		}),
		LastPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "last_price_usd",
			Help:      "Last resolved price per asset",
		}, []string{"asset"}),

		AlertsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "fired_total",
			Help:      "Total number of alert firings by asset and condition",
		}, []string{"asset", "condition"}),
	}
}

// Registry exposes the underlying registry (used by tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
