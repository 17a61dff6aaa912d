// Package metrics records fetch outcomes as Prometheus metrics. Batch runs
// export them with WriteTextfile for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK              = "ok"
	OutcomeConfigError     = "config_error"
	OutcomeInvalidArgument = "invalid_argument"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeResponseError   = "response_error"
	OutcomeTransportError  = "transport_error"
	OutcomeExtractError    = "extract_error"
)

// Metrics holds the fetch metrics registered on one registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal    *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	FilesExtracted  *prometheus.CounterVec
	ResponseBytes   *prometheus.CounterVec
	LastSuccessTime *prometheus.GaugeVec
}

// New registers the fetch metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gmfetch_fetches_total",
				Help: "Total number of station fetches by outcome",
			},
			[]string{"service", "cadence", "outcome"},
		),

		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gmfetch_fetch_duration_seconds",
				Help:    "Duration of a station fetch including extraction",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"service"},
		),

		FilesExtracted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gmfetch_files_extracted_total",
				Help: "Total number of data files extracted from archives",
			},
			[]string{"service", "station"},
		),

		ResponseBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gmfetch_response_bytes_total",
				Help: "Total bytes of archive data received",
			},
			[]string{"service"},
		),

		LastSuccessTime: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gmfetch_last_success_timestamp_seconds",
				Help: "Unix time of the last successful fetch per station",
			},
			[]string{"service", "station"},
		),
	}
}

// Registry exposes the underlying registry as a Gatherer.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFetch records one completed station fetch.
func (m *Metrics) ObserveFetch(service, station, cadence, outcome string, d time.Duration, files int, bytes int) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(service, cadence, outcome).Inc()
	m.FetchDuration.WithLabelValues(service).Observe(d.Seconds())
	if bytes > 0 {
		m.ResponseBytes.WithLabelValues(service).Add(float64(bytes))
	}
	if outcome == OutcomeOK {
		m.FilesExtracted.WithLabelValues(service, station).Add(float64(files))
		m.LastSuccessTime.WithLabelValues(service, station).SetToCurrentTime()
	}
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
