package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"optscan/internal/dataprocessing"
)

// Metrics holds the scanner's Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	MergeRuns          prometheus.Counter
	MergeFailures      prometheus.Counter
	FilesProcessed     prometheus.Counter
	FilesSkipped       prometheus.Counter
	RowsMerged         prometheus.Counter
	MergeDuration      prometheus.Histogram
	LastMergeTimestamp prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates a metrics set on its own registry, including the
// standard Go runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		MergeRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "optscan_merge_runs_total",
			Help: "Completed merge runs.",
		}),
		MergeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "optscan_merge_failures_total",
			Help: "Merge runs that ended in an error.",
		}),
		FilesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "optscan_source_files_processed_total",
			Help: "Source files successfully merged.",
		}),
		FilesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "optscan_source_files_skipped_total",
			Help: "Source files skipped as malformed or unreadable.",
		}),
		RowsMerged: factory.NewCounter(prometheus.CounterOpts{
			Name: "optscan_rows_merged_total",
			Help: "Rows written to the merged table.",
		}),
		MergeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "optscan_merge_duration_seconds",
			Help:    "Wall-clock duration of merge runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		LastMergeTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "optscan_last_merge_timestamp_seconds",
			Help: "Unix time of the last successful merge.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "optscan_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveMerge records the outcome of one merge run.
func (m *Metrics) ObserveMerge(summary *dataprocessing.Summary, err error) {
	if err != nil {
		m.MergeFailures.Inc()
		return
	}
	m.MergeRuns.Inc()
	m.FilesProcessed.Add(float64(summary.FilesProcessed))
	m.FilesSkipped.Add(float64(summary.FilesSkipped))
	m.RowsMerged.Add(float64(summary.Rows))
	m.MergeDuration.Observe(summary.Duration.Seconds())
	if summary.Written {
		m.LastMergeTimestamp.SetToCurrentTime()
	}
}
