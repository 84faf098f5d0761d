package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the asset pipeline.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec // labels: dataset, outcome={changed,unchanged,error}
	RecordsParsed     *prometheus.CounterVec // labels: dataset
	DuplicatesDropped *prometheus.CounterVec // labels: dataset
	UnmappedStatus    prometheus.Counter
	FilesWritten      *prometheus.CounterVec   // labels: dataset, format
	FetchDuration     *prometheus.HistogramVec // labels: dataset
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gis_assets",
			Name:      "runs_total",
			Help:      "Pipeline runs by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		RecordsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gis_assets",
			Name:      "records_parsed_total",
			Help:      "Records emitted by the parser/normalizer per dataset.",
		}, []string{"dataset"}),
		DuplicatesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gis_assets",
			Name:      "duplicates_dropped_total",
			Help:      "Duplicate-key records dropped during normalization.",
		}, []string{"dataset"}),
		UnmappedStatus: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gis_assets",
			Name:      "unmapped_status_codes_total",
			Help:      "Obstacle status codes with no entry in the normalization table.",
		}),
		FilesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gis_assets",
			Name:      "files_written_total",
			Help:      "Output files written, by dataset and format.",
		}, []string{"dataset", "format"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gis_assets",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the fetch+parse stage per dataset.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"dataset"}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RecordsParsed,
		m.DuplicatesDropped,
		m.UnmappedStatus,
		m.FilesWritten,
		m.FetchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gis_assets", Name: "runs_total"}, []string{"dataset", "outcome"}),
		RecordsParsed:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gis_assets", Name: "records_parsed_total"}, []string{"dataset"}),
		DuplicatesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gis_assets", Name: "duplicates_dropped_total"}, []string{"dataset"}),
		UnmappedStatus:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gis_assets", Name: "unmapped_status_codes_total"}),
		FilesWritten:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gis_assets", Name: "files_written_total"}, []string{"dataset", "format"}),
		FetchDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "gis_assets", Name: "fetch_duration_seconds"}, []string{"dataset"}),
	}
}
