package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the inventory pipeline
type Metrics struct {
	UploadsTotal       prometheus.Counter
	UploadFailures     prometheus.Counter
	RowsAnalyzedTotal  prometheus.Counter
	RowsRejectedTotal  prometheus.Counter
	ExportsTotal       prometheus.Counter
	ExportBytesTotal   prometheus.Counter
	AnalyzeDuration    prometheus.Histogram
	SnapshotRows       prometheus.Gauge
}

// NewMetrics registers and returns the pipeline metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "shelfsense_uploads_total",
			Help: "Number of inventory files successfully ingested",
		}),
		UploadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "shelfsense_upload_failures_total",
			Help: "Number of uploads rejected during ingestion",
		}),
		RowsAnalyzedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "shelfsense_rows_analyzed_total",
			Help: "Total inventory rows that passed analysis",
		}),
		RowsRejectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "shelfsense_rows_rejected_total",
			Help: "Total inventory rows excluded during ingestion",
		}),
		ExportsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "shelfsense_exports_total",
			Help: "Number of CSV exports produced",
		}),
		ExportBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "shelfsense_export_bytes_total",
			Help: "Total bytes of CSV exports produced",
		}),
		AnalyzeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shelfsense_analyze_duration_seconds",
			Help:    "Time spent analyzing an uploaded table",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shelfsense_snapshot_rows",
			Help: "Rows in the currently loaded snapshot",
		}),
	}
}
