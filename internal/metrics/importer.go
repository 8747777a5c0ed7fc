package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics tracks spreadsheet imports.
type ImportMetrics struct {
	importsTotal   *prometheus.CounterVec
	rowsTotal      *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	activeImports  prometheus.Gauge
	collectorSet
}

// NewImportMetrics creates and registers import collectors.
func NewImportMetrics(registry *prometheus.Registry) (*ImportMetrics, error) {
	m := &ImportMetrics{
		importsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translocations_imports_total",
				Help: "Total number of import attempts",
			},
			[]string{"format", "mode", "status"}, // mode: commit, preview
		),
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translocations_import_rows_total",
				Help: "Data rows seen by imports",
			},
			[]string{"result"}, // result: imported, rejected
		),
		importDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "translocations_import_duration_seconds",
				Help:    "Time taken to parse, normalize and commit an import",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"mode"},
		),
		activeImports: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "translocations_imports_active",
			Help: "Imports currently holding a limiter slot",
		}),
	}
	m.collectorSet = collectorSet{m.importsTotal, m.rowsTotal, m.importDuration, m.activeImports}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordImport records one finished import.
func (m *ImportMetrics) RecordImport(format, mode string, imported, rejected int, start time.Time, err error) {
	if format == "" {
		format = "unknown"
	}
	m.importsTotal.WithLabelValues(format, mode, status(err)).Inc()
	m.importDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err == nil {
		m.rowsTotal.WithLabelValues("imported").Add(float64(imported))
		m.rowsTotal.WithLabelValues("rejected").Add(float64(rejected))
	}
}

// SetActive publishes the limiter's current occupancy.
func (m *ImportMetrics) SetActive(n int) {
	m.activeImports.Set(float64(n))
}
