package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks record store calls.
type StoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	collectorSet
}

// NewStoreMetrics creates and registers store collectors.
func NewStoreMetrics(registry *prometheus.Registry) (*StoreMetrics, error) {
	m := &StoreMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translocations_store_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "translocations_store_operation_duration_seconds",
				Help:    "Time taken by store operations",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"operation"},
		),
	}
	m.collectorSet = collectorSet{m.operationsTotal, m.operationDuration}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation records the outcome of one store call started at start.
func (m *StoreMetrics) RecordOperation(operation string, start time.Time, err error) {
	m.operationsTotal.WithLabelValues(operation, status(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
