// Package metrics provides Prometheus instrumentation for the parquet
// bridge: rows moved in each direction, values coerced on the way, failed
// commands by error type, and command latency.
//
// # Basic Usage
//
//	timer := metrics.NewTimer("read")
//	n, err := reader.Read(ctx, sink)
//	metrics.RowsRead.WithLabelValues("batch").Add(float64(n))
//	timer.ObserveDuration()
//
// All collectors are registered with the default registry on package load.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Coercion kinds for ValuesCoerced.
const (
	CoercedNullString      = "null_string"
	CoercedExtendedMissing = "extended_missing"
)

var (
	// RowsRead counts rows stored into the host, by reader strategy
	RowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparquet_rows_read_total",
			Help: "Total number of rows stored into the host",
		},
		[]string{"strategy"},
	)

	// RowsWritten counts rows written to parquet files, by writer strategy
	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparquet_rows_written_total",
			Help: "Total number of rows written to parquet files",
		},
		[]string{"strategy"},
	)

	// ValuesCoerced counts soft coercions reported as warnings
	ValuesCoerced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparquet_values_coerced_total",
			Help: "Values coerced to blank strings or nulls",
		},
		[]string{"kind"},
	)

	// Errors counts failed commands by error type
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparquet_errors_total",
			Help: "Failed commands by error type",
		},
		[]string{"command", "type"},
	)

	// OperationDuration tracks command latency
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sparquet_operation_duration_seconds",
			Help:    "Duration of dispatched commands",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"command"},
	)

	// FilesOpened counts parquet files opened for reading or writing
	FilesOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparquet_files_opened_total",
			Help: "Parquet files opened",
		},
		[]string{"mode"},
	)
)

// Timer measures the duration of one command.
type Timer struct {
	start   time.Time
	command string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(command string) *Timer {
	return &Timer{
		start:   time.Now(),
		command: command,
	}
}

// ObserveDuration records the elapsed time in OperationDuration and returns it.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	OperationDuration.WithLabelValues(t.command).Observe(d.Seconds())
	return d
}

// Coerced adds n to the coercion counter of kind. Zero counts are skipped
// so unused label values stay absent.
func Coerced(kind string, n int64) {
	if n > 0 {
		ValuesCoerced.WithLabelValues(kind).Add(float64(n))
	}
}
