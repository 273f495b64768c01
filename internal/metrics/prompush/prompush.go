// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A one-shot ingest run has no long-lived HTTP endpoint to scrape, so the
// collected series are pushed to a Pushgateway when the run finishes.
// All Prometheus-specific dependencies stay inside this package.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"movieetl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Step-level metrics
	stepCounter  *prometheus.CounterVec // movieetl_step_total
	stepDuration *prometheus.SummaryVec // movieetl_step_duration_seconds

	// Record-level metrics
	recordCounter *prometheus.CounterVec // movieetl_records_total{kind}
	skipCounter   *prometheus.CounterVec // movieetl_skipped_total{reason}

	// Batch-level metrics
	batchCounter  prometheus.Counter       // movieetl_batches_total
	batchRows     *prometheus.HistogramVec // movieetl_batch_rows{table}
	flushDuration prometheus.Histogram     // movieetl_flush_duration_seconds
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as pipeline job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "movieetl"
	}

	// job is the Pushgateway grouping key, so it is not a series label.
	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.StepTotal,
				Help: "Total number of pipeline step executions, partitioned by step and status.",
			},
			[]string{"step", "status"},
		),
		stepDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       metrics.StepDuration,
				Help:       "Duration of pipeline steps in seconds, partitioned by step and status.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"step", "status"},
		),
		recordCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.RecordsTotal,
				Help: "Record-level counts per kind (read, stored, skipped, parse_errors, invalid).",
			},
			[]string{"kind"},
		),
		skipCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.SkippedTotal,
				Help: "Movies excluded by the filter, per exclusion reason.",
			},
			[]string{"reason"},
		),
		batchCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metrics.BatchesTotal,
				Help: "Total number of batches committed for this job.",
			},
		),
		batchRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metrics.BatchRows,
				Help:    "Rows written per committed batch, main table vs. all child tables.",
				Buckets: prometheus.ExponentialBuckets(10, 4, 8),
			},
			[]string{"table"},
		),
		flushDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metrics.FlushDuration,
				Help:    "Wall time of one batch transaction in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":   b.stepCounter,
		"step summary":   b.stepDuration,
		"record counter": b.recordCounter,
		"skip counter":   b.skipCounter,
		"batch counter":  b.batchCounter,
		"batch rows":     b.batchRows,
		"flush duration": b.flushDuration,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RecordsTotal:
		if b.recordCounter == nil {
			return
		}
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.SkippedTotal:
		if b.skipCounter == nil {
			return
		}
		b.skipCounter.WithLabelValues(labels["reason"]).Add(delta)

	case metrics.BatchesTotal:
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case metrics.StepDuration:
		if b.stepDuration == nil {
			return
		}
		b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)

	case metrics.BatchRows:
		if b.batchRows == nil {
			return
		}
		b.batchRows.WithLabelValues(labels["table"]).Observe(value)

	case metrics.FlushDuration:
		if b.flushDuration == nil {
			return
		}
		b.flushDuration.Observe(value)
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
