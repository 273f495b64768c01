// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the ingest pipeline.
//
//   - It exposes a narrow interface (Backend) focused on counters and
//     histograms.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - Concrete metric systems live in subpackages (prompush, datadog) so the
//     pipeline depends only on this package.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal       = "movieetl_step_total"
	StepDuration    = "movieetl_step_duration_seconds"
	RecordsTotal    = "movieetl_records_total"
	SkippedTotal    = "movieetl_skipped_total"
	BatchesTotal    = "movieetl_batches_total"
	BatchRows       = "movieetl_batch_rows"
	FlushDuration   = "movieetl_flush_duration_seconds"
	defaultStatusOK = "success"
)

// Record kinds used with RecordRow.
const (
	KindRead        = "read"
	KindStored      = "stored"
	KindSkipped     = "skipped"
	KindParseErrors = "parse_errors"
	KindInvalid     = "invalid"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a size or duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one pipeline step
// ("prepare_schema", "ingest").
func RecordStep(job, step string, err error, d time.Duration) {
	status := defaultStatusOK
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind
// (KindRead, KindStored, ...).
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordSkip increments the per-reason skip counter.
func RecordSkip(job, reason string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(SkippedTotal, float64(delta), Labels{
		"job":    job,
		"reason": reason,
	})
}

// RecordBatch records one committed flush: its main and child row counts
// and how long the transaction took.
func RecordBatch(job string, mainRows, childRows int, d time.Duration) {
	backend.IncCounter(BatchesTotal, 1, Labels{"job": job})
	backend.ObserveHistogram(BatchRows, float64(mainRows), Labels{"job": job, "table": "main"})
	backend.ObserveHistogram(BatchRows, float64(childRows), Labels{"job": job, "table": "child"})
	backend.ObserveHistogram(FlushDuration, d.Seconds(), Labels{"job": job})
}
