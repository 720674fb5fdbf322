// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the load pipeline.
//
// The package exposes a narrow Backend interface (counters and timing data)
// behind a global, pluggable backend that defaults to a no-op implementation,
// so metrics are always safe to call even when no real backend is configured.
// Concrete metric systems live in subpackages; the rest of the codebase
// depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
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

// RecordStage measures one pipeline stage for one source partition:
// latency plus a success/failure count. Stages mirror the pipeline phases,
// e.g. "clean", "reconcile", "geocode", "load".
func RecordStage(source, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"source": source,
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter("etl_stage_total", 1, lbls)
	backend.ObserveHistogram("etl_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given source and kind.
//
// Typical kinds mirror the run summary fields:
//   - "cleaned"
//   - "loaded"
//   - "geocoded"
func RecordRows(source, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("etl_rows_total", float64(delta), Labels{
		"source": source,
		"kind":   kind,
	})
}

// RecordGeocode counts one geocoder outcome: "hit", "miss", "cached",
// "error", or "quota".
func RecordGeocode(outcome string) {
	backend.IncCounter("etl_geocode_total", 1, Labels{"outcome": outcome})
}
