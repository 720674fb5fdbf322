// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It adapts the generic metrics.Backend interface to Prometheus using
// client_golang collectors and pushes the collected registry to a Pushgateway
// instead of exposing a scrape endpoint, which suits a batch pipeline that
// exits when the run finishes. Prometheus-specific dependencies stay in this
// package so alternative backends can be swapped in without touching the
// pipeline.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"energyetl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // etl_stage_total
	stageDuration *prometheus.SummaryVec // etl_stage_duration_seconds

	rowCounter     *prometheus.CounterVec // etl_rows_total
	geocodeCounter *prometheus.CounterVec // etl_geocode_total
}

// NewBackend constructs a Prometheus Pushgateway backend. jobName is the
// Pushgateway "job" grouping key.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "energyetl"
	}

	reg := prometheus.NewRegistry()

	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_stage_total",
			Help: "Pipeline stage executions, partitioned by source, stage, and status.",
		},
		[]string{"source", "stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "etl_stage_duration_seconds",
			Help:       "Pipeline stage duration in seconds, partitioned by source, stage, and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"source", "stage", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_rows_total",
			Help: "Row-level counts per source and kind (cleaned, loaded, geocoded).",
		},
		[]string{"source", "kind"},
	)
	geocodeCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_geocode_total",
			Help: "Geocoder lookups by outcome (hit, miss, cached, error, quota).",
		},
		[]string{"outcome"},
	)

	for _, c := range []prometheus.Collector{stageCounter, stageDuration, rowCounter, geocodeCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		stageCounter:   stageCounter,
		stageDuration:  stageDuration,
		rowCounter:     rowCounter,
		geocodeCounter: geocodeCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "etl_stage_total":
		b.stageCounter.WithLabelValues(labels["source"], labels["stage"], labels["status"]).Add(delta)
	case "etl_rows_total":
		b.rowCounter.WithLabelValues(labels["source"], labels["kind"]).Add(delta)
	case "etl_geocode_total":
		b.geocodeCounter.WithLabelValues(labels["outcome"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "etl_stage_duration_seconds" {
		return
	}
	b.stageDuration.WithLabelValues(labels["source"], labels["stage"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
