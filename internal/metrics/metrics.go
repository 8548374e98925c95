package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the fetch counter
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder collects per-run fetch metrics on its own registry
type Recorder struct {
	registry *prometheus.Registry
	fetches  *prometheus.CounterVec
	inFlight prometheus.Gauge
	latency  prometheus.Histogram
}

// New creates a recorder with a fresh registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickeravg",
				Name:      "fetches_total",
				Help:      "Symbols processed, by outcome and error type",
			},
			[]string{"outcome", "error_type"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tickeravg",
				Name:      "fetches_in_flight",
				Help:      "Fetches currently holding a concurrency slot",
			},
		),
		latency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "tickeravg",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of a fetch and aggregation while holding a slot",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
	r.registry.MustRegister(r.fetches, r.inFlight, r.latency)
	return r
}

// FetchStarted marks a fetch as holding a slot
func (r *Recorder) FetchStarted() {
	r.inFlight.Inc()
}

// FetchFinished releases the in-flight mark and observes the duration
func (r *Recorder) FetchFinished(d time.Duration) {
	r.inFlight.Dec()
	r.latency.Observe(d.Seconds())
}

// RecordOutcome counts one processed symbol. errorType is empty on success
// and is recorded as "none".
func (r *Recorder) RecordOutcome(errorType string) {
	if errorType == "" {
		r.fetches.WithLabelValues(OutcomeSuccess, "none").Inc()
		return
	}
	r.fetches.WithLabelValues(OutcomeFailure, errorType).Inc()
}

// Registry exposes the underlying registry as a gatherer
func (r *Recorder) Registry() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
