// Package metrics records what a run did as Prometheus metrics. A run is a
// batch job, so metrics are written to a node-exporter textfile instead of
// being served over HTTP.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "discovr"

// Metrics holds the collectors for one process on a private registry
type Metrics struct {
	registry *prometheus.Registry

	fetched      *prometheus.CounterVec
	sourceErrors *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	merges       *prometheus.CounterVec
	stored       *prometheus.CounterVec
	output       prometheus.Gauge
	lastRun      prometheus.Gauge
	runDuration  prometheus.Histogram
}

// New creates and registers the run collectors
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.fetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_fetched_total",
		Help:      "Raw records returned by each source",
	}, []string{"source"})
	m.sourceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_errors_total",
		Help:      "Sources that failed to produce records, by error kind",
	}, []string{"source", "kind"})
	m.rejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_rejected_total",
		Help:      "Normalized records dropped before deduplication, by reason",
	}, []string{"reason"})
	m.merges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "merges_total",
		Help:      "Records merged into an earlier record, by pass",
	}, []string{"pass"})
	m.stored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_stored_total",
		Help:      "Events handed to storage, by result",
	}, []string{"result"})
	m.output = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_output",
		Help:      "Distinct events produced by the last run",
	})
	m.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run",
	})
	m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of a full run",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	m.registry.MustRegister(
		m.fetched, m.sourceErrors, m.rejected, m.merges,
		m.stored, m.output, m.lastRun, m.runDuration,
	)
	return m
}

// Registry exposes the collectors, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordFetch adds the record count of one source
func (m *Metrics) RecordFetch(source string, records int) {
	if m == nil {
		return
	}
	m.fetched.WithLabelValues(source).Add(float64(records))
}

// RecordSourceError counts a failed source
func (m *Metrics) RecordSourceError(source, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.sourceErrors.WithLabelValues(source, kind).Inc()
}

// RecordRejections adds a per-reason rejection tally
func (m *Metrics) RecordRejections(tally map[string]int) {
	if m == nil {
		return
	}
	for reason, n := range tally {
		m.rejected.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordMerges adds the merge counts of one deduplication
func (m *Metrics) RecordMerges(exact, fuzzy int) {
	if m == nil {
		return
	}
	m.merges.WithLabelValues("exact").Add(float64(exact))
	m.merges.WithLabelValues("fuzzy").Add(float64(fuzzy))
}

// RecordOutput sets the number of events the run produced
func (m *Metrics) RecordOutput(events int) {
	if m == nil {
		return
	}
	m.output.Set(float64(events))
}

// RecordSave adds storage results
func (m *Metrics) RecordSave(inserted, skipped int) {
	if m == nil {
		return
	}
	m.stored.WithLabelValues("inserted").Add(float64(inserted))
	m.stored.WithLabelValues("skipped").Add(float64(skipped))
}

// ObserveRun records a completed run
func (m *Metrics) ObserveRun(d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
	m.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes all metrics in the text exposition format. The file
// is replaced atomically so the node exporter never reads a partial write.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
