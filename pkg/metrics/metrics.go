// Package metrics collects batch-run counters on a private prometheus registry.
// Batch jobs have no scrape endpoint, so the registry is flushed to a node
// exporter textfile at the end of a run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Document outcomes.
const (
	OutcomeParsed  = "parsed"
	OutcomeSkipped = "skipped"
	OutcomeAborted = "aborted"
)

type Metrics struct {
	registry *prometheus.Registry

	Documents *prometheus.CounterVec
	Records   prometheus.Counter
	Issues    *prometheus.CounterVec
	Duration  prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "documents_total",
			Help:      "Bulletins processed, by outcome.",
		}, []string{"outcome"}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "records_total",
			Help:      "Reconciled records emitted.",
		}),
		Issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "issues_total",
			Help:      "Diagnostics raised, by kind and severity.",
		}, []string{"kind", "severity"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "boxoffice",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a batch run.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	m.registry.MustRegister(m.Documents, m.Records, m.Issues, m.Duration)
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
