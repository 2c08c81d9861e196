// Package metrics exposes Prometheus instrumentation for ingestion runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Document outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Record kinds.
const (
	RecordFindingAid = "findingaid"
	RecordChronology = "chronology"
	RecordTerm       = "term"
)

// Metrics groups the ingestion collectors. A nil *Metrics records nothing.
type Metrics struct {
	documents     *prometheus.CounterVec
	records       *prometheus.CounterVec
	indexFailures prometheus.Counter
	diagnostics   *prometheus.CounterVec
	duration      prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nafan",
			Name:      "documents_total",
			Help:      "Documents processed, by outcome.",
		}, []string{"outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nafan",
			Name:      "records_total",
			Help:      "Records persisted, by kind.",
		}, []string{"kind"}),
		indexFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nafan",
			Name:      "index_failures_total",
			Help:      "Search index writes that failed.",
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nafan",
			Name:      "diagnostics_total",
			Help:      "Field and subtree diagnostics, by field.",
		}, []string{"field"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nafan",
			Name:      "ingest_duration_seconds",
			Help:      "Wall time of one document ingestion.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	for _, c := range []prometheus.Collector{m.documents, m.records, m.indexFailures, m.diagnostics, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Document(outcome string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Record(kind string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(kind).Inc()
}

func (m *Metrics) IndexFailure() {
	if m == nil {
		return
	}
	m.indexFailures.Inc()
}

func (m *Metrics) Diagnostic(field string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(field).Inc()
}

// ObserveDuration records how long one document took to compile.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
