// Package metrics holds the Prometheus collectors for standardization and
// linkage runs. Every method is safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cfdb"

// Metrics groups the collectors on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	RowsRead       *prometheus.CounterVec
	RowsDropped    *prometheus.CounterVec
	LinesSkipped   *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec

	CandidatePairs *prometheus.GaugeVec
	Clusters       *prometheus.GaugeVec
	MergedRows     *prometheus.GaugeVec
	EMIterations   *prometheus.GaugeVec
	DanglingIDs    *prometheus.GaugeVec
}

// New registers a fresh set of collectors, including the Go runtime and
// process collectors, on a new registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_read_total",
			Help: "Rows emitted by source standardizers.",
		}, []string{"source", "table"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_dropped_total",
			Help: "Rows discarded for failing minimal viability.",
		}, []string{"source", "reason"}),
		LinesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "lines_skipped_total",
			Help: "Malformed raw lines skipped while reading.",
		}, []string{"source"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "source_failures_total",
			Help: "Sources that failed to standardize.",
		}, []string{"source"}),
		SourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "source_duration_seconds",
			Help:    "Wall time to standardize one source.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"source"}),
		CandidatePairs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "linkage_candidate_pairs",
			Help: "Candidate pairs produced by blocking in the last run.",
		}, []string{"table"}),
		Clusters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "linkage_clusters",
			Help: "Multi-row clusters found in the last run.",
		}, []string{"table"}),
		MergedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "linkage_merged_rows",
			Help: "Rows removed by deduplication in the last run.",
		}, []string{"table"}),
		EMIterations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "linkage_em_iterations",
			Help: "EM iterations used in the last run.",
		}, []string{"table"}),
		DanglingIDs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "dangling_ids",
			Help: "Foreign keys that resolve to no entity row.",
		}, []string{"column"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RowsRead, m.RowsDropped, m.LinesSkipped, m.SourceFailures, m.SourceDuration,
		m.CandidatePairs, m.Clusters, m.MergedRows, m.EMIterations, m.DanglingIDs,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RowRead(source, table string, n int) {
	if m != nil {
		m.RowsRead.WithLabelValues(source, table).Add(float64(n))
	}
}

func (m *Metrics) RowDropped(source, reason string) {
	if m != nil {
		m.RowsDropped.WithLabelValues(source, reason).Inc()
	}
}

func (m *Metrics) LineSkipped(source string, n int) {
	if m != nil && n > 0 {
		m.LinesSkipped.WithLabelValues(source).Add(float64(n))
	}
}

func (m *Metrics) SourceFailed(source string) {
	if m != nil {
		m.SourceFailures.WithLabelValues(source).Inc()
	}
}

// TimeSource returns a func that observes the elapsed time for source.
func (m *Metrics) TimeSource(source string) func() {
	start := time.Now()
	return func() {
		if m != nil {
			m.SourceDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
		}
	}
}

// Linkage records the outcome of one deduplication run.
func (m *Metrics) Linkage(table string, pairs, clusters, merged, iterations int) {
	if m == nil {
		return
	}
	m.CandidatePairs.WithLabelValues(table).Set(float64(pairs))
	m.Clusters.WithLabelValues(table).Set(float64(clusters))
	m.MergedRows.WithLabelValues(table).Set(float64(merged))
	m.EMIterations.WithLabelValues(table).Set(float64(iterations))
}

func (m *Metrics) Dangling(column string, n int) {
	if m != nil {
		m.DanglingIDs.WithLabelValues(column).Set(float64(n))
	}
}
