// Package metrics defines the Prometheus collectors used by the k-mer tools
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing, so library code can be used without a registry.
type Metrics struct {
	QueriesTotal      *prometheus.CounterVec
	QueryLatency      prometheus.Histogram
	HitsEmitted       prometheus.Counter
	KmersProbed       *prometheus.CounterVec
	TasksOutstanding  prometheus.Gauge
	TaskFailures      prometheus.Counter
	IndexSize         *prometheus.GaugeVec
	IndexBuildSeconds prometheus.Gauge
	ReferencesSkipped *prometheus.CounterVec
	ReadsScanned      prometheus.Counter
	ReadsMatched      prometheus.Counter
	SinkRecords       *prometheus.CounterVec
	SinkErrors        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. If reg also
// implements prometheus.Gatherer, Handler serves it.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kmer_queries_total",
				Help: "Query sequences processed by result (hit, miss, skipped, error).",
			},
			[]string{"result"},
		),
		QueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kmer_query_duration_seconds",
				Help:    "Time spent probing the index for one query sequence.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		HitsEmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kmer_hits_emitted_total",
				Help: "Hit records emitted.",
			},
		),
		KmersProbed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kmer_kmers_probed_total",
				Help: "Query k-mers looked up by index kind.",
			},
			[]string{"index"},
		),
		TasksOutstanding: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kmer_tasks_outstanding",
				Help: "Tasks submitted to the work pool and not yet finished.",
			},
		),
		TaskFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kmer_task_failures_total",
				Help: "Tasks that returned an error or panicked.",
			},
		),
		IndexSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kmer_index_size",
				Help: "Distinct k-mers held by the reference index.",
			},
			[]string{"index"},
		),
		IndexBuildSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kmer_index_build_seconds",
				Help: "Wall time spent building the reference index.",
			},
		),
		ReferencesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kmer_reference_sequences_skipped_total",
				Help: "Reference sequences not indexed, by reason.",
			},
			[]string{"reason"},
		),
		ReadsScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kmer_coverage_reads_scanned_total",
				Help: "Reads scanned against the contig k-mers.",
			},
		),
		ReadsMatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kmer_coverage_reads_matched_total",
				Help: "Reads sharing at least one k-mer with a contig.",
			},
		),
		SinkRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kmer_sink_records_total",
				Help: "Hit records delivered per external sink.",
			},
			[]string{"sink"},
		),
		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kmer_sink_errors_total",
				Help: "Failed deliveries per external sink after retries.",
			},
			[]string{"sink"},
		),
	}

	reg.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.HitsEmitted,
		m.KmersProbed,
		m.TasksOutstanding,
		m.TaskFailures,
		m.IndexSize,
		m.IndexBuildSeconds,
		m.ReferencesSkipped,
		m.ReadsScanned,
		m.ReadsMatched,
		m.SinkRecords,
		m.SinkErrors,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// NewDefault registers with the process-wide default registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Query(result string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Hits(n int) {
	if m == nil || n == 0 {
		return
	}
	m.HitsEmitted.Add(float64(n))
}

func (m *Metrics) Probed(index string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.KmersProbed.WithLabelValues(index).Add(float64(n))
}

func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.TasksOutstanding.Inc()
}

func (m *Metrics) TaskDone(failed bool) {
	if m == nil {
		return
	}
	m.TasksOutstanding.Dec()
	if failed {
		m.TaskFailures.Inc()
	}
}

func (m *Metrics) ReferenceSkipped(reason string) {
	if m == nil {
		return
	}
	m.ReferencesSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Read(matched bool) {
	if m == nil {
		return
	}
	m.ReadsScanned.Inc()
	if matched {
		m.ReadsMatched.Inc()
	}
}

func (m *Metrics) SinkDelivered(sink string, n int) {
	if m == nil {
		return
	}
	m.SinkRecords.WithLabelValues(sink).Add(float64(n))
}

func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink).Inc()
}
