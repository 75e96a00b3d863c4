package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal   *prometheus.CounterVec
	fallbacksTotal *prometheus.CounterVec
	cacheTotal     *prometheus.CounterVec
	benchmarks     *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxypull_source_fetches_total",
				Help: "Upstream fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		fallbacksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxypull_fallbacks_total",
				Help: "Synthetic series served instead of live data",
			},
			[]string{"source", "kind"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxypull_cache_lookups_total",
				Help: "Series cache lookups by source and result",
			},
			[]string{"source", "hit"},
		),
		benchmarks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxypull_benchmarks_total",
				Help: "Benchmark series included in or omitted from a chart",
			},
			[]string{"symbol", "included"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proxypull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one upstream fetch outcome: live, interpolated or error.
func (r *Recorder) RecordFetch(source, outcome string) {
	r.fetchesTotal.WithLabelValues(source, outcome).Inc()
}

func (r *Recorder) RecordFallback(source, kind string) {
	r.fallbacksTotal.WithLabelValues(source, kind).Inc()
}

func (r *Recorder) RecordCache(source string, hit bool) {
	r.cacheTotal.WithLabelValues(source, strconv.FormatBool(hit)).Inc()
}

func (r *Recorder) RecordBenchmark(symbol string, included bool) {
	r.benchmarks.WithLabelValues(symbol, strconv.FormatBool(included)).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordFetch(string, string)    {}
func (Nop) RecordFallback(string, string) {}
func (Nop) RecordCache(string, bool)      {}
func (Nop) RecordBenchmark(string, bool)  {}
func (Nop) RecordLatency(string, float64) {}
