package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "proxypull",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of series API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proxypull",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Rejected requests by endpoint and error code",
		},
		[]string{"endpoint", "code"},
	)

	SyntheticResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proxypull",
			Subsystem: "api",
			Name:      "synthetic_responses_total",
			Help:      "Series responses served from the fallback generator",
		},
		[]string{"endpoint", "kind"},
	)

	StreamSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "proxypull",
			Subsystem: "stream",
			Name:      "sessions",
			Help:      "Open series stream sessions",
		},
	)

	StreamFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proxypull",
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Series stream results by outcome: sent, stale, error",
		},
		[]string{"outcome"},
	)
)

// Register adds the collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, SyntheticResponses, StreamSessions, StreamFrames)
	})
}
