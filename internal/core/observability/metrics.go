// Package observability holds the Prometheus collectors shared by the HTTP surface
// and the imagery client.
package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream"},
	)

	imageFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagery_fetch_total",
			Help: "Imagery render requests by dataset and outcome.",
		},
		[]string{"dataset", "outcome"},
	)

	imageBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagery_response_bytes",
			Help:    "Size of rendered images returned by the imagery API.",
			Buckets: prometheus.ExponentialBuckets(1<<10, 4, 8), // 1KiB to 16MiB
		},
	)
)

// Init registers the collectors on reg. With on=false observations become no-ops.
func Init(reg prometheus.Registerer, on bool) {
	enabled.Store(on)
	if !on || reg == nil {
		return
	}
	for _, c := range []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		upstreamLatencySeconds,
		imageFetches,
		imageBytes,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

// ObserveImageFetch records one hint image request; size is ignored on error.
func ObserveImageFetch(dataset string, err error, size int) {
	if !enabled.Load() {
		return
	}
	if err != nil {
		imageFetches.WithLabelValues(dataset, "error").Inc()
		return
	}
	imageFetches.WithLabelValues(dataset, "ok").Inc()
	imageBytes.Observe(float64(size))
}
