package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalyticsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockpulse",
			Subsystem: "analytics",
			Name:      "latency_seconds",
			Help:      "Latency of analytics endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AnalyticsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockpulse",
			Subsystem: "analytics",
			Name:      "errors_total",
			Help:      "Errors by analytics endpoint",
		},
		[]string{"endpoint"},
	)

	DashboardPartFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockpulse",
			Subsystem: "dashboard",
			Name:      "part_failures_total",
			Help:      "Dashboard sections that failed to compute",
		},
		[]string{"part"},
	)
)

// Register adds the collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalyticsLatency, AnalyticsErrors, DashboardPartFailures)
	})
}

// Observe records the latency of an endpoint call and counts it as an error when err is non-nil.
func Observe(endpoint string, start time.Time, err error) {
	AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		AnalyticsErrors.WithLabelValues(endpoint).Inc()
	}
}
