package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations *prometheus.CounterVec
	signals     *prometheus.CounterVec
	riskLevel   *prometheus.GaugeVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
	cacheHits   *prometheus.CounterVec
}

// Option configures the recorder.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
}

// WithRegisterer registers collectors on reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// New creates a new Prometheus metrics recorder.
func New(opts ...Option) *Recorder {
	o := &options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(o)
	}
	factory := promauto.With(o.registerer)

	return &Recorder{
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_evaluations_total",
				Help: "Total number of model evaluations run",
			},
			[]string{"ticker"},
		),
		signals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_signals_total",
				Help: "Trading signals generated by label",
			},
			[]string{"ticker", "label"},
		),
		riskLevel: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_risk_level",
				Help: "Current risk level per ticker (0 low, 1 medium, 2 high)",
			},
			[]string{"ticker"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_last_price",
				Help: "Last recorded price for a ticker",
			},
			[]string{"ticker"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_cache_lookups_total",
				Help: "Result cache lookups by kind and outcome",
			},
			[]string{"kind", "hit"},
		),
	}
}

// RecordEvaluation counts a completed evaluation.
func (r *Recorder) RecordEvaluation(ticker string) {
	r.evaluations.WithLabelValues(ticker).Inc()
}

// RecordSignal counts a generated signal.
func (r *Recorder) RecordSignal(ticker, label string) {
	r.signals.WithLabelValues(ticker, label).Inc()
}

// RecordRiskLevel sets the risk gauge for a ticker.
func (r *Recorder) RecordRiskLevel(ticker, level string) {
	var v float64
	switch level {
	case "MEDIUM":
		v = 1
	case "HIGH":
		v = 2
	}
	r.riskLevel.WithLabelValues(ticker).Set(v)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a ticker.
func (r *Recorder) RecordLastPrice(ticker string, price float64) {
	r.lastPrice.WithLabelValues(ticker).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCacheHit counts a result cache lookup.
func (r *Recorder) RecordCacheHit(kind string, hit bool) {
	r.cacheHits.WithLabelValues(kind, strconv.FormatBool(hit)).Inc()
}
