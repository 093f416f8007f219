package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Capture results as recorded in rf_captures_total.
const (
	resultNew      = "new"
	resultMatched  = "matched"
	resultRejected = "rejected"
	resultInvalid  = "invalid"
)

type decoderMetrics struct {
	registry      *prometheus.Registry
	captures      *prometheus.CounterVec
	decodeSeconds prometheus.Histogram
	codes         *prometheus.GaugeVec
	subscribers   prometheus.Gauge
	encodes       prometheus.Counter
}

// newDecoderMetrics registers the metrics on a registry of their own so
// several servers can live in one process.
func newDecoderMetrics() *decoderMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &decoderMetrics{
		registry: reg,
		captures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rf_captures_total",
				Help: "Captures received, by collector and result",
			},
			[]string{"collector", "result"},
		),
		decodeSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rf_decode_seconds",
				Help:    "Time spent decoding one capture",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
		),
		codes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rf_codes",
				Help: "Distinct codes learned, by collector",
			},
			[]string{"collector"},
		),
		subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rf_stream_subscribers",
				Help: "Open websocket stream connections",
			},
		),
		encodes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rf_encodes_total",
				Help: "Pulse trains synthesized",
			},
		),
	}
}

func (m *decoderMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
