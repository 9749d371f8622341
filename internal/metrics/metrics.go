// Package metrics holds the Prometheus instruments shared by the PRTG client,
// the collector and the storage layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every instrument the tool exports
type Metrics struct {
	Registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	Retries        *prometheus.CounterVec
	RequestSeconds *prometheus.HistogramVec
	Samples        *prometheus.CounterVec
	Records        *prometheus.CounterVec
	SensorsSeen    prometheus.Counter
}

// New registers all instruments on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prtgx",
			Name:      "api_requests_total",
			Help:      "PRTG API requests by endpoint and result.",
		}, []string{"endpoint", "result"}),
		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prtgx",
			Name:      "api_retries_total",
			Help:      "PRTG API attempts that were retried.",
		}, []string{"endpoint"}),
		RequestSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "prtgx",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of single PRTG API attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"endpoint"}),
		Samples: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prtgx",
			Name:      "historic_samples_total",
			Help:      "Historic samples by classification.",
		}, []string{"class"}),
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prtgx",
			Name:      "records_total",
			Help:      "Availability records by persistence outcome.",
		}, []string{"outcome"}),
		SensorsSeen: f.NewCounter(prometheus.CounterOpts{
			Namespace: "prtgx",
			Name:      "sensors_processed_total",
			Help:      "Sensors the collector processed.",
		}),
	}
}
