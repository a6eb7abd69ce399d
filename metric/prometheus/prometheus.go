// Package prometheus is the Prometheus-backed metric.Collector,
// grounded on metric/prometheus/prometheus.go: a promauto registry for
// the metrics, a /metrics endpoint, and go-http-metrics middleware
// wiring for HTTP handlers.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpmetrics "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	middlewarestd "github.com/slok/go-http-metrics/middleware/std"

	"github.com/git-lfs/lfscore/metric"
)

// DurationBuckets mirrors the teacher's default Prometheus histogram
// buckets (seconds).
var DurationBuckets = []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320}

type collector struct{}

// NewCollector returns a metric.Collector backed by the default
// Prometheus registry.
func NewCollector() metric.Collector {
	return collector{}
}

func (collector) NewCounter(name, help string) metric.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
}

func (collector) NewGauge(name, help string) metric.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

func (collector) NewHistogram(name, help string, buckets []float64) metric.Histogram {
	if buckets == nil {
		buckets = DurationBuckets
	}
	return promauto.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
}

// WrapMetricsEndpoint attaches the Prometheus "/metrics" handler to
// mux. The handler itself is not wrapped in go-http-metrics
// middleware.
func WrapMetricsEndpoint(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}

// WrapHandler instruments handler with request duration/count
// metrics under the given label, the same go-http-metrics middleware
// used by the teacher's server.
func WrapHandler(label string, handler http.Handler) http.Handler {
	mdlw := middleware.New(middleware.Config{
		Recorder: httpmetrics.NewRecorder(httpmetrics.Config{
			DurationBuckets: DurationBuckets,
		}),
	})
	return middlewarestd.Handler(label, mdlw, handler)
}
