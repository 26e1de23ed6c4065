// Package metrics exposes Prometheus instrumentation for the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the API metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Requests    *prometheus.CounterVec
	Durations   *prometheus.HistogramVec
	Evaluations *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radex_requests_total",
		Help: "Total number of handled API requests, labeled by route and status code.",
	}, []string{"route", "code"}))
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radex_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"route"})
	if err := reg.Register(durations); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, errors.Wrap(err, "error registering radex_request_duration_seconds")
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, errors.New("radex_request_duration_seconds already registered with incompatible type")
		}
		durations = existing
	}

	evaluations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radex_evaluations_total",
		Help: "Total number of source evaluations, labeled by shape.",
	}, []string{"shape"}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:    gatherer,
		Requests:    requests,
		Durations:   durations,
		Evaluations: evaluations,
	}, nil
}

// Handler exposes the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ObserveEvaluation counts one evaluated source of the given shape.
func (c *Collector) ObserveEvaluation(shape string) {
	if c == nil {
		return
	}
	c.Evaluations.WithLabelValues(shape).Inc()
}

// Instrument wraps h and records the request count and latency under route.
func (c *Collector) Instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	if c == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		c.Requests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		c.Durations.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, errors.New("counter already registered with incompatible type")
		}
		return nil, errors.Wrap(err, "error registering counter")
	}
	return vec, nil
}
