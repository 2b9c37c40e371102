package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ScoreLatency        prometheus.Histogram
	PredictionsTotal    *prometheus.CounterVec
	ReloadsTotal        *prometheus.CounterVec
	ModelLabels         prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bunrui_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bunrui_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		ScoreLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bunrui_score_latency_seconds",
				Help:    "Model scoring latency in seconds, including the wait for the model lock.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
		),
		PredictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bunrui_predictions_total",
				Help: "Total classify results by predicted label.",
			},
			[]string{"label"},
		),
		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bunrui_model_reloads_total",
				Help: "Model reloads by outcome (ok, error).",
			},
			[]string{"result"},
		),
		ModelLabels: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bunrui_model_labels",
				Help: "Number of labels of the served model.",
			},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ScoreLatency,
		m.PredictionsTotal,
		m.ReloadsTotal,
		m.ModelLabels,
	)
	return m
}

// Handler returns the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
