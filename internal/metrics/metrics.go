// Package metrics exposes Prometheus collectors for the analysis service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	analysesTotal              *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	fetchRetriesTotal          prometheus.Counter
	enrichQueriesTotal         *prometheus.CounterVec
	deliveriesTotal            *prometheus.CounterVec
	deliveryQueueDepth         prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		analysesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscope_analyses_total",
				Help: "Total number of analyses run, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadscope_fetch_duration_seconds",
				Help:    "Histogram of storefront fetch latencies, labeled by mode.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"mode"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadscope_fetch_retries_total",
				Help: "Total number of storefront fetch retries.",
			},
		)

		enrichQueriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscope_enrich_queries_total",
				Help: "Total enrichment queries issued, labeled by kind and status.",
			},
			[]string{"kind", "status"},
		)

		deliveriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscope_deliveries_total",
				Help: "Total webhook delivery outcomes.",
			},
			[]string{"status"},
		)

		deliveryQueueDepth = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadscope_delivery_queue_depth",
				Help: "Number of deliveries currently persisted in the retry queue.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAnalysis increments the analysis counter for the given outcome.
func ObserveAnalysis(outcome string) {
	if analysesTotal != nil {
		analysesTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveFetch records a completed storefront fetch.
func ObserveFetch(mode string, duration time.Duration) {
	if fetchDurationSeconds != nil {
		fetchDurationSeconds.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

// ObserveFetchRetry counts one storefront fetch retry.
func ObserveFetchRetry() {
	if fetchRetriesTotal != nil {
		fetchRetriesTotal.Inc()
	}
}

// ObserveEnrichQuery records one enrichment query outcome.
func ObserveEnrichQuery(kind string, ok bool) {
	if enrichQueriesTotal == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	enrichQueriesTotal.WithLabelValues(kind, status).Inc()
}

// ObserveDelivery records a webhook delivery outcome.
func ObserveDelivery(status string) {
	if deliveriesTotal != nil {
		deliveriesTotal.WithLabelValues(status).Inc()
	}
}

// SetQueueDepth updates the queued-delivery gauge.
func SetQueueDepth(n int) {
	if deliveryQueueDepth != nil {
		deliveryQueueDepth.Set(float64(n))
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
