// Package metrics exposes Prometheus collectors for the review service.
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

// Review sources used as the "source" label.
const (
	SourceAPI    = "api"
	SourceLoader = "loader"
	SourceScrape = "scrape"
)

var (
	reviewsAddedTotal          *prometheus.CounterVec
	reviewsStored              prometheus.Gauge
	loaderRowsTotal            *prometheus.CounterVec
	scrapeRequestsTotal        *prometheus.CounterVec
	scrapeDurationSeconds      prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		reviewsAddedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviews_added_total",
				Help: "Total number of reviews added to the collection, labeled by source.",
			},
			[]string{"source"},
		)

		reviewsStored = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "reviews_stored",
				Help: "Number of reviews currently held in memory.",
			},
		)

		loaderRowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loader_rows_total",
				Help: "Spreadsheet rows processed at start-up, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scrapeRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrape_requests_total",
				Help: "Total number of scrape requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scrapeDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scrape_duration_seconds",
				Help:    "Histogram of upstream fetch-and-extract latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
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

// ObserveReviewsAdded counts n reviews added from source and updates the stored gauge.
func ObserveReviewsAdded(source string, n int, stored int) {
	if n > 0 {
		reviewsAddedTotal.WithLabelValues(source).Add(float64(n))
	}
	reviewsStored.Set(float64(stored))
}

// ObserveLoaderRows records the outcome counts of a spreadsheet load.
func ObserveLoaderRows(loaded, skipped int) {
	loaderRowsTotal.WithLabelValues("loaded").Add(float64(loaded))
	loaderRowsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// ObserveScrape records a scrape attempt and how long the upstream round trip took.
func ObserveScrape(outcome string, duration time.Duration) {
	scrapeRequestsTotal.WithLabelValues(outcome).Inc()
	scrapeDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
