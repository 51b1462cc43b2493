// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	scrapeRunsTotal            *prometheus.CounterVec
	scrapeArticlesTotal        *prometheus.CounterVec
	scrapeBytesTotal           *prometheus.CounterVec
	scrapeDurationSeconds      prometheus.Histogram
	notesTotal                 *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
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

		scrapeRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrape_runs_total",
				Help: "Total number of scrape runs, labeled by outcome.",
			},
			[]string{"status"},
		)

		scrapeArticlesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrape_articles_total",
				Help: "Total number of extracted articles, labeled by insert result.",
			},
			[]string{"result"},
		)

		scrapeBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrape_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		scrapeDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scrape_fetch_duration_seconds",
				Help:    "Histogram of source page fetch latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		)

		notesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notes_total",
				Help: "Total number of note operations, labeled by op.",
			},
			[]string{"op"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveFetch records the size and latency of a source page fetch.
func ObserveFetch(site string, bytesFetched int, duration time.Duration) {
	if bytesFetched > 0 {
		scrapeBytesTotal.WithLabelValues(SanitizeSite(site)).Add(float64(bytesFetched))
	}
	scrapeDurationSeconds.Observe(duration.Seconds())
}

// ObserveScrape records the outcome of one scrape run.
func ObserveScrape(status string, created, failed int) {
	scrapeRunsTotal.WithLabelValues(status).Inc()
	if created > 0 {
		scrapeArticlesTotal.WithLabelValues("created").Add(float64(created))
	}
	if failed > 0 {
		scrapeArticlesTotal.WithLabelValues("failed").Add(float64(failed))
	}
}

// ObserveNote increments the note operation counter.
func ObserveNote(op string) {
	notesTotal.WithLabelValues(op).Inc()
}
