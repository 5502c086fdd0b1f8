// Package metrics exposes Prometheus collectors for the careers intake service.
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

// Result label values shared by the strategy and fallback collectors.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	submissionsTotal           *prometheus.CounterVec
	strategyAttemptsTotal      *prometheus.CounterVec
	strategyDurationSeconds    *prometheus.HistogramVec
	attachmentFailuresTotal    *prometheus.CounterVec
	fallbackWritesTotal        *prometheus.CounterVec
	rateLimitedTotal           *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		submissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careers_submissions_total",
				Help: "Total number of submissions routed, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		strategyAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careers_strategy_attempts_total",
				Help: "Total number of CRM strategy attempts, labeled by strategy and result.",
			},
			[]string{"strategy", "result"},
		)

		strategyDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "careers_strategy_duration_seconds",
				Help:    "Histogram of CRM strategy attempt latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"strategy"},
		)

		attachmentFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careers_attachment_failures_total",
				Help: "Attachments that could not be linked to a created record, labeled by strategy.",
			},
			[]string{"strategy"},
		)

		fallbackWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careers_fallback_writes_total",
				Help: "Local fallback log writes, labeled by result.",
			},
			[]string{"result"},
		)

		rateLimitedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careers_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter, labeled by route.",
			},
			[]string{"route"},
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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveSubmission counts a routed submission by kind and outcome.
func ObserveSubmission(kind, outcome string) {
	Init()
	submissionsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveStrategyAttempt records one strategy attempt and its latency.
func ObserveStrategyAttempt(strategy string, err error, duration time.Duration) {
	Init()
	strategyAttemptsTotal.WithLabelValues(strategy, result(err)).Inc()
	strategyDurationSeconds.WithLabelValues(strategy).Observe(duration.Seconds())
}

// ObserveAttachmentFailure counts an attachment that was not linked to its record.
func ObserveAttachmentFailure(strategy string) {
	Init()
	attachmentFailuresTotal.WithLabelValues(strategy).Inc()
}

// ObserveFallbackWrite counts a fallback log write.
func ObserveFallbackWrite(err error) {
	Init()
	fallbackWritesTotal.WithLabelValues(result(err)).Inc()
}

// ObserveRateLimited counts a request rejected by the rate limiter.
func ObserveRateLimited(route string) {
	Init()
	rateLimitedTotal.WithLabelValues(route).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
