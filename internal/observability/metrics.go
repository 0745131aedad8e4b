package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	reviewRequestsTotal   *prometheus.CounterVec
	reviewLatencySeconds  *prometheus.HistogramVec
	reviewErrorsTotal     *prometheus.CounterVec
	scoreSubmissionsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for API observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		reviewRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_api_requests_total",
			Help: "Total number of review API requests served.",
		}, []string{"method", "route", "status"})

		reviewLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "review_api_latency_seconds",
			Help:    "Latency distribution for review API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		reviewErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_api_errors_total",
			Help: "Total number of error responses returned by review API endpoints.",
		}, []string{"method", "route", "status"})

		scoreSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_score_submissions_total",
			Help: "Total number of score submissions by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(reviewRequestsTotal, reviewLatencySeconds, reviewErrorsTotal, scoreSubmissionsTotal)
	})
}

// ReviewRequests exposes the counter for review API requests.
func ReviewRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewRequestsTotal
}

// ReviewLatency exposes the latency histogram for review API requests.
func ReviewLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return reviewLatencySeconds
}

// ReviewErrors exposes the counter for review API error responses.
func ReviewErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewErrorsTotal
}

// ScoreSubmissions exposes the counter for score submission outcomes.
func ScoreSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return scoreSubmissionsTotal
}
