package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ventia_chat_requests_total",
			Help: "Total number of chat requests by classified intent.",
		},
		[]string{"intent"},
	)
	chatAnswerLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ventia_chat_answer_latency_ms",
			Help:    "End-to-end chat answer latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2000, 5000, 10000},
		},
	)
	candidateAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ventia_candidate_attempts",
			Help:    "Number of execution attempts per answered data query.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
	candidateFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ventia_candidate_failures_total",
			Help: "Total number of failed candidate executions by strategy.",
		},
		[]string{"strategy"},
	)
	lastResortTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ventia_last_resort_total",
			Help: "Total number of times the last-resort aggregate was executed.",
		},
	)
	statsCacheRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ventia_stats_cache_refresh_total",
			Help: "Total number of tenant stats cache refreshes by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		chatRequestsTotal,
		chatAnswerLatencyMs,
		candidateAttempts,
		candidateFailuresTotal,
		lastResortTotal,
		statsCacheRefreshTotal,
	)
}

func ObserveChatAnswer(intent string, attempts int, elapsed time.Duration) {
	chatRequestsTotal.WithLabelValues(intent).Inc()
	chatAnswerLatencyMs.Observe(float64(elapsed.Milliseconds()))
	if attempts > 0 {
		candidateAttempts.Observe(float64(attempts))
	}
}

func IncrementCandidateFailure(strategy string) {
	candidateFailuresTotal.WithLabelValues(strategy).Inc()
}

func IncrementLastResort() {
	lastResortTotal.Inc()
}

func IncrementStatsCacheRefresh(outcome string) {
	statsCacheRefreshTotal.WithLabelValues(outcome).Inc()
}
