// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "middleman_recommendations_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "not_found", "invalid", "model_error", "shortfall", "error"
	)

	ParseStrategyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "middleman_parse_strategy_total",
			Help: "Number of times each reply parsing strategy produced the candidates",
		},
		[]string{"strategy"},
	)

	// Model collaborator
	ModelCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "middleman_model_call_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	ModelCallErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "middleman_model_call_errors_total",
			Help: "Total number of failed language model calls",
		},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "middleman_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "middleman_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// Background work
	ScheduledTaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "middleman_scheduled_task_runs_total",
			Help: "Scheduled task executions by result",
		},
		[]string{"task", "result"},
	)

	PendingSelections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "middleman_pending_selections",
			Help: "Suggestions offered over Telegram and not yet picked or expired",
		},
	)
)

// RecordAPIRequest records one served API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTaskRun records the result of a scheduled task.
func RecordTaskRun(task string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	ScheduledTaskRuns.WithLabelValues(task, result).Inc()
}

// Middleware instruments chi routes using the matched route pattern as label.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordAPIRequest(r.Method, route, status, time.Since(start))
	})
}
