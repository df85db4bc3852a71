package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "progress_completions_total",
		Help: "Completion requests by item type and outcome (new, already).",
	}, []string{"item_type", "outcome"})

	moduleCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progress_module_completions_total",
		Help: "Module completion milestones claimed.",
	})

	externalEffects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "progress_external_effects_total",
		Help: "Chat platform effects by kind and outcome.",
	}, []string{"kind", "outcome"})
)

func ObserveCompletion(itemType string, newlyCompleted bool) {
	outcome := "already"
	if newlyCompleted {
		outcome = "new"
	}
	completions.WithLabelValues(itemType, outcome).Inc()
}

func ObserveModuleCompletion() {
	moduleCompletions.Inc()
}

// ObserveEffect counts one dispatcher effect. kind is e.g. "module_notification",
// outcome one of "sent", "skipped", "failed".
func ObserveEffect(kind, outcome string) {
	externalEffects.WithLabelValues(kind, outcome).Inc()
}

// Metrics records request counts and latency per route template.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if route == "" {
			route = "unknown"
		}
		method := c.Method()
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().StatusCode())).Inc()
		httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}
