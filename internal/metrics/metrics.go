// Package metrics holds the Prometheus instrumentation of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for recorded opens.
const (
	OutcomeRecorded     = "recorded"
	OutcomeUnknownPixel = "unknown_pixel"
	OutcomeError        = "error"
)

var (
	PixelsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pixel_service",
		Name:      "pixels_created_total",
		Help:      "Tracking pixels created.",
	})

	OpensObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pixel_service",
		Name:      "opens_total",
		Help:      "Pixel open requests by recording outcome.",
	}, []string{"outcome"})

	ReportsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pixel_service",
		Name:      "reports_total",
		Help:      "Reports rendered by output format.",
	}, []string{"format"})

	CountersRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pixel_service",
		Name:      "counters_repaired_total",
		Help:      "Open counters realigned with event records by the recount worker.",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pixel_service",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pixel_service",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// HTTPMiddleware records per-route request counts and latencies. Routes
// are labeled by their registered pattern, not the raw path, to keep the
// label cardinality bounded.
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}
