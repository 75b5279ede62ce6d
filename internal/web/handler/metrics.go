package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	btRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batchtrace_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	btRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "batchtrace_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	btLedgerAppendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batchtrace_ledger_appends_total",
		Help: "Total batch snapshots appended to the ledger.",
	})

	btHealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batchtrace_health_checks_total",
		Help: "Total ledger health probes by result.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		btRequestsTotal.WithLabelValues(method, path, status).Inc()
		btRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordLedgerAppend records one successful ledger append. Wired into the
// batch service via SetAppendRecord.
func RecordLedgerAppend() {
	btLedgerAppendsTotal.Inc()
}

// RecordHealthCheck records a ledger health probe result.
func RecordHealthCheck(success bool) {
	if success {
		btHealthChecksTotal.WithLabelValues("success").Inc()
	} else {
		btHealthChecksTotal.WithLabelValues("failure").Inc()
	}
}
