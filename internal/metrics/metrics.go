// Package metrics holds the Prometheus collectors of the portal.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector. Register them once per registry.
type Metrics struct {
	Submissions       *prometheus.CounterVec
	ResultWriteErrors prometheus.Counter
	ResultRetries     *prometheus.CounterVec
	ActiveAttempts    prometheus.Gauge
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examportal",
			Name:      "submissions_total",
			Help:      "Exam submissions that reached scoring, by trigger.",
		}, []string{"trigger"}),
		ResultWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "examportal",
			Name:      "result_write_failures_total",
			Help:      "Result writes that failed and left the attempt blocked.",
		}),
		ResultRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examportal",
			Name:      "result_retry_jobs_total",
			Help:      "Queued result writes processed by the retry worker, by outcome.",
		}, []string{"outcome"}),
		ActiveAttempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "examportal",
			Name:      "active_attempts",
			Help:      "Attempts entered in this process and not yet finished.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examportal",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "examportal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.Submissions, m.ResultWriteErrors, m.ResultRetries, m.ActiveAttempts, m.HTTPRequests, m.HTTPDuration)
	return m
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
