package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixly_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fixly_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	quotaBlockedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fixly_quota_blocked_total",
			Help: "Applications blocked by the free tier quota",
		},
	)

	paymentCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixly_payment_callbacks_total",
			Help: "Payment gateway callbacks by outcome",
		},
		[]string{"outcome"},
	)
)

// MetricsMiddleware собирает метрики HTTP по шаблону маршрута,
// а не по сырому пути, чтобы не взрывать кардинальность.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

// CountQuotaBlocked инкрементирует счетчик отказов по квоте.
func CountQuotaBlocked() {
	quotaBlockedTotal.Inc()
}

// CountPaymentCallback инкрементирует счетчик callback'ов по исходу
// ("accepted", "rejected", "duplicate").
func CountPaymentCallback(outcome string) {
	paymentCallbacksTotal.WithLabelValues(outcome).Inc()
}
