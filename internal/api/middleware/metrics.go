package middleware

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nexh/focus/internal/metrics"
)

// MetricsCollector counts requests for /status and feeds the prometheus
// collectors in package metrics.
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(requestCount, errorCount *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
	}
}

// Middleware returns middleware that counts requests and errors.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requestCount.Add(1)
		start := time.Now()

		// Wrap response writer to capture status
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		// Count errors (4xx and 5xx)
		if rw.statusCode >= 400 {
			mc.errorCount.Add(1)
		}

		metrics.HTTPRequests.WithLabelValues(r.Method, statusClass(rw.statusCode)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
