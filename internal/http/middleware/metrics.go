// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic, complementing
// the JSON snapshot served at /metrics. The Prometheus() middleware measures
// request counts, latencies, and in-flight concurrency with careful attention
// to label cardinality:
//
//   - method:   HTTP method verb (GET/POST/…)
//   - path:     the registered Gin route (e.g. /objectives/:id); falls back to
//     the raw URL path when no route matched
//   - status:   numeric status code as a string (e.g. "200", "404")
//
// All collectors are safe for concurrent use.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// We intentionally omit status to keep latency histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets, // suitable for general HTTP latency
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight (currently processing) requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpRateLimited counts requests denied by the sliding-window limiter.
	httpRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Total number of HTTP requests denied by the rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRateLimited)
}

// Prometheus returns a Gin middleware that instruments requests.
//
// Semantics:
//   - Increments http_requests_total(method, path, status) per request
//   - Observes http_request_duration_seconds(method, path) on completion
//   - Tracks http_requests_inflight gauge during handler execution
//   - Increments http_requests_rate_limited_total on 429 responses
//
// Notes:
//   - The "path" label uses the registered route (c.FullPath()) to avoid
//     unbounded label cardinality from raw URLs. If no route matched (e.g.
//     404), it falls back to c.Request.URL.Path.
func Prometheus() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := c.Writer.Status()

		httpReqs.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur)
		if status == 429 {
			httpRateLimited.Inc()
		}
	}
}
