// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file adapts the sliding-window admission controller to the request
// pipeline. Denied requests short-circuit to the problem renderer with a
// Retry-After hint and never reach the handler chain.
//
// Notes:
//   - The limiter is process-local. For horizontally scaled deployments,
//     prefer a distributed limiter (e.g., Redis-backed) to enforce global
//     limits.
//   - The limiter is intended for edge-level abuse control; it is not an
//     authorization mechanism.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/http/problem"
	"github.com/okrtracker/go-okr-backend/internal/ratelimit"
)

// keyFunc selects the identity used to key an admission window.
//
// Implementations should return a stable string for the duration of a request
// (e.g., "user:<id>" or "ip:<addr>").
type keyFunc func(*gin.Context) string

// KeyByClientIP returns a keyFunc keyed by the client network identity. The
// key is prefixed to leave room for other namespaces (e.g. per-user keys)
// without collisions.
func KeyByClientIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// RateLimit returns a Gin middleware enforcing sliding-window admission per
// client key. On denial it emits:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: <seconds>
//	{
//	  "type":   "https://api.okr.example.com/probs/rate-limit",
//	  "title":  "Too Many Requests",
//	  "status": 429,
//	  "detail": "Rate limit exceeded. Retry after <seconds> seconds.",
//	  "correlation_id": "<uuid>"
//	}
func RateLimit(limiter *ratelimit.SlidingWindow, keyFn keyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Check(keyFn(c), time.Now())
		if d.Allowed {
			c.Next()
			return
		}

		retry := int(math.Ceil(d.RetryAfter.Seconds()))
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		problem.Abort(c, problem.New(
			problem.TypeRateLimit,
			http.StatusTooManyRequests,
			"Rate limit exceeded. Retry after "+strconv.Itoa(retry)+" seconds.",
		))
	}
}
