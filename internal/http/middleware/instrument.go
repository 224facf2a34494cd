// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request instrumentation pipeline: a correlation-id
// injector and a response-time recorder. Together with Recovery() they
// guarantee that every request, including one that fails inside the
// middleware chain itself, leaves with a correlation id, an elapsed-time
// header, and exactly one recorded response-time sample.
//
// Design notes:
//   - Correlation() must run first so every later stage (logs, problem
//     bodies, samples) sees the id.
//   - Timing() wraps the response writer; the elapsed-time header has to be
//     injected before the first byte is flushed, so it is computed at
//     WriteHeader time while the recorded sample uses the full handler
//     duration.
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/okrtracker/go-okr-backend/internal/http/problem"
	"github.com/okrtracker/go-okr-backend/internal/metrics"
)

const (
	// correlationKey is the Gin context key under which the correlation id is stored.
	correlationKey = "correlationID"
	// HeaderResponseTime carries the elapsed time, formatted as "<N.NN>ms".
	HeaderResponseTime = "X-Response-Time"
)

// Correlation attaches (or propagates) a correlation identifier per request.
//
// Behavior:
//   - If the incoming request has a non-empty X-Correlation-ID header, that
//     value is reused. Otherwise, a new UUIDv4 is generated.
//   - The id is written back to the response header and stored in the Gin
//     context so downstream middleware and handlers can rely on it.
//
// Place this first in the chain.
func Correlation() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(problem.HeaderCorrelationID)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Set(correlationKey, cid)
		c.Writer.Header().Set(problem.HeaderCorrelationID, cid)
		c.Next()
	}
}

// CorrelationID returns the request's correlation id, or "" when
// Correlation() is not installed.
func CorrelationID(c *gin.Context) string {
	if v, ok := c.Get(correlationKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.Writer.Header().Get(problem.HeaderCorrelationID)
}

// timedWriter injects the X-Response-Time header just before the response
// status is flushed, since headers cannot change after the first write.
type timedWriter struct {
	gin.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *timedWriter) stamp() {
	if w.stamped {
		return
	}
	w.stamped = true
	ms := metrics.RoundMS(float64(time.Since(w.start)) / float64(time.Millisecond))
	w.Header().Set(HeaderResponseTime, fmt.Sprintf("%.2fms", ms))
}

// WriteHeader stamps the timing header before delegating.
func (w *timedWriter) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

// Write stamps the timing header before the first body byte.
func (w *timedWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

// WriteString stamps the timing header before the first body byte.
func (w *timedWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

// Timing measures each request and appends one ResponseTimeSample to the
// injected registry, including for requests whose failure was converted
// downstream. It also decorates the response with the X-Response-Time header.
//
// The registry is passed in at construction rather than held as package state
// so tests can isolate it.
func Timing(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		tw := &timedWriter{ResponseWriter: c.Writer, start: start}
		c.Writer = tw

		c.Next()

		elapsed := metrics.RoundMS(float64(time.Since(start)) / float64(time.Millisecond))
		path := c.FullPath()
		if path == "" {
			// Fallback when route not matched / 404.
			path = c.Request.URL.Path
		}
		reg.Record(metrics.Sample{
			Path:           path,
			Method:         c.Request.Method,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMS: elapsed,
			Timestamp:      start,
			CorrelationID:  CorrelationID(c),
		})
	}
}
