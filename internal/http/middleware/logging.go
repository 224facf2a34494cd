// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides structured request logging and a panic-safe recovery
// handler:
//
//   - RequestLogger() emits structured access logs with request/response
//     metadata (latency, status, sizes), attaches a request-scoped
//     zerolog.Logger, selects log level by outcome (info/warn/error), and
//     masks credential-bearing headers before they reach the log sink.
//   - Recovery() converts panics into problem-detail 500 responses while
//     preserving the correlation id and emitting a stack trace to logs.
//   - LoggerFrom() retrieves the request-scoped logger to enrich logs within
//     handlers and services.
//
// Compose after Correlation() so log lines and panic bodies carry the id.
package middleware

import (
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/okrtracker/go-okr-backend/internal/http/problem"
)

// maxQueryLogLength caps the number of bytes of the raw query string logged.
const maxQueryLogLength = 2048

// maskedHeaders are request headers whose values are replaced by MaskSecret
// before logging. Lookup is case-insensitive.
var maskedHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
}

// RequestLogger writes a structured access log for each request and response.
//
// Features:
//   - Records method, path (route when available), remote IP, UA, correlation
//     id, request size, response status, latency, and bytes written.
//   - Stores a request-scoped zerolog.Logger in the Gin context (key "logger")
//     so that downstream code can emit enriched logs tied to the request.
//   - Masks Authorization/Cookie values via MaskSecret; raw credentials never
//     reach the sink.
//   - Chooses log level based on outcome:
//     error() for 5xx or when Gin context contains errors,
//     warn()  for 4xx,
//     info()  otherwise.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			// Fallback when route not matched / 404.
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("correlation_id", CorrelationID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Str("authorization", maskHeader(c, "Authorization")).
			// ContentLength can be -1 if unknown.
			Int64("bytes_in", c.Request.ContentLength).
			Logger()

		// Make it available to handlers/services.
		c.Set("logger", &l)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		bytesOut := c.Writer.Size()

		ev := l.With().
			Int("status", status).
			Dur("latency", latency).
			Int("bytes_out", bytesOut).
			Logger()

		switch {
		// If Gin collected errors, prefer error level.
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// Recovery intercepts panics, logs a stack trace, and returns a
// problem-detail 500 response.
//
// Behavior:
//   - Logs the panic value and stack trace with the correlation id.
//   - If no response has been written, renders an internal-error problem with
//     a generic client-facing detail; the panic text stays server-side.
//
// Place this after RequestLogger() so the panic is captured with structured
// context. It is the single point guaranteeing that no request escapes
// without a structured body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("correlation_id", CorrelationID(c)).
					Msg("panic recovered")

				// Only write if nothing has been written yet.
				if !c.Writer.Written() {
					problem.Abort(c, problem.New(
						problem.TypeInternalError,
						500,
						"An internal error occurred. Contact support with the correlation id.",
					))
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If a logger was not previously attached by RequestLogger(), a fallback
// logger is returned (without request-scoped fields). Callers can safely use
// the result without nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get("logger"); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// maskHeader returns the masked value of a request header, or "" when absent.
func maskHeader(c *gin.Context, name string) string {
	v := c.GetHeader(name)
	if v == "" {
		return ""
	}
	if _, ok := maskedHeaders[strings.ToLower(name)]; ok {
		return MaskSecret(v)
	}
	return v
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
//
// Note: This operates on bytes (not runes) which is acceptable for logging.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
