// Package problem implements the RFC 7807 problem-details error model used by
// every failure path in the API: authentication failures, validation failures,
// domain errors, framework errors, and recovered panics all terminate here so
// the wire shape stays uniform.
//
// Conventions:
//   - Every error kind has a stable type URI and default title; kinds form a
//     closed set and are never invented ad hoc per handler.
//   - The status field in the body always equals the outer HTTP status code.
//   - The errors map is present if and only if the failure is a
//     field-validation failure.
//   - Responses carry Content-Type: application/problem+json and echo the
//     request's correlation id, so client-visible errors can be matched to
//     server logs without exposing internals.
//
// Example response:
//
//	HTTP/1.1 422 Unprocessable Entity
//	Content-Type: application/problem+json
//	{
//	  "type": "https://api.okr.example.com/probs/validation-error",
//	  "title": "Unprocessable Entity",
//	  "status": 422,
//	  "detail": "Validation failed",
//	  "instance": "/objectives",
//	  "errors": {"period_name": ["must be 'Q1 2025', 'Q2 2025', ..., 'Q4 2025', or 'FY 2025'"]},
//	  "correlation_id": "e1b9be03-4999-4289-9f03-999b042d65d6"
//	}
package problem

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/okrtracker/go-okr-backend/internal/validate"
)

// HeaderCorrelationID is the header carrying the request correlation id.
// Set by the instrumentation middleware, echoed on every response, and copied
// into every problem body.
const HeaderCorrelationID = "X-Correlation-ID"

// typeBase prefixes every non-blank problem type URI.
const typeBase = "https://api.okr.example.com/probs/"

// Stable problem type URIs (closed set).
const (
	TypeBlank              = "about:blank"
	TypeUsernameExists     = typeBase + "username-exists"
	TypeInvalidCredentials = typeBase + "invalid-credentials"
	TypeValidationError    = typeBase + "validation-error"
	TypeResourceNotFound   = typeBase + "resource-not-found"
	TypeAccessDenied       = typeBase + "access-denied"
	TypeDuplicateObjective = typeBase + "duplicate-objective"
	TypeUnauthorized       = typeBase + "unauthorized"
	TypeRateLimit          = typeBase + "rate-limit"
	TypeInternalError      = typeBase + "internal-error"
)

// ContentType is the media type of every problem response body.
const ContentType = "application/problem+json"

// Details is the wire shape of a problem response. Fields without a value are
// omitted from the serialized body, never emitted as null.
type Details struct {
	Type          string              `json:"type"`
	Title         string              `json:"title"`
	Status        int                 `json:"status"`
	Detail        string              `json:"detail,omitempty"`
	Instance      string              `json:"instance,omitempty"`
	Errors        map[string][]string `json:"errors,omitempty"`
	CorrelationID string              `json:"correlation_id,omitempty"`
}

// Problem is a typed failure carrying everything needed to render a Details
// body. It implements error so domain code can return it through ordinary
// error values.
type Problem struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	Errors   map[string][]string
}

// New builds a Problem for the given type URI, status, and occurrence detail.
// The title defaults to the standard reason phrase for the status.
func New(typ string, status int, detail string) *Problem {
	return &Problem{
		Type:   typ,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// FromValidation wraps an accumulated field-error map as a 422 validation
// problem. This is the only constructor that populates Errors.
func FromValidation(ve validate.Errors) *Problem {
	p := New(TypeValidationError, http.StatusUnprocessableEntity, "Validation failed")
	p.Errors = ve
	return p
}

// Abort renders p as the response and stops the handler chain. It fills
// defaults for missing fields: the title from the status code, the instance
// from the request URI, and the correlation id from the response header set
// by the instrumentation middleware.
func Abort(c *gin.Context, p *Problem) {
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	instance := p.Instance
	if instance == "" && c.Request != nil && c.Request.URL != nil {
		instance = c.Request.URL.RequestURI()
	}

	body := Details{
		Type:          p.Type,
		Title:         p.Title,
		Status:        p.Status,
		Detail:        p.Detail,
		Instance:      instance,
		Errors:        p.Errors,
		CorrelationID: CorrelationID(c),
	}

	// Gin only writes its own Content-Type when none is present.
	c.Header("Content-Type", ContentType)
	c.AbortWithStatusJSON(p.Status, body)
}

// CorrelationID returns the correlation id the instrumentation middleware
// stamped on the response, or "" when the middleware is not installed.
func CorrelationID(c *gin.Context) string {
	return c.Writer.Header().Get(HeaderCorrelationID)
}

// AbortUnexpected converts an unclassified error into a generic 500 problem.
// The triggering error is logged server-side with the correlation id; its
// message text never reaches the client body.
func AbortUnexpected(c *gin.Context, err error) {
	log.Error().
		Err(err).
		Str("correlation_id", CorrelationID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("unhandled error")

	Abort(c, New(TypeInternalError, http.StatusInternalServerError,
		"An internal error occurred. Contact support with the correlation id."))
}
