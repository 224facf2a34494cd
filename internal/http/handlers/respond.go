// Centralized response helpers.
//
// abortError is the single point translating service-layer errors into
// problem-detail responses: the closed kind set lives here and in the problem
// package, never scattered across handlers. Adding a new error kind means
// extending this switch, not registering a new handler.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/http/problem"
	"github.com/okrtracker/go-okr-backend/internal/services"
	"github.com/okrtracker/go-okr-backend/internal/validate"
)

// ok writes a success JSON response.
func ok(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// abortError renders err as a problem-detail response. Recognized service
// errors map to their stable kinds; accumulated validation failures become a
// 422 with the per-field error map; anything else is treated as unexpected
// (logged server-side, generic 500 to the client).
func abortError(c *gin.Context, err error) {
	var ve validate.Errors
	if errors.As(err, &ve) {
		problem.Abort(c, problem.FromValidation(ve))
		return
	}

	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		problem.Abort(c, problem.New(problem.TypeUsernameExists, http.StatusBadRequest,
			"Username already registered"))
	case errors.Is(err, services.ErrInvalidCredentials):
		problem.Abort(c, problem.New(problem.TypeInvalidCredentials, http.StatusBadRequest,
			"Incorrect username or password"))
	case errors.Is(err, services.ErrDuplicateObjective):
		problem.Abort(c, problem.New(problem.TypeDuplicateObjective, http.StatusBadRequest,
			"Objective in the same period already exists"))
	case errors.Is(err, services.ErrObjectiveNotFound):
		problem.Abort(c, problem.New(problem.TypeResourceNotFound, http.StatusNotFound,
			"Objective not found"))
	case errors.Is(err, services.ErrKeyResultNotFound):
		problem.Abort(c, problem.New(problem.TypeResourceNotFound, http.StatusNotFound,
			"KeyResult not found"))
	case errors.Is(err, services.ErrAccessDenied):
		// Policy: ownership mismatch reads as not-found so existence is
		// never confirmed to non-owners.
		problem.Abort(c, problem.New(problem.TypeAccessDenied, http.StatusNotFound,
			"Objective not found or access denied"))
	default:
		problem.AbortUnexpected(c, err)
	}
}

// abortNotFound renders the uniform missing-resource problem for malformed or
// unknown path ids.
func abortNotFound(c *gin.Context, detail string) {
	problem.Abort(c, problem.New(problem.TypeResourceNotFound, http.StatusNotFound, detail))
}

// abortBadBody renders an unparseable request body as a validation problem so
// clients see the same 422 shape for malformed JSON and failed field rules.
func abortBadBody(c *gin.Context) {
	problem.Abort(c, problem.FromValidation(validate.Errors{
		"body": {"invalid JSON payload"},
	}))
}
