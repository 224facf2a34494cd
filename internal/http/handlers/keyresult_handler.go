// Key-result HTTP handlers.
//
// This file exposes REST endpoints for key-result resources:
//   - POST /objectives/{id}/key-results  (create under an owned objective)
//   - GET  /objectives/{id}/key-results  (list)
//   - PUT    /key-results/{id}           (update)
//   - DELETE /key-results/{id}           (delete)
//
// Ownership mismatches render as 404 (never 403) so that non-owners cannot
// confirm a resource exists.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/http/middleware"
	"github.com/okrtracker/go-okr-backend/internal/validate"
)

// bindKeyResult binds and validates a key-result payload.
func bindKeyResult(c *gin.Context) (validate.KeyResultValues, bool) {
	var in validate.KeyResultInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortBadBody(c)
		return validate.KeyResultValues{}, false
	}
	v, err := validate.KeyResult(in)
	if err != nil {
		abortError(c, err)
		return validate.KeyResultValues{}, false
	}
	return v, true
}

// CreateKeyResult godoc
// @ID          createKeyResult
// @Summary     Attach a key result to an objective
// @Tags        KeyResults
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path int                      true "Objective ID"
// @Param       body body validate.KeyResultInput true "Key-result payload"
// @Success     200 {object} domain.KeyResult
// @Failure     404 {object} problem.Details "Objective not found or access denied"
// @Failure     422 {object} problem.Details "Validation failed"
// @Router      /objectives/{id}/key-results [post]
func (h *Handlers) CreateKeyResult(c *gin.Context) {
	objectiveID, okID := pathID(c, "id")
	if !okID {
		abortNotFound(c, "Objective not found")
		return
	}
	v, okBody := bindKeyResult(c)
	if !okBody {
		return
	}

	kr, err := h.krSvc.Create(c.Request.Context(), objectiveID, middleware.UserID(c), v)
	if err != nil {
		abortError(c, err)
		return
	}
	ok(c, kr)
}

// ListKeyResults godoc
// @ID          listKeyResults
// @Summary     List key results of an objective
// @Tags        KeyResults
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Objective ID"
// @Success     200 {array} domain.KeyResult
// @Failure     404 {object} problem.Details "Objective not found or access denied"
// @Router      /objectives/{id}/key-results [get]
func (h *Handlers) ListKeyResults(c *gin.Context) {
	objectiveID, okID := pathID(c, "id")
	if !okID {
		abortNotFound(c, "Objective not found")
		return
	}

	krs, err := h.krSvc.List(c.Request.Context(), objectiveID, middleware.UserID(c))
	if err != nil {
		abortError(c, err)
		return
	}
	ok(c, krs)
}

// UpdateKeyResult godoc
// @ID          updateKeyResult
// @Summary     Update a key result
// @Tags        KeyResults
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path int                      true "Key-result ID"
// @Param       body body validate.KeyResultInput true "Key-result payload"
// @Success     200 {object} domain.KeyResult
// @Failure     404 {object} problem.Details "KeyResult not found"
// @Failure     422 {object} problem.Details "Validation failed"
// @Router      /key-results/{id} [put]
func (h *Handlers) UpdateKeyResult(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		abortNotFound(c, "KeyResult not found")
		return
	}
	v, okBody := bindKeyResult(c)
	if !okBody {
		return
	}

	kr, err := h.krSvc.Update(c.Request.Context(), id, middleware.UserID(c), v)
	if err != nil {
		abortError(c, err)
		return
	}
	ok(c, kr)
}

// DeleteKeyResult godoc
// @ID          deleteKeyResult
// @Summary     Delete a key result
// @Tags        KeyResults
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Key-result ID"
// @Success     200 {object} map[string]bool
// @Failure     404 {object} problem.Details "KeyResult not found"
// @Router      /key-results/{id} [delete]
func (h *Handlers) DeleteKeyResult(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		abortNotFound(c, "KeyResult not found")
		return
	}

	if err := h.krSvc.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		abortError(c, err)
		return
	}
	ok(c, gin.H{"ok": true})
}
