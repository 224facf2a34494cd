// Objective HTTP handlers.
//
// This file exposes REST endpoints for objective resources:
//   - POST   /objectives        (create)
//   - GET    /objectives        (list, skip/limit)
//   - GET    /objectives/{id}   (get)
//   - PUT    /objectives/{id}   (update)
//   - DELETE /objectives/{id}   (delete)
//
// All endpoints require a bearer token; ownership is enforced by the service
// layer. Payloads pass through the validation pipeline before any business
// rule runs, so a single 422 reports every offending field.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/http/middleware"
	"github.com/okrtracker/go-okr-backend/internal/validate"
)

// bindObjective binds and validates an objective payload. The returned error
// is either the malformed-body problem or accumulated field errors.
func bindObjective(c *gin.Context) (validate.ObjectiveValues, bool) {
	var in validate.ObjectiveInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortBadBody(c)
		return validate.ObjectiveValues{}, false
	}
	v, err := validate.Objective(in)
	if err != nil {
		abortError(c, err)
		return validate.ObjectiveValues{}, false
	}
	return v, true
}

// CreateObjective godoc
// @ID          createObjective
// @Summary     Create an objective
// @Description Creates an objective for the caller in the given period. A user holds at most one objective per period.
// @Tags        Objectives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body validate.ObjectiveInput true "Objective payload"
// @Success     200 {object} domain.Objective
// @Failure     400 {object} problem.Details "Objective in the same period already exists"
// @Failure     401 {object} problem.Details "Missing or invalid token"
// @Failure     422 {object} problem.Details "Validation failed"
// @Router      /objectives [post]
func (h *Handlers) CreateObjective(c *gin.Context) {
	v, okBody := bindObjective(c)
	if !okBody {
		return
	}

	o, err := h.objSvc.Create(c.Request.Context(), middleware.UserID(c), v)
	if err != nil {
		abortError(c, err)
		return
	}
	ok(c, o)
}

// ListObjectives godoc
// @ID          listObjectives
// @Summary     List objectives
// @Description Returns the caller's objectives with skip/limit pagination.
// @Tags        Objectives
// @Produce     json
// @Security    BearerAuth
// @Param       skip  query int false "Rows to skip"    default(0)
// @Param       limit query int false "Max rows"        default(50)
// @Success     200 {array} domain.Objective
// @Failure     401 {object} problem.Details "Missing or invalid token"
// @Router      /objectives [get]
func (h *Handlers) ListObjectives(c *gin.Context) {
	skip := atoiDefault(c.Query("skip"), 0)
	limit := atoiDefault(c.Query("limit"), 50)

	objs, err := h.objSvc.List(c.Request.Context(), middleware.UserID(c), skip, limit)
	if err != nil {
		abortError(c, err)
		return
	}
	ok(c, objs)
}

// GetObjective godoc
// @ID          getObjective
// @Summary     Get one objective
// @Tags        Objectives
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Objective ID"
// @Success     200 {object} domain.Objective
// @Failure     404 {object} problem.Details "Objective not found"
// @Router      /objectives/{id} [get]
func (h *Handlers) GetObjective(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		abortNotFound(c, "Objective not found")
		return
	}

	o, err := h.objSvc.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		abortError(c, err)
		return
	}
	ok(c, o)
}

// UpdateObjective godoc
// @ID          updateObjective
// @Summary     Update an objective
// @Tags        Objectives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path int                      true "Objective ID"
// @Param       body body validate.ObjectiveInput true "Objective payload"
// @Success     200 {object} domain.Objective
// @Failure     404 {object} problem.Details "Objective not found"
// @Failure     422 {object} problem.Details "Validation failed"
// @Router      /objectives/{id} [put]
func (h *Handlers) UpdateObjective(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		abortNotFound(c, "Objective not found")
		return
	}
	v, okBody := bindObjective(c)
	if !okBody {
		return
	}

	o, err := h.objSvc.Update(c.Request.Context(), id, middleware.UserID(c), v)
	if err != nil {
		abortError(c, err)
		return
	}
	ok(c, o)
}

// DeleteObjective godoc
// @ID          deleteObjective
// @Summary     Delete an objective
// @Tags        Objectives
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Objective ID"
// @Success     200 {object} map[string]bool
// @Failure     404 {object} problem.Details "Objective not found"
// @Router      /objectives/{id} [delete]
func (h *Handlers) DeleteObjective(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		abortNotFound(c, "Objective not found")
		return
	}

	if err := h.objSvc.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		abortError(c, err)
		return
	}
	ok(c, gin.H{"ok": true})
}
