// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind input, call application services,
// and translate results into HTTP responses. Every failure path funnels
// through the centralized dispatcher in respond.go, so handlers never format
// error bodies themselves and the problem-detail wire shape stays uniform.
package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/domain"
	"github.com/okrtracker/go-okr-backend/internal/services"
	"github.com/okrtracker/go-okr-backend/internal/validate"
)

//
// Service contracts (context-aware)
//

// AccountService defines signup/login operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AccountService interface {
	// Signup registers a new user and returns a signed access token.
	Signup(ctx context.Context, username, password string) (string, error)
	// Login verifies credentials and returns a signed access token.
	Login(ctx context.Context, username, password string) (string, error)
}

// ObjectiveService defines objective lifecycle operations.
type ObjectiveService interface {
	Create(ctx context.Context, ownerID uint, in validate.ObjectiveValues) (*domain.Objective, error)
	List(ctx context.Context, ownerID uint, skip, limit int) ([]domain.Objective, error)
	Get(ctx context.Context, id, ownerID uint) (*domain.Objective, error)
	Update(ctx context.Context, id, ownerID uint, in validate.ObjectiveValues) (*domain.Objective, error)
	Delete(ctx context.Context, id, ownerID uint) error
}

// KeyResultService defines key-result lifecycle operations.
type KeyResultService interface {
	Create(ctx context.Context, objectiveID, ownerID uint, in validate.KeyResultValues) (*domain.KeyResult, error)
	List(ctx context.Context, objectiveID, ownerID uint) ([]domain.KeyResult, error)
	Update(ctx context.Context, id, ownerID uint, in validate.KeyResultValues) (*domain.KeyResult, error)
	Delete(ctx context.Context, id, ownerID uint) error
}

// StatsService computes progress aggregates for the caller.
type StatsService interface {
	Overview(ctx context.Context, ownerID uint) (*services.StatsOverview, error)
}

// ReportService builds per-objective exports.
type ReportService interface {
	Objective(ctx context.Context, objectiveID, ownerID uint) (*services.ObjectiveReport, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for accounts, objectives, key results,
// stats, and reports. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	accountSvc AccountService
	objSvc     ObjectiveService
	krSvc      KeyResultService
	statsSvc   StatsService
	reportSvc  ReportService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(accountSvc AccountService, objSvc ObjectiveService, krSvc KeyResultService, statsSvc StatsService, reportSvc ReportService) *Handlers {
	return &Handlers{
		accountSvc: accountSvc,
		objSvc:     objSvc,
		krSvc:      krSvc,
		statsSvc:   statsSvc,
		reportSvc:  reportSvc,
	}
}

// pathID parses the :id (or named) path parameter as an unsigned integer.
// ok is false when the segment is not a positive number; callers treat that
// the same as a missing resource so malformed ids do not leak routing detail.
func pathID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// atoiDefault converts a query value to an int, falling back to def when the
// value is empty or unparseable.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
