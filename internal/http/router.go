// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as correlation IDs, response timing, logging/redaction, panic recovery,
// metrics, CORS, and rate limiting.
//
// Design goals:
//   - Observability first (correlation ids, timing header, Prometheus)
//   - Safe-by-default middleware ordering (Correlation → timing → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Uniform problem-detail error bodies on every failure path
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/okrtracker/go-okr-backend/internal/auth"
	"github.com/okrtracker/go-okr-backend/internal/config"
	"github.com/okrtracker/go-okr-backend/internal/domain"
	"github.com/okrtracker/go-okr-backend/internal/http/handlers"
	"github.com/okrtracker/go-okr-backend/internal/http/middleware"
	"github.com/okrtracker/go-okr-backend/internal/http/problem"
	"github.com/okrtracker/go-okr-backend/internal/metrics"
	"github.com/okrtracker/go-okr-backend/internal/ratelimit"
	"github.com/okrtracker/go-okr-backend/internal/repo"
	"github.com/okrtracker/go-okr-backend/internal/services"
)

// objectiveRepoShim adapts the repository free functions to the
// services.ObjectiveRepo interface expected by the ObjectiveService. This
// keeps services decoupled from the concrete repo package while reusing
// existing functions.
type objectiveRepoShim struct{}

// CreateObjective proxies repo.CreateObjective.
func (objectiveRepoShim) CreateObjective(ctx context.Context, db *gorm.DB, ownerID uint, title, periodName string) (*domain.Objective, error) {
	return repo.CreateObjective(ctx, db, ownerID, title, periodName)
}

// ObjectiveExistsForPeriod proxies repo.ObjectiveExistsForPeriod.
func (objectiveRepoShim) ObjectiveExistsForPeriod(ctx context.Context, db *gorm.DB, ownerID uint, periodName string) (bool, error) {
	return repo.ObjectiveExistsForPeriod(ctx, db, ownerID, periodName)
}

// ListObjectivesPage proxies repo.ListObjectivesPage.
func (objectiveRepoShim) ListObjectivesPage(ctx context.Context, db *gorm.DB, ownerID uint, offset, limit int) ([]domain.Objective, error) {
	return repo.ListObjectivesPage(ctx, db, ownerID, offset, limit)
}

// GetObjective proxies repo.GetObjective.
func (objectiveRepoShim) GetObjective(ctx context.Context, db *gorm.DB, id, ownerID uint) (*domain.Objective, error) {
	return repo.GetObjective(ctx, db, id, ownerID)
}

// UpdateObjective proxies repo.UpdateObjective.
func (objectiveRepoShim) UpdateObjective(ctx context.Context, db *gorm.DB, id, ownerID uint, title, periodName string) error {
	return repo.UpdateObjective(ctx, db, id, ownerID, title, periodName)
}

// DeleteObjective proxies repo.DeleteObjective.
func (objectiveRepoShim) DeleteObjective(ctx context.Context, db *gorm.DB, id, ownerID uint) error {
	return repo.DeleteObjective(ctx, db, id, ownerID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures instrumentation (correlation, timing, metrics),
// logging with secret redaction, rate limiting, CORS, the public endpoints,
// and the bearer-protected resource API.
//
// Middleware order matters:
//  1. Correlation: generate/propagate the correlation id
//  2. Timing: response-time header and per-request sample
//  3. RequestLogger: structured logs with secret masking
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Prometheus metrics
//  8. CORS
//  9. Rate limiter (per client IP)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, reg *metrics.Registry, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Correlate requests and logs
	r.Use(middleware.Correlation())

	// 2) Stamp X-Response-Time and record one sample per request
	r.Use(middleware.Timing(reg))

	// 3) Structured logging with redaction
	r.Use(middleware.RequestLogger())

	// 4) Panic recovery to a problem-detail 500 (with correlation id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress large responses
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus counters/histograms and the scrape endpoint
	r.Use(middleware.Prometheus())
	r.GET("/metrics/prometheus", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", problem.HeaderCorrelationID},
			ExposeHeaders:    []string{problem.HeaderCorrelationID, "X-Response-Time", "Retry-After", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", problem.HeaderCorrelationID},
			ExposeHeaders:    []string{problem.HeaderCorrelationID, "X-Response-Time", "Retry-After", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 9) Sliding-window rate limiter per client IP
	limiter := ratelimit.NewSlidingWindow(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	r.Use(middleware.RateLimit(limiter, middleware.KeyByClientIP()))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		problem.Abort(c, problem.New(problem.TypeResourceNotFound, http.StatusNotFound, "Route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		problem.Abort(c, problem.New(problem.TypeBlank, http.StatusMethodNotAllowed, "Method not allowed"))
	})

	// Dependency injection: services ← repo/db/token manager
	tokens := auth.NewManager(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.TokenTTL)
	accountSvc := &services.AccountService{DB: db, Tokens: tokens}
	objSvc := &services.ObjectiveService{DB: db, Repo: objectiveRepoShim{}}
	krSvc := &services.KeyResultService{DB: db}
	statsSvc := &services.StatsService{DB: db}
	reportSvc := &services.ReportService{DB: db}
	h := handlers.New(accountSvc, objSvc, krSvc, statsSvc, reportSvc)

	// Public endpoints
	r.GET("/health", h.Health)
	r.GET("/metrics", handlers.MetricsSnapshot(reg))
	r.GET("/period-templates", h.PeriodTemplates)
	r.POST("/signup", h.Signup)
	r.POST("/token", h.Token)

	if cfg.SwaggerEnabled {
		r.GET("/docs/*any", ginswagger.WrapHandler(swaggerfiles.Handler))
	}

	// Bearer-protected resource API
	authn := middleware.Auth(tokens, accountSvc.Resolve)
	api := r.Group("", authn)
	{
		// Objectives
		api.POST("/objectives", h.CreateObjective)
		api.GET("/objectives", h.ListObjectives)
		api.GET("/objectives/:id", h.GetObjective)
		api.PUT("/objectives/:id", h.UpdateObjective)
		api.DELETE("/objectives/:id", h.DeleteObjective)

		// Key results
		api.POST("/objectives/:id/key-results", h.CreateKeyResult)
		api.GET("/objectives/:id/key-results", h.ListKeyResults)
		api.PUT("/key-results/:id", h.UpdateKeyResult)
		api.DELETE("/key-results/:id", h.DeleteKeyResult)

		// Aggregates
		api.GET("/stats", h.Stats)
		api.GET("/reports/objective/:id", h.ObjectiveReport)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
