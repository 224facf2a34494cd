// Miscellaneous HTTP handlers: health, period templates, progress stats,
// objective reports, and the metrics snapshot.
package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/domain"
	"github.com/okrtracker/go-okr-backend/internal/http/middleware"
	"github.com/okrtracker/go-okr-backend/internal/metrics"
	"github.com/okrtracker/go-okr-backend/internal/services"
)

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        System
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, gin.H{"status": "ok"})
}

// PeriodTemplates godoc
// @ID          periodTemplates
// @Summary     List selectable planning periods
// @Tags        Periods
// @Produce     json
// @Success     200 {array} domain.Period
// @Router      /period-templates [get]
func (h *Handlers) PeriodTemplates(c *gin.Context) {
	ok(c, domain.DefaultPeriodTemplates(time.Now()))
}

// Stats godoc
// @ID          stats
// @Summary     Progress overview across the caller's objectives
// @Tags        Stats
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.StatsOverview
// @Router      /stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	overview, err := h.statsSvc.Overview(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		abortError(c, err)
		return
	}
	ok(c, overview)
}

// ObjectiveReport godoc
// @ID          objectiveReport
// @Summary     Export an objective with its key results
// @Description Renders a CSV download by default; pass format=json for JSON.
// @Tags        Reports
// @Produce     text/csv
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  int    true  "Objective ID"
// @Param       format query string false "Output format (json or csv)" Enums(json, csv)
// @Success     200 {object} services.ObjectiveReport
// @Failure     404 {object} problem.Details "Objective not found"
// @Router      /reports/objective/{id} [get]
func (h *Handlers) ObjectiveReport(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		abortNotFound(c, "Objective not found")
		return
	}

	rep, err := h.reportSvc.Objective(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		abortError(c, err)
		return
	}

	if c.DefaultQuery("format", "csv") == "json" {
		ok(c, rep)
		return
	}
	writeReportCSV(c, rep)
}

// writeReportCSV renders one header row plus one row per key result.
func writeReportCSV(c *gin.Context, rep *services.ObjectiveReport) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("objective_%d_report.csv", rep.Objective.ID)))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "title", "metric", "target", "progress"})
	for _, row := range rep.KeyResults {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(row.ID), 10),
			row.Title,
			row.Metric,
			strconv.FormatFloat(row.Target, 'f', -1, 64),
			strconv.FormatFloat(row.Progress, 'f', -1, 64),
		})
	}
	w.Flush()
}

// MetricsSnapshot serves the in-process response-time statistics.
//
// @ID          metricsSnapshot
// @Summary     Response-time statistics collected in-process
// @Tags        System
// @Produce     json
// @Success     200 {object} metrics.Snapshot
// @Router      /metrics [get]
func MetricsSnapshot(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok(c, reg.Snapshot())
	}
}
