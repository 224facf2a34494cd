// Package services – ReportService
//
// Produces the per-objective export consumed by GET /reports/objective/{id}.
// The service returns structured rows; serialization to CSV or JSON is a
// transport concern left to the HTTP layer.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/okrtracker/go-okr-backend/internal/repo"
)

// ReportObjective is the objective header of a report.
type ReportObjective struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	PeriodName string `json:"period_name"`
}

// ReportRow is one key-result line of a report.
type ReportRow struct {
	ID       uint    `json:"id"`
	Title    string  `json:"title"`
	Metric   string  `json:"metric"`
	Target   float64 `json:"target"`
	Progress float64 `json:"progress"`
}

// ObjectiveReport bundles an objective with its key-result rows.
type ObjectiveReport struct {
	Objective  ReportObjective `json:"objective"`
	KeyResults []ReportRow     `json:"key_results"`
}

// ReportService builds objective exports.
type ReportService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Objective returns the report for objectiveID if owned by ownerID, or
// ErrObjectiveNotFound.
func (s *ReportService) Objective(ctx context.Context, objectiveID, ownerID uint) (*ObjectiveReport, error) {
	o, err := repo.GetObjective(ctx, s.DB, objectiveID, ownerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrObjectiveNotFound
		}
		return nil, err
	}
	krs, err := repo.ListKeyResults(ctx, s.DB, objectiveID)
	if err != nil {
		return nil, err
	}

	rep := &ObjectiveReport{
		Objective:  ReportObjective{ID: o.ID, Title: o.Title, PeriodName: o.PeriodName},
		KeyResults: make([]ReportRow, 0, len(krs)),
	}
	for _, k := range krs {
		rep.KeyResults = append(rep.KeyResults, ReportRow{
			ID:       k.ID,
			Title:    k.Title,
			Metric:   k.Metric,
			Target:   k.Target,
			Progress: k.Progress,
		})
	}
	return rep, nil
}
