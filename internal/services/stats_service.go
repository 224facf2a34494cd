// Package services – StatsService
//
// Aggregates progress across a user's objectives. Each key result contributes
// the ratio progress/target clamped to [0, 1]; an objective's progress is the
// mean of its key-result ratios (nil with no key results); the overall figure
// is the mean across all key results, i.e. objectives are weighted by their
// key-result count.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/okrtracker/go-okr-backend/internal/repo"
)

// ObjectiveProgress is one row of the stats overview.
type ObjectiveProgress struct {
	ID         uint     `json:"id"`
	Title      string   `json:"title"`
	PeriodName string   `json:"period_name"`
	Progress   *float64 `json:"progress"` // nil when the objective has no key results
}

// StatsOverview is the response of GET /stats.
type StatsOverview struct {
	Objectives      []ObjectiveProgress `json:"objectives"`
	OverallProgress *float64            `json:"overall_progress"` // nil when no key results exist at all
}

// StatsService computes progress statistics for a user.
type StatsService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Overview returns per-objective and overall progress for ownerID.
func (s *StatsService) Overview(ctx context.Context, ownerID uint) (*StatsOverview, error) {
	objs, err := repo.ListObjectives(ctx, s.DB, ownerID)
	if err != nil {
		return nil, err
	}

	out := &StatsOverview{Objectives: make([]ObjectiveProgress, 0, len(objs))}
	var weightedSum float64
	var totalKRs int

	for _, o := range objs {
		krs, err := repo.ListKeyResults(ctx, s.DB, o.ID)
		if err != nil {
			return nil, err
		}

		row := ObjectiveProgress{ID: o.ID, Title: o.Title, PeriodName: o.PeriodName}
		if len(krs) > 0 {
			var sum float64
			for _, k := range krs {
				ratio := 0.0
				if k.Target > 0 {
					ratio = k.Progress / k.Target
				}
				if ratio < 0 {
					ratio = 0
				} else if ratio > 1 {
					ratio = 1
				}
				sum += ratio
			}
			p := sum / float64(len(krs))
			row.Progress = &p
			weightedSum += p * float64(len(krs))
			totalKRs += len(krs)
		}
		out.Objectives = append(out.Objectives, row)
	}

	if totalKRs > 0 {
		overall := weightedSum / float64(totalKRs)
		out.OverallProgress = &overall
	}
	return out, nil
}
