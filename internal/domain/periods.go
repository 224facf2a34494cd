// Standard fiscal period templates.
//
// Periods are not persisted; they are derived from the reference date and
// offered to clients as naming suggestions for objectives.
package domain

import (
	"fmt"
	"time"
)

// Period describes a standard fiscal quarter with its calendar boundaries.
type Period struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// DefaultPeriodTemplates returns the quarter templates for the year of now
// and the following year (eight entries, Q1..Q4 per year).
func DefaultPeriodTemplates(now time.Time) []Period {
	out := make([]Period, 0, 8)
	year := now.Year()
	for _, y := range []int{year, year + 1} {
		for q := 1; q <= 4; q++ {
			start := time.Date(y, time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, time.UTC)
			var end time.Time
			if q < 4 {
				end = time.Date(y, time.Month(3*q)+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
			} else {
				end = time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
			}
			out = append(out, Period{
				Name:      fmt.Sprintf("Q%d %d", q, y),
				StartDate: start.Format("2006-01-02"),
				EndDate:   end.Format("2006-01-02"),
			})
		}
	}
	return out
}
