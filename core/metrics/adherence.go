package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/studyplan/core/model"
)

// Adherence returns completed/planned as a rounded percentage, or 0 when
// nothing was planned.
func Adherence(planned, completed int) int {
	if planned <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(planned) * 100))
}

// Report aggregates sessions against the blocks of one plan.
type Report struct {
	PlanID            string  `json:"plan_id"`
	PlannedBlocks     int     `json:"planned_blocks"`
	CompletedSessions int     `json:"completed_sessions"`
	InProgress        int     `json:"in_progress"`
	AdherencePct      int     `json:"adherence_pct"`
	PlannedMinutes    int     `json:"planned_minutes"`
	CompletedMinutes  int     `json:"completed_minutes"`
	FocusMean         float64 `json:"focus_mean"`
	FocusStdDev       float64 `json:"focus_std_dev"`
}

// BuildReport counts the sessions that reference blocks of plan. Sessions
// for other plans are ignored and a block completed twice counts once.
func BuildReport(plan model.Plan, sessions []model.Session) Report {
	r := Report{
		PlanID:         plan.ID,
		PlannedBlocks:  len(plan.Blocks),
		PlannedMinutes: plan.PlannedMinutes(),
	}
	done := map[string]bool{}
	var focus []float64
	for _, s := range sessions {
		b, ok := plan.Block(s.BlockID)
		if !ok {
			continue
		}
		switch s.Status {
		case model.SessionInProgress:
			r.InProgress++
		case model.SessionCompleted:
			if done[s.BlockID] {
				continue
			}
			done[s.BlockID] = true
			r.CompletedSessions++
			r.CompletedMinutes += b.Minutes()
			focus = append(focus, s.FocusScore)
		}
	}
	r.AdherencePct = Adherence(r.PlannedBlocks, r.CompletedSessions)
	if len(focus) > 0 {
		r.FocusMean = stat.Mean(focus, nil)
	}
	if len(focus) > 1 {
		r.FocusStdDev = stat.StdDev(focus, nil)
	}
	return r
}
