// Package notify defines how committed plans are announced to the user's
// devices.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/studyplan/core/model"
)

// ErrPublishFailed is returned when a notification could not be delivered
// after every retry.
var ErrPublishFailed = errors.New("notification publish failed")

// Notifier announces a freshly generated plan.
type Notifier interface {
	NotifyPlan(ctx context.Context, p model.Plan) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyPlan(context.Context, model.Plan) error { return nil }

// PlanSummary is the compact payload sent for a plan.
type PlanSummary struct {
	PlanID             string           `json:"plan_id"`
	UserID             string           `json:"user_id"`
	CreatedAt          time.Time        `json:"created_at"`
	BlockCount         int              `json:"block_count"`
	PlannedMinutes     int              `json:"planned_minutes"`
	UnscheduledMinutes int              `json:"unscheduled_minutes"`
	NextBlock          *model.WorkBlock `json:"next_block,omitempty"`
}

// Summarize condenses p. NextBlock is the earliest block starting at or
// after the plan creation time.
func Summarize(p model.Plan) PlanSummary {
	s := PlanSummary{
		PlanID:         p.ID,
		UserID:         p.UserID,
		CreatedAt:      p.CreatedAt,
		BlockCount:     len(p.Blocks),
		PlannedMinutes: p.PlannedMinutes(),
	}
	for _, a := range p.Allocations {
		s.UnscheduledMinutes += a.Unscheduled()
	}
	for i := range p.Blocks {
		b := p.Blocks[i]
		if b.Start.Before(p.CreatedAt) {
			continue
		}
		if s.NextBlock == nil || b.Start.Before(s.NextBlock.Start) {
			s.NextBlock = &b
		}
	}
	return s
}
