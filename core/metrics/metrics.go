package metrics

import (
	"time"

	"github.com/kilianp07/studyplan/core/model"
)

// PlanResult summarises one committed planning run.
type PlanResult struct {
	UserID         string
	PlanID         string
	CreatedAt      time.Time
	TaskCount      int
	EventCount     int
	BlockCount     int
	PlannedMinutes int
	Allocations    []model.TaskAllocation
	Duration       time.Duration
}

// UnscheduledMinutes sums the shortfall over all tasks.
func (r PlanResult) UnscheduledMinutes() int {
	total := 0
	for _, a := range r.Allocations {
		total += a.Unscheduled()
	}
	return total
}

// MetricsSink records planning runs for observability purposes.
type MetricsSink interface {
	RecordPlan(res PlanResult) error
}

// SessionEvent captures a session state change.
type SessionEvent struct {
	UserID     string
	SessionID  string
	BlockID    string
	Status     model.SessionStatus
	FocusScore float64
	Time       time.Time
}

// SessionRecorder records session transitions.
type SessionRecorder interface {
	RecordSession(ev SessionEvent) error
}

// AdherenceEvent carries a freshly computed report.
type AdherenceEvent struct {
	UserID string
	Report Report
	Time   time.Time
}

// AdherenceRecorder records adherence readouts.
type AdherenceRecorder interface {
	RecordAdherence(ev AdherenceEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanResult) error          { return nil }
func (NopSink) RecordSession(SessionEvent) error     { return nil }
func (NopSink) RecordAdherence(AdherenceEvent) error { return nil }
