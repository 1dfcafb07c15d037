package events

import (
	"time"

	"github.com/kilianp07/studyplan/core/metrics"
	"github.com/kilianp07/studyplan/core/model"
)

// Event is implemented by every event published on the bus.
type Event interface {
	// User returns the user the event belongs to.
	User() string
}

// PlanCommitted is published once a plan has been stored.
type PlanCommitted struct {
	Plan       model.Plan
	TaskCount  int
	EventCount int
	Duration   time.Duration
}

func (e PlanCommitted) User() string { return e.Plan.UserID }

// SessionChanged is published when a session starts or completes.
type SessionChanged struct {
	Session model.Session
	Time    time.Time
}

func (e SessionChanged) User() string { return e.Session.UserID }

// ReportComputed carries a fresh adherence report.
type ReportComputed struct {
	UserID string
	Report metrics.Report
	Time   time.Time
}

func (e ReportComputed) User() string { return e.UserID }
