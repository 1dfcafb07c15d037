package planlog

import (
	"context"
	"time"

	"github.com/kilianp07/studyplan/core/model"
	"github.com/kilianp07/studyplan/core/scheduler"
)

// LogRecord captures one planning run and its outcome.
type LogRecord struct {
	Timestamp   time.Time                 `json:"timestamp"`
	UserID      string                    `json:"user_id"`
	PlanID      string                    `json:"plan_id"`
	TaskCount   int                       `json:"task_count"`
	EventCount  int                       `json:"event_count"`
	BlockCount  int                       `json:"block_count"`
	Allocations []model.TaskAllocation    `json:"allocations"`
	Config      scheduler.SchedulerConfig `json:"config"`
}

// LogQuery defines filters for retrieving records. Zero values match all.
type LogQuery struct {
	Start  time.Time
	End    time.Time
	UserID string
	TaskID string
}

// Matches reports whether r satisfies every filter of q.
func (q LogQuery) Matches(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.UserID != "" && r.UserID != q.UserID {
		return false
	}
	if q.TaskID != "" {
		for _, a := range r.Allocations {
			if a.TaskID == q.TaskID {
				return true
			}
		}
		return false
	}
	return true
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
