package model

import (
	"fmt"
	"time"
)

// Task is a unit of work the user wants scheduled before its deadline.
type Task struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Title            string    `json:"title"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	Deadline         time.Time `json:"deadline"`
}

// Validate checks the fields the planner relies on.
func (t Task) Validate() error {
	if t.EstimatedMinutes < 0 {
		return fmt.Errorf("%w: task %s has negative estimated minutes %d", ErrInvalidParameter, t.ID, t.EstimatedMinutes)
	}
	return nil
}

// Event is a calendar entry occupying the user's time.
type Event struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Interval
}

// BusyIntervals extracts the intervals of events in their current order.
func BusyIntervals(events []Event) []Interval {
	out := make([]Interval, len(events))
	for i, e := range events {
		out[i] = e.Interval
	}
	return out
}
