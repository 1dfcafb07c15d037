package model

import "time"

// WorkBlock is one fixed-length slot of work for a task.
type WorkBlock struct {
	ID     string    `json:"id,omitempty"`
	TaskID string    `json:"task_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Interval returns the wall-clock span of the block.
func (b WorkBlock) Interval() Interval { return Interval{Start: b.Start, End: b.End} }

// Minutes returns the block length in whole minutes.
func (b WorkBlock) Minutes() int { return int(b.End.Sub(b.Start) / time.Minute) }

// TaskAllocation summarises how much of a task a plan covers.
type TaskAllocation struct {
	TaskID            string    `json:"task_id"`
	RequestedMinutes  int       `json:"requested_minutes"`
	AllocatedMinutes  int       `json:"allocated_minutes"`
	EffectiveDeadline time.Time `json:"effective_deadline"`
}

// Unscheduled returns the minutes the plan could not place.
func (a TaskAllocation) Unscheduled() int { return a.RequestedMinutes - a.AllocatedMinutes }

// Plan is an immutable snapshot produced by one planning run.
type Plan struct {
	ID          string           `json:"id,omitempty"`
	UserID      string           `json:"user_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Horizon     time.Time        `json:"horizon"`
	Blocks      []WorkBlock      `json:"blocks"`
	Allocations []TaskAllocation `json:"allocations"`
}

// Block returns the block with the given identifier.
func (p Plan) Block(id string) (WorkBlock, bool) {
	for _, b := range p.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return WorkBlock{}, false
}

// BlocksFor returns the blocks of a single task in plan order.
func (p Plan) BlocksFor(taskID string) []WorkBlock {
	var out []WorkBlock
	for _, b := range p.Blocks {
		if b.TaskID == taskID {
			out = append(out, b)
		}
	}
	return out
}

// PlannedMinutes sums the length of every block.
func (p Plan) PlannedMinutes() int {
	total := 0
	for _, b := range p.Blocks {
		total += b.Minutes()
	}
	return total
}
