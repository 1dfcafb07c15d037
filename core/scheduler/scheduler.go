package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/studyplan/core/logger"
	"github.com/kilianp07/studyplan/core/model"
)

// Planner generates plans from tasks and busy intervals.
type Planner struct {
	Config SchedulerConfig
	Log    logger.Logger
}

// NewPlanner returns a Planner with validated configuration.
func NewPlanner(cfg SchedulerConfig, log logger.Logger) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Planner{Config: cfg, Log: log}, nil
}

// GeneratePlan schedules tasks earliest deadline first into the free time
// between now and min(deadline, now+horizonDays). busy must be sorted by
// start. Tasks that cannot be fully placed are under-scheduled silently;
// the shortfall is visible in Plan.Allocations.
func (p *Planner) GeneratePlan(tasks []model.Task, busy []model.Interval, now time.Time, horizonDays int) (model.Plan, error) {
	blockLen := p.Config.BlockLength()
	breakLen := p.Config.BreakLength()
	if err := validateLengths(blockLen, breakLen); err != nil {
		return model.Plan{}, err
	}
	if horizonDays < 0 {
		return model.Plan{}, fmt.Errorf("%w: horizon days %d", model.ErrInvalidParameter, horizonDays)
	}
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return model.Plan{}, err
		}
	}
	for i, b := range busy {
		if err := b.Validate(); err != nil {
			return model.Plan{}, fmt.Errorf("busy interval %d: %w", i, err)
		}
	}
	log := p.Log
	if log == nil {
		log = logger.NopLogger{}
	}

	ordered := make([]model.Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Deadline.Before(ordered[j].Deadline) })

	horizon := now.AddDate(0, 0, horizonDays)
	plan := model.Plan{CreatedAt: now, Horizon: horizon}

	reserved := make([]model.Interval, len(busy))
	copy(reserved, busy)

	for _, t := range ordered {
		deadline := t.Deadline
		if horizon.Before(deadline) {
			deadline = horizon
		}
		alloc := model.TaskAllocation{TaskID: t.ID, RequestedMinutes: t.EstimatedMinutes, EffectiveDeadline: deadline}
		if !deadline.After(now) {
			log.Debugw("task window closed", map[string]any{"task_id": t.ID, "deadline": deadline})
			plan.Allocations = append(plan.Allocations, alloc)
			continue
		}

		source := busy
		if p.Config.AvoidCollisions {
			source = reserved
		}
		free, err := ComputeFreeIntervals(source, now, deadline)
		if err != nil {
			return model.Plan{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		blocks, left, err := Allocate(t.ID, t.EstimatedMinutes, free, blockLen, breakLen)
		if err != nil {
			return model.Plan{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		alloc.AllocatedMinutes = t.EstimatedMinutes - left
		plan.Blocks = append(plan.Blocks, blocks...)
		plan.Allocations = append(plan.Allocations, alloc)

		if left > 0 {
			log.Debugw("task under-scheduled", map[string]any{
				"task_id":   t.ID,
				"requested": t.EstimatedMinutes,
				"allocated": alloc.AllocatedMinutes,
			})
		}
		if p.Config.AvoidCollisions && len(blocks) > 0 {
			reserved = reserve(reserved, blocks, breakLen)
		}
	}
	return plan, nil
}

// reserve folds blocks, each extended by the break that follows it, into
// the busy set and returns it merged and sorted.
func reserve(busy []model.Interval, blocks []model.WorkBlock, breakLen time.Duration) []model.Interval {
	out := make([]model.Interval, 0, len(busy)+len(blocks))
	out = append(out, busy...)
	for _, b := range blocks {
		out = append(out, model.Interval{Start: b.Start, End: b.End.Add(breakLen)})
	}
	return model.MergeIntervals(out)
}
