// Package scheduler turns a task list and a calendar of busy intervals into
// a plan of fixed-length work blocks.
//
// Planning is three steps. ComputeFreeIntervals walks the busy intervals of
// a window and returns the gaps between them. Allocate places whole blocks,
// separated by a break, into those gaps until the task's estimate is met or
// the gaps run out. Planner.GeneratePlan runs both for every task in
// earliest-deadline-first order and collects the blocks into a model.Plan.
//
// By default every task sees the calendar alone, so blocks of different
// tasks may overlap in time. Setting SchedulerConfig.AvoidCollisions folds
// each task's blocks into the busy set before the next task is planned.
//
// Nothing in this package performs I/O or keeps state between calls: the
// same inputs and the same reference time always yield the same plan.
package scheduler
