package scheduler

import (
	"fmt"
	"time"

	"github.com/kilianp07/studyplan/core/model"
)

// ComputeFreeIntervals returns the gaps of [windowStart, windowEnd] not
// covered by busy. busy must be sorted by start; overlapping entries are
// tolerated but not merged. A busy interval that starts exactly on the
// cursor may yield a zero-length gap, which allocation ignores.
func ComputeFreeIntervals(busy []model.Interval, windowStart, windowEnd time.Time) ([]model.Interval, error) {
	window := model.Interval{Start: windowStart, End: windowEnd}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	for i, b := range busy {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("busy interval %d: %w", i, err)
		}
	}

	var free []model.Interval
	cursor := windowStart
	for _, b := range busy {
		if !cursor.Before(windowEnd) {
			break
		}
		if !b.End.After(cursor) {
			continue
		}
		if b.Start.After(cursor) {
			end := b.Start
			if end.After(windowEnd) {
				end = windowEnd
			}
			free = append(free, model.Interval{Start: cursor, End: end})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(windowEnd) {
		free = append(free, model.Interval{Start: cursor, End: windowEnd})
	}
	return free, nil
}
