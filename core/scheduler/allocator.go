package scheduler

import (
	"fmt"
	"time"

	"github.com/kilianp07/studyplan/core/model"
)

// Allocate places blocks of blockLength for taskID into free, in order,
// leaving breakLength between consecutive blocks of the same interval. It
// stops once the remaining requirement is smaller than one block or the
// free intervals are exhausted, and returns the placed blocks together
// with the minutes left unscheduled. Blocks are never shortened.
func Allocate(taskID string, remainingMinutes int, free []model.Interval, blockLength, breakLength time.Duration) ([]model.WorkBlock, int, error) {
	if err := validateLengths(blockLength, breakLength); err != nil {
		return nil, remainingMinutes, err
	}
	if remainingMinutes < 0 {
		return nil, remainingMinutes, fmt.Errorf("%w: remaining minutes %d", model.ErrInvalidParameter, remainingMinutes)
	}

	// Counting stays in whole minutes so large estimates cannot overflow
	// time.Duration.
	perBlock := blockMinutes(blockLength)
	remaining := remainingMinutes
	var blocks []model.WorkBlock
	for _, iv := range free {
		cursor := iv.Start
		for {
			if remaining < perBlock {
				return blocks, remaining, nil
			}
			end := cursor.Add(blockLength)
			if end.After(iv.End) {
				break
			}
			blocks = append(blocks, model.WorkBlock{TaskID: taskID, Start: cursor, End: end})
			remaining -= perBlock
			cursor = end.Add(breakLength)
		}
	}
	return blocks, remaining, nil
}

func validateLengths(blockLength, breakLength time.Duration) error {
	if blockLength <= 0 {
		return fmt.Errorf("%w: block length %s must be positive", model.ErrInvalidParameter, blockLength)
	}
	if breakLength < 0 {
		return fmt.Errorf("%w: break length %s must not be negative", model.ErrInvalidParameter, breakLength)
	}
	return nil
}

// blockMinutes is the minute-equivalent of a block, rounded up so a block
// never counts for less than its length.
func blockMinutes(d time.Duration) int { return int((d + time.Minute - 1) / time.Minute) }
