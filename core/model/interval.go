package model

import (
	"fmt"
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End). Busy intervals come from
// calendar events; free intervals are produced by the free-time calculator.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// Empty reports whether the interval has no usable length.
func (i Interval) Empty() bool { return !i.End.After(i.Start) }

// Contains reports whether t lies inside [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Validate returns ErrInvalidInterval when Start is after End.
func (i Interval) Validate() error {
	if i.Start.After(i.End) {
		return fmt.Errorf("%w: start %s after end %s", ErrInvalidInterval,
			i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether a and b share any instant.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// MergeIntervals returns a sorted copy of in where overlapping or touching
// intervals are coalesced. The input slice is left untouched.
func MergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
