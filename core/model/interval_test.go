package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func span(fromMin, toMin int) Interval {
	return Interval{Start: base.Add(time.Duration(fromMin) * time.Minute), End: base.Add(time.Duration(toMin) * time.Minute)}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", span(0, 30), span(60, 90), false},
		{"touching", span(0, 60), span(60, 90), false},
		{"partial", span(0, 61), span(60, 90), true},
		{"contained", span(0, 120), span(30, 40), true},
		{"identical", span(10, 20), span(10, 20), true},
		{"empty inside", span(0, 60), span(30, 30), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Overlaps(c.a, c.b))
			assert.Equal(t, c.want, Overlaps(c.b, c.a))
		})
	}
}

func TestIntervalValidate(t *testing.T) {
	assert.NoError(t, span(0, 0).Validate())
	assert.NoError(t, span(0, 10).Validate())
	err := span(10, 0).Validate()
	assert.True(t, errors.Is(err, ErrInvalidInterval))
}

func TestIntervalHelpers(t *testing.T) {
	i := span(0, 50)
	assert.Equal(t, 50*time.Minute, i.Duration())
	assert.True(t, i.Contains(base))
	assert.False(t, i.Contains(base.Add(50*time.Minute)))
	assert.True(t, span(5, 5).Empty())
	assert.False(t, i.Empty())
}

func TestMergeIntervals(t *testing.T) {
	in := []Interval{span(120, 180), span(0, 30), span(20, 60), span(60, 90), span(200, 210)}
	got := MergeIntervals(in)
	assert.Equal(t, []Interval{span(0, 90), span(120, 180), span(200, 210)}, got)
	assert.Equal(t, span(120, 180), in[0], "input must not be reordered")
	assert.Nil(t, MergeIntervals(nil))
}

func TestPlanHelpers(t *testing.T) {
	p := Plan{Blocks: []WorkBlock{
		{ID: "b1", TaskID: "t1", Start: base, End: base.Add(50 * time.Minute)},
		{ID: "b2", TaskID: "t2", Start: base, End: base.Add(25 * time.Minute)},
		{ID: "b3", TaskID: "t1", Start: base.Add(time.Hour), End: base.Add(110 * time.Minute)},
	}}
	assert.Equal(t, 125, p.PlannedMinutes())
	assert.Len(t, p.BlocksFor("t1"), 2)
	b, ok := p.Block("b2")
	assert.True(t, ok)
	assert.Equal(t, "t2", b.TaskID)
	_, ok = p.Block("missing")
	assert.False(t, ok)
}

func TestTaskValidate(t *testing.T) {
	assert.NoError(t, Task{ID: "t", EstimatedMinutes: 0}.Validate())
	assert.True(t, errors.Is(Task{ID: "t", EstimatedMinutes: -1}.Validate(), ErrInvalidParameter))
}
