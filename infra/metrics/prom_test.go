package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/studyplan/core/metrics"
	"github.com/kilianp07/studyplan/core/model"
)

func samplePlanResult(now time.Time) coremetrics.PlanResult {
	return coremetrics.PlanResult{
		UserID:         "alice",
		PlanID:         "p1",
		CreatedAt:      now,
		TaskCount:      2,
		EventCount:     1,
		BlockCount:     3,
		PlannedMinutes: 150,
		Allocations: []model.TaskAllocation{
			{TaskID: "math", RequestedMinutes: 120, AllocatedMinutes: 100},
			{TaskID: "bio", RequestedMinutes: 50, AllocatedMinutes: 50},
		},
		Duration: 1500 * time.Microsecond,
	}
}

func TestPromSink_RecordPlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordPlan(samplePlanResult(time.Now())))
	require.NoError(t, sink.RecordPlan(samplePlanResult(time.Now())))

	expected := `
# HELP studyplan_plans_generated_total Total number of committed plans
# TYPE studyplan_plans_generated_total counter
studyplan_plans_generated_total{user_id="alice"} 2
`
	assert.NoError(t, testutil.CollectAndCompare(sink.plans, strings.NewReader(expected)))
	assert.InDelta(t, 6, testutil.ToFloat64(sink.blocks.WithLabelValues("alice")), 1e-9)
	assert.InDelta(t, 20, testutil.ToFloat64(sink.unscheduled.WithLabelValues("alice")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(sink.duration))
}

func TestPromSink_SessionsAndAdherence(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordSession(coremetrics.SessionEvent{UserID: "alice", Status: model.SessionInProgress}))
	require.NoError(t, sink.RecordSession(coremetrics.SessionEvent{UserID: "alice", Status: model.SessionCompleted, FocusScore: 8}))
	require.NoError(t, sink.RecordAdherence(coremetrics.AdherenceEvent{UserID: "alice", Report: coremetrics.Report{AdherencePct: 67, FocusMean: 7.5}}))

	expected := `
# HELP studyplan_sessions_total Session transitions by status
# TYPE studyplan_sessions_total counter
studyplan_sessions_total{status="completed",user_id="alice"} 1
studyplan_sessions_total{status="inprogress",user_id="alice"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(sink.sessions, strings.NewReader(expected)))
	assert.InDelta(t, 67, testutil.ToFloat64(sink.adherence.WithLabelValues("alice")), 1e-9)
	assert.InDelta(t, 7.5, testutil.ToFloat64(sink.focus.WithLabelValues("alice")), 1e-9)
}

func TestPromSink_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordPlan(samplePlanResult(time.Now())))
	require.NoError(t, second.RecordPlan(samplePlanResult(time.Now())))
	assert.InDelta(t, 2, testutil.ToFloat64(first.plans.WithLabelValues("alice")), 1e-9)
}

func TestPromSink_ConflictingRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "studyplan_plans_generated_total",
		Help: "Total number of committed plans",
	}))
	_, err := NewPromSinkWithRegistry(reg)
	assert.Error(t, err)
}
