package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/studyplan/core/events"
	coremetrics "github.com/kilianp07/studyplan/core/metrics"
	"github.com/kilianp07/studyplan/core/model"
	"github.com/kilianp07/studyplan/core/planlog"
	"github.com/kilianp07/studyplan/core/store"
	"github.com/kilianp07/studyplan/internal/eventbus"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyPlan(ctx context.Context, p model.Plan) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type recordingSink struct {
	mu       sync.Mutex
	plans    []coremetrics.PlanResult
	sessions []coremetrics.SessionEvent
	reports  []coremetrics.AdherenceEvent
}

func (r *recordingSink) RecordPlan(res coremetrics.PlanResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, res)
	return nil
}

func (r *recordingSink) RecordSession(ev coremetrics.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, ev)
	return nil
}

func (r *recordingSink) RecordAdherence(ev coremetrics.AdherenceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, ev)
	return nil
}

func (r *recordingSink) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plans), len(r.sessions), len(r.reports)
}

var morning = time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)

const lectureICS = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//studyplan//test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:lecture\r\nSUMMARY:Lecture\r\nDTSTART:20250115T090000Z\r\nDTEND:20250115T120000Z\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

type fixture struct {
	svc      *Service
	store    *store.MemoryStore
	sink     *recordingSink
	notifier *mockNotifier
	log      *planlog.JSONLStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	plog, err := planlog.NewJSONLStore(filepath.Join(t.TempDir(), "plans.log"))
	require.NoError(t, err)
	f := &fixture{store: st, sink: &recordingSink{}, notifier: &mockNotifier{}, log: plog}
	svc, err := NewService(Deps{
		Store:    st,
		PlanLog:  plog,
		Metrics:  f.sink,
		Notifier: f.notifier,
		Clock:    func() time.Time { return morning },
	})
	require.NoError(t, err)
	f.svc = svc
	t.Cleanup(func() { _ = svc.Close() })
	return f
}

func (f *fixture) seed(t *testing.T) model.Task {
	t.Helper()
	ctx := context.Background()
	task, err := f.svc.AddTask(ctx, model.Task{
		UserID:           "alice",
		Title:            "Math",
		EstimatedMinutes: 100,
		Deadline:         morning.Add(7 * time.Hour),
	})
	require.NoError(t, err)
	stats, err := f.svc.ImportCalendar(ctx, "alice", strings.NewReader(lectureICS))
	require.NoError(t, err)
	require.Equal(t, 1, stats.Included)
	return task
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := NewService(Deps{})
	assert.Error(t, err)
}

func TestAddTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.svc.AddTask(ctx, model.Task{UserID: "alice", Title: "Essay", EstimatedMinutes: 60, Deadline: morning.Add(time.Hour)})
	require.NoError(t, err)
	_, err = uuid.Parse(task.ID)
	assert.NoError(t, err)

	kept, err := f.svc.AddTask(ctx, model.Task{ID: "fixed", UserID: "alice", EstimatedMinutes: 10, Deadline: morning})
	require.NoError(t, err)
	assert.Equal(t, "fixed", kept.ID)

	tasks, err := f.svc.Tasks(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	_, err = f.svc.AddTask(ctx, model.Task{Title: "orphan", Deadline: morning})
	assert.ErrorIs(t, err, ErrMissingUser)
	_, err = f.svc.AddTask(ctx, model.Task{UserID: "alice", EstimatedMinutes: -5, Deadline: morning})
	assert.ErrorIs(t, err, model.ErrInvalidParameter)
	_, err = f.svc.AddTask(ctx, model.Task{UserID: "alice", EstimatedMinutes: 5})
	assert.ErrorIs(t, err, model.ErrInvalidParameter)

	require.NoError(t, f.svc.RemoveTask(ctx, "alice", "fixed"))
	assert.ErrorIs(t, f.svc.RemoveTask(ctx, "alice", "fixed"), store.ErrNotFound)
}

func TestImportCalendarRejectsGarbage(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ImportCalendar(context.Background(), "alice", strings.NewReader("<html>nope</html>"))
	assert.Error(t, err)
	_, err = f.svc.ImportCalendar(context.Background(), "", strings.NewReader(lectureICS))
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestGeneratePlanCommits(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t)
	ctx := context.Background()
	f.notifier.On("NotifyPlan", mock.Anything, mock.MatchedBy(func(p model.Plan) bool {
		return p.UserID == "alice" && len(p.Blocks) == 2
	})).Return(nil).Once()

	sub := f.svc.Bus.Subscribe()
	plan, err := f.svc.GeneratePlan(ctx, "alice", morning)
	require.NoError(t, err)

	require.Len(t, plan.Blocks, 2)
	assert.True(t, plan.Blocks[0].Start.Equal(morning))
	assert.True(t, plan.Blocks[1].Start.Equal(morning.Add(4*time.Hour)), "second block follows the lecture")
	ns := uuid.MustParse(plan.ID)
	assert.Equal(t, uuid.NewSHA1(ns, []byte("0")).String(), plan.Blocks[0].ID)
	assert.Equal(t, uuid.NewSHA1(ns, []byte("1")).String(), plan.Blocks[1].ID)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, 100, plan.Allocations[0].AllocatedMinutes)

	stored, err := f.store.LatestPlan(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, stored.ID)

	recs, err := f.log.Query(ctx, planlog.LogQuery{TaskID: task.ID})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, plan.ID, recs[0].PlanID)
	assert.Equal(t, 1, recs[0].EventCount)
	assert.Equal(t, 2, recs[0].BlockCount)

	plans, _, _ := f.sink.counts()
	assert.Equal(t, 1, plans)
	assert.Equal(t, 100, f.sink.plans[0].PlannedMinutes)

	select {
	case ev := <-sub:
		pc, ok := ev.(events.PlanCommitted)
		require.True(t, ok)
		assert.Equal(t, plan.ID, pc.Plan.ID)
		assert.Equal(t, 1, pc.TaskCount)
	case <-time.After(time.Second):
		t.Fatal("no plan event")
	}
	f.notifier.AssertExpectations(t)
}

func TestPlanHistory(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t)
	ctx := context.Background()
	f.notifier.On("NotifyPlan", mock.Anything, mock.Anything).Return(nil)

	first, err := f.svc.GeneratePlan(ctx, "alice", morning)
	require.NoError(t, err)
	second, err := f.svc.GeneratePlan(ctx, "alice", morning.Add(2*time.Hour))
	require.NoError(t, err)

	recs, err := f.svc.PlanHistory(ctx, "alice", planlog.LogQuery{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, first.ID, recs[0].PlanID)
	assert.Equal(t, second.ID, recs[1].PlanID)

	recs, err = f.svc.PlanHistory(ctx, "alice", planlog.LogQuery{Start: morning.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, second.ID, recs[0].PlanID)

	recs, err = f.svc.PlanHistory(ctx, "alice", planlog.LogQuery{TaskID: task.ID, End: morning})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, first.ID, recs[0].PlanID)

	recs, err = f.svc.PlanHistory(ctx, "alice", planlog.LogQuery{TaskID: "unknown"})
	require.NoError(t, err)
	assert.Empty(t, recs)

	// the user filter cannot be widened by the caller
	recs, err = f.svc.PlanHistory(ctx, "bob", planlog.LogQuery{UserID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = f.svc.PlanHistory(ctx, "", planlog.LogQuery{})
	assert.ErrorIs(t, err, ErrMissingUser)
	_, err = f.svc.PlanHistory(ctx, "alice", planlog.LogQuery{Start: morning, End: morning.Add(-time.Minute)})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestGeneratePlanSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.notifier.On("NotifyPlan", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	plan, err := f.svc.GeneratePlan(context.Background(), "alice", morning)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
}

func TestGeneratePlanWithoutTasks(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("NotifyPlan", mock.Anything, mock.Anything).Return(nil)

	plan, err := f.svc.GeneratePlan(context.Background(), "bob", morning)
	require.NoError(t, err)
	assert.Empty(t, plan.Blocks)
	assert.True(t, plan.Horizon.Equal(morning.AddDate(0, 0, 7)))

	_, err = f.svc.GeneratePlan(context.Background(), "", morning)
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestGeneratePlanConcurrentSameUser(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.notifier.On("NotifyPlan", mock.Anything, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.GeneratePlan(context.Background(), "alice", morning)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	plans, _, _ := f.sink.counts()
	assert.Equal(t, 8, plans)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.notifier.On("NotifyPlan", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, "alice", "anything", morning)
	assert.ErrorIs(t, err, ErrUnknownBlock, "no plan yet")

	plan, err := f.svc.GeneratePlan(ctx, "alice", morning)
	require.NoError(t, err)

	_, err = f.svc.StartSession(ctx, "alice", "not-a-block", morning)
	assert.ErrorIs(t, err, ErrUnknownBlock)

	sess, err := f.svc.StartSession(ctx, "alice", plan.Blocks[0].ID, morning)
	require.NoError(t, err)
	assert.Equal(t, model.SessionInProgress, sess.Status)

	_, err = f.svc.CompleteSession(ctx, "alice", sess.ID, morning.Add(50*time.Minute), 11)
	assert.ErrorIs(t, err, ErrInvalidFocus)
	_, err = f.svc.CompleteSession(ctx, "alice", sess.ID, morning.Add(50*time.Minute), -1)
	assert.ErrorIs(t, err, ErrInvalidFocus)
	_, err = f.svc.CompleteSession(ctx, "alice", "missing", morning, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)

	done, err := f.svc.CompleteSession(ctx, "alice", sess.ID, morning.Add(50*time.Minute), 8)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, done.Status)
	assert.Equal(t, 8.0, done.FocusScore)
	assert.True(t, done.End.Equal(morning.Add(50*time.Minute)))

	_, err = f.svc.CompleteSession(ctx, "alice", sess.ID, morning.Add(time.Hour), 9)
	assert.ErrorIs(t, err, ErrSessionClosed)

	rep, err := f.svc.Report(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, rep.PlanID)
	assert.Equal(t, 2, rep.PlannedBlocks)
	assert.Equal(t, 1, rep.CompletedSessions)
	assert.Equal(t, 50, rep.AdherencePct)
	assert.Equal(t, 8.0, rep.FocusMean)
}

func TestReportWithoutPlan(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Report(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunReplansStoredUsers(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.notifier.On("NotifyPlan", mock.Anything, mock.Anything).Return(nil)
	f.svc.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		plans, _, _ := f.sink.counts()
		return plans >= 2
	}, 2*time.Second, 5*time.Millisecond)

	f.svc.Bus.Publish(events.SessionChanged{
		Session: model.Session{ID: "s1", UserID: "alice", BlockID: "b1", Status: model.SessionInProgress, Start: morning},
		Time:    morning,
	})
	require.Eventually(t, func() bool {
		_, sessions, _ := f.sink.counts()
		return sessions == 1
	}, time.Second, 5*time.Millisecond, "collector forwards session events")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunRestrictedUsers(t *testing.T) {
	st := store.NewMemoryStore()
	sink := &recordingSink{}
	svc, err := NewService(Deps{
		Store:    st,
		Metrics:  sink,
		Bus:      eventbus.NewTyped[events.Event](),
		Interval: time.Hour,
		Users:    []string{"carol"},
		Clock:    func() time.Time { return morning },
	})
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	require.Eventually(t, func() bool {
		_, err := st.LatestPlan(context.Background(), "carol")
		return err == nil
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
