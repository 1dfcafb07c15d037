package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/studyplan/core/events"
	"github.com/kilianp07/studyplan/core/logger"
	coremetrics "github.com/kilianp07/studyplan/core/metrics"
	"github.com/kilianp07/studyplan/core/model"
	"github.com/kilianp07/studyplan/core/monitoring"
	"github.com/kilianp07/studyplan/core/notify"
	"github.com/kilianp07/studyplan/core/planlog"
	"github.com/kilianp07/studyplan/core/scheduler"
	"github.com/kilianp07/studyplan/core/store"
	"github.com/kilianp07/studyplan/infra/calendar"
	"github.com/kilianp07/studyplan/internal/eventbus"
)

const maxFocusScore = 10

// Deps groups the collaborators of a Service. Only Store is mandatory;
// every other nil field falls back to a no-op or default implementation.
type Deps struct {
	Store    store.Store
	Planner  *scheduler.Planner
	PlanLog  planlog.LogStore
	Metrics  coremetrics.MetricsSink
	Notifier notify.Notifier
	Bus      *eventbus.TypedBus[events.Event]
	Logger   logger.Logger
	Clock    func() time.Time

	// Interval is the replanning period of Run. Defaults to one hour.
	Interval time.Duration
	// Users restricts Run to these users. Empty means every stored user.
	Users []string
	// PromAddr starts the Prometheus endpoint in Run when not empty.
	PromAddr string
}

// Service orchestrates storage, planning and the observability side effects
// of a committed plan.
type Service struct {
	Store    store.Store
	Planner  *scheduler.Planner
	PlanLog  planlog.LogStore
	Metrics  coremetrics.MetricsSink
	Notifier notify.Notifier
	Bus      *eventbus.TypedBus[events.Event]

	log      logger.Logger
	now      func() time.Time
	locks    userLocks
	interval time.Duration
	users    []string
	promAddr string
	closers  []func() error
}

// NewService assembles a Service from its dependencies.
func NewService(d Deps) (*Service, error) {
	if d.Store == nil {
		return nil, errors.New("store is required")
	}
	if d.Logger == nil {
		d.Logger = logger.NopLogger{}
	}
	if d.Planner == nil {
		p, err := scheduler.NewPlanner(scheduler.DefaultConfig(), d.Logger)
		if err != nil {
			return nil, err
		}
		d.Planner = p
	}
	if d.PlanLog == nil {
		d.PlanLog = planlog.NopStore{}
	}
	if d.Metrics == nil {
		d.Metrics = coremetrics.NopSink{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.NopNotifier{}
	}
	if d.Bus == nil {
		d.Bus = eventbus.NewTyped[events.Event]()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Interval <= 0 {
		d.Interval = time.Hour
	}
	return &Service{
		Store:    d.Store,
		Planner:  d.Planner,
		PlanLog:  d.PlanLog,
		Metrics:  d.Metrics,
		Notifier: d.Notifier,
		Bus:      d.Bus,
		log:      d.Logger,
		now:      d.Clock,
		interval: d.Interval,
		users:    d.Users,
		promAddr: d.PromAddr,
	}, nil
}

// AddTask validates and stores a task. A missing ID is generated.
func (s *Service) AddTask(ctx context.Context, t model.Task) (model.Task, error) {
	if t.UserID == "" {
		return model.Task{}, ErrMissingUser
	}
	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}
	if t.Deadline.IsZero() {
		return model.Task{}, fmt.Errorf("%w: task %q has no deadline", model.ErrInvalidParameter, t.Title)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := s.Store.SaveTask(ctx, t); err != nil {
		return model.Task{}, s.capture(fmt.Errorf("save task: %w", err), "store", t.UserID)
	}
	s.log.Infof("task %s added for %s (%d min, due %s)", t.ID, t.UserID, t.EstimatedMinutes, t.Deadline.Format(time.RFC3339))
	return t, nil
}

// Tasks lists the tasks of a user.
func (s *Service) Tasks(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.Store.Tasks(ctx, userID)
	if err != nil {
		return nil, s.capture(fmt.Errorf("load tasks: %w", err), "store", userID)
	}
	return tasks, nil
}

// RemoveTask deletes a task of a user.
func (s *Service) RemoveTask(ctx context.Context, userID, taskID string) error {
	if err := s.Store.DeleteTask(ctx, userID, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return s.capture(fmt.Errorf("delete task: %w", err), "store", userID)
	}
	return nil
}

// ImportCalendar decodes an ICS payload and stores its events as busy time.
func (s *Service) ImportCalendar(ctx context.Context, userID string, r io.Reader) (calendar.Stats, error) {
	if userID == "" {
		return calendar.Stats{}, ErrMissingUser
	}
	dec := calendar.Decoder{Log: s.log}
	evs, stats, err := dec.Decode(r, userID)
	if err != nil {
		return stats, fmt.Errorf("decode calendar: %w", err)
	}
	if err := s.Store.SaveEvents(ctx, userID, evs); err != nil {
		return stats, s.capture(fmt.Errorf("save events: %w", err), "store", userID)
	}
	s.log.Infof("imported %d events for %s (%d filtered)", stats.Included, userID, stats.Filtered())
	return stats, nil
}

// GeneratePlan builds, stores and announces a new plan for userID. Side
// effects after the plan is stored never fail the call.
func (s *Service) GeneratePlan(ctx context.Context, userID string, now time.Time) (model.Plan, error) {
	if userID == "" {
		return model.Plan{}, ErrMissingUser
	}
	unlock := s.locks.lock(userID)
	defer unlock()

	started := time.Now()
	tasks, err := s.Store.Tasks(ctx, userID)
	if err != nil {
		return model.Plan{}, s.capture(fmt.Errorf("load tasks: %w", err), "store", userID)
	}
	evs, err := s.Store.Events(ctx, userID)
	if err != nil {
		return model.Plan{}, s.capture(fmt.Errorf("load events: %w", err), "store", userID)
	}
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Start.Before(evs[j].Start) })

	cfg := s.Planner.Config
	plan, err := s.Planner.GeneratePlan(tasks, model.BusyIntervals(evs), now, cfg.HorizonDays)
	if err != nil {
		return model.Plan{}, s.capture(fmt.Errorf("generate plan: %w", err), "scheduler", userID)
	}
	plan.ID = uuid.NewString()
	plan.UserID = userID
	assignBlockIDs(&plan)

	if err := s.Store.SavePlan(ctx, plan); err != nil {
		return model.Plan{}, s.capture(fmt.Errorf("save plan: %w", err), "store", userID)
	}
	elapsed := time.Since(started)

	rec := planlog.LogRecord{
		Timestamp:   now,
		UserID:      userID,
		PlanID:      plan.ID,
		TaskCount:   len(tasks),
		EventCount:  len(evs),
		BlockCount:  len(plan.Blocks),
		Allocations: plan.Allocations,
		Config:      cfg,
	}
	if err := s.PlanLog.Append(ctx, rec); err != nil {
		s.log.Errorf("plan log append: %v", err)
		monitoring.Capture(err, "planlog", userID)
	}
	res := coremetrics.PlanResult{
		UserID:         userID,
		PlanID:         plan.ID,
		CreatedAt:      plan.CreatedAt,
		TaskCount:      len(tasks),
		EventCount:     len(evs),
		BlockCount:     len(plan.Blocks),
		PlannedMinutes: plan.PlannedMinutes(),
		Allocations:    plan.Allocations,
		Duration:       elapsed,
	}
	if err := s.Metrics.RecordPlan(res); err != nil {
		s.log.Errorf("record plan metrics: %v", err)
	}
	if err := s.Notifier.NotifyPlan(ctx, plan); err != nil {
		s.log.Warnf("plan notification for %s failed: %v", userID, err)
	}
	s.Bus.Publish(events.PlanCommitted{Plan: plan, TaskCount: len(tasks), EventCount: len(evs), Duration: elapsed})

	s.log.Infof("plan %s for %s: %d blocks, %d min unscheduled", plan.ID, userID, len(plan.Blocks), res.UnscheduledMinutes())
	return plan, nil
}

// LatestPlan returns the most recent plan of a user.
func (s *Service) LatestPlan(ctx context.Context, userID string) (model.Plan, error) {
	return s.Store.LatestPlan(ctx, userID)
}

// PlanHistory reads the plan log of a user, oldest run first. The query is
// always restricted to userID.
func (s *Service) PlanHistory(ctx context.Context, userID string, q planlog.LogQuery) ([]planlog.LogRecord, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return nil, ErrInvalidRange
	}
	q.UserID = userID
	recs, err := s.PlanLog.Query(ctx, q)
	if err != nil {
		return nil, s.capture(fmt.Errorf("query plan log: %w", err), "planlog", userID)
	}
	return recs, nil
}

// StartSession opens a session on a block of the user's latest plan.
func (s *Service) StartSession(ctx context.Context, userID, blockID string, now time.Time) (model.Session, error) {
	plan, err := s.Store.LatestPlan(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Session{}, fmt.Errorf("%w: %s (no plan for %s)", ErrUnknownBlock, blockID, userID)
		}
		return model.Session{}, s.capture(fmt.Errorf("load plan: %w", err), "store", userID)
	}
	if _, ok := plan.Block(blockID); !ok {
		return model.Session{}, fmt.Errorf("%w: %s", ErrUnknownBlock, blockID)
	}
	sess := model.Session{
		ID:      uuid.NewString(),
		UserID:  userID,
		BlockID: blockID,
		Status:  model.SessionInProgress,
		Start:   now,
	}
	if err := s.Store.SaveSession(ctx, sess); err != nil {
		return model.Session{}, s.capture(fmt.Errorf("save session: %w", err), "store", userID)
	}
	s.Bus.Publish(events.SessionChanged{Session: sess, Time: now})
	return sess, nil
}

// CompleteSession closes an in-progress session with a focus score.
func (s *Service) CompleteSession(ctx context.Context, userID, sessionID string, now time.Time, focus float64) (model.Session, error) {
	if math.IsNaN(focus) || focus < 0 || focus > maxFocusScore {
		return model.Session{}, fmt.Errorf("%w: got %v", ErrInvalidFocus, focus)
	}
	sessions, err := s.Store.Sessions(ctx, userID)
	if err != nil {
		return model.Session{}, s.capture(fmt.Errorf("load sessions: %w", err), "store", userID)
	}
	idx := -1
	for i := range sessions {
		if sessions[i].ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Session{}, fmt.Errorf("session %s: %w", sessionID, store.ErrNotFound)
	}
	sess := sessions[idx]
	if sess.Status == model.SessionCompleted {
		return model.Session{}, fmt.Errorf("%w: %s", ErrSessionClosed, sessionID)
	}
	sess.Status = model.SessionCompleted
	sess.End = now
	sess.FocusScore = focus
	if err := s.Store.UpdateSession(ctx, sess); err != nil {
		return model.Session{}, s.capture(fmt.Errorf("update session: %w", err), "store", userID)
	}
	s.Bus.Publish(events.SessionChanged{Session: sess, Time: now})
	return sess, nil
}

// Report computes adherence of the user's sessions against the latest plan.
func (s *Service) Report(ctx context.Context, userID string) (coremetrics.Report, error) {
	plan, err := s.Store.LatestPlan(ctx, userID)
	if err != nil {
		return coremetrics.Report{}, fmt.Errorf("load plan: %w", err)
	}
	sessions, err := s.Store.Sessions(ctx, userID)
	if err != nil {
		return coremetrics.Report{}, s.capture(fmt.Errorf("load sessions: %w", err), "store", userID)
	}
	rep := coremetrics.BuildReport(plan, sessions)
	s.Bus.Publish(events.ReportComputed{UserID: userID, Report: rep, Time: s.now()})
	return rep, nil
}

// Close releases the resources the service owns.
func (s *Service) Close() error {
	s.Bus.Close()
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) capture(err error, module, userID string) error {
	monitoring.Capture(err, module, userID)
	return err
}

// assignBlockIDs derives stable block identifiers from the plan ID and the
// block position.
func assignBlockIDs(p *model.Plan) {
	ns, err := uuid.Parse(p.ID)
	if err != nil {
		ns = uuid.NameSpaceOID
	}
	for i := range p.Blocks {
		p.Blocks[i].ID = uuid.NewSHA1(ns, []byte(strconv.Itoa(i))).String()
	}
}
