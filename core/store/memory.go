package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/studyplan/core/model"
)

// MemoryStore keeps everything in maps for tests and ephemeral runs.
type MemoryStore struct {
	mu       sync.RWMutex
	tasks    map[string]map[string]model.Task
	events   map[string]map[string]model.Event
	plans    map[string][]model.Plan
	sessions map[string][]model.Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:    map[string]map[string]model.Task{},
		events:   map[string]map[string]model.Event{},
		plans:    map[string][]model.Plan{},
		sessions: map[string][]model.Session{},
	}
}

func (s *MemoryStore) SaveTask(_ context.Context, t model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks[t.UserID] == nil {
		s.tasks[t.UserID] = map[string]model.Task{}
	}
	s.tasks[t.UserID][t.ID] = t
	return nil
}

// Tasks returns the user's tasks ordered by ID.
func (s *MemoryStore) Tasks(_ context.Context, userID string) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Task, 0, len(s.tasks[userID]))
	for _, t := range s.tasks[userID] {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[userID][taskID]; !ok {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	delete(s.tasks[userID], taskID)
	return nil
}

func (s *MemoryStore) SaveEvents(_ context.Context, userID string, events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events[userID] == nil {
		s.events[userID] = map[string]model.Event{}
	}
	for _, e := range events {
		e.UserID = userID
		s.events[userID][e.ID] = e
	}
	return nil
}

func (s *MemoryStore) Events(_ context.Context, userID string) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Event, 0, len(s.events[userID]))
	for _, e := range s.events[userID] {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Start.Equal(res[j].Start) {
			return res[i].ID < res[j].ID
		}
		return res[i].Start.Before(res[j].Start)
	})
	return res, nil
}

func (s *MemoryStore) SavePlan(_ context.Context, p model.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	cp.Blocks = append([]model.WorkBlock(nil), p.Blocks...)
	cp.Allocations = append([]model.TaskAllocation(nil), p.Allocations...)
	s.plans[p.UserID] = append(s.plans[p.UserID], cp)
	return nil
}

func (s *MemoryStore) LatestPlan(_ context.Context, userID string) (model.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plans := s.plans[userID]
	if len(plans) == 0 {
		return model.Plan{}, fmt.Errorf("plan for %s: %w", userID, ErrNotFound)
	}
	latest := plans[0]
	for _, p := range plans[1:] {
		if !p.CreatedAt.Before(latest.CreatedAt) {
			latest = p
		}
	}
	latest.Blocks = append([]model.WorkBlock(nil), latest.Blocks...)
	latest.Allocations = append([]model.TaskAllocation(nil), latest.Allocations...)
	return latest, nil
}

func (s *MemoryStore) SaveSession(_ context.Context, sess model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = append(s.sessions[sess.UserID], sess)
	return nil
}

func (s *MemoryStore) UpdateSession(_ context.Context, sess model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.sessions[sess.UserID]
	for i := range list {
		if list[i].ID == sess.ID {
			list[i] = sess
			return nil
		}
	}
	return fmt.Errorf("session %s: %w", sess.ID, ErrNotFound)
}

func (s *MemoryStore) Sessions(_ context.Context, userID string) ([]model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Session(nil), s.sessions[userID]...), nil
}

func (s *MemoryStore) Users(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []string
	for u, tasks := range s.tasks {
		if len(tasks) > 0 {
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users, nil
}

func (s *MemoryStore) Close() error { return nil }
