package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/studyplan/core/monitoring"
	inframetrics "github.com/kilianp07/studyplan/infra/metrics"
)

// Run replans every user on a fixed interval until the context is
// cancelled. The first round starts immediately.
func (s *Service) Run(ctx context.Context) error {
	defer monitoring.Recover()

	if s.promAddr != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	collected := inframetrics.StartEventCollector(ctx, s.Bus, s.Metrics)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.Infof("replanning every %s", s.interval)

	s.replanAll(ctx)
	for {
		select {
		case <-ctx.Done():
			<-collected
			return nil
		case <-ticker.C:
			s.replanAll(ctx)
		}
	}
}

// replanAll generates a plan for every configured or stored user. A failure
// for one user does not stop the round.
func (s *Service) replanAll(ctx context.Context) {
	users := s.users
	if len(users) == 0 {
		var err error
		users, err = s.Store.Users(ctx)
		if err != nil {
			s.log.Errorf("list users: %v", err)
			monitoring.Capture(fmt.Errorf("list users: %w", err), "service", "")
			return
		}
	}
	now := s.now()
	for _, u := range users {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.GeneratePlan(ctx, u, now); err != nil {
			s.log.Errorf("replan %s: %v", u, err)
		}
	}
}
