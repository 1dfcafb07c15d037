package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/studyplan/core/metrics"
)

// PromSink records planning activity in Prometheus metrics.
type PromSink struct {
	plans       *prometheus.CounterVec
	blocks      *prometheus.CounterVec
	unscheduled *prometheus.GaugeVec
	duration    prometheus.Histogram
	sessions    *prometheus.CounterVec
	adherence   *prometheus.GaugeVec
	focus       *prometheus.GaugeVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.plans, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyplan_plans_generated_total",
		Help: "Total number of committed plans",
	}, []string{"user_id"})); err != nil {
		return nil, err
	}
	if s.blocks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyplan_blocks_allocated_total",
		Help: "Total number of work blocks placed",
	}, []string{"user_id"})); err != nil {
		return nil, err
	}
	if s.unscheduled, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "studyplan_unscheduled_minutes",
		Help: "Minutes the latest plan could not place",
	}, []string{"user_id"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "studyplan_plan_duration_seconds",
		Help:    "Time spent generating and committing a plan",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if s.sessions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyplan_sessions_total",
		Help: "Session transitions by status",
	}, []string{"user_id", "status"})); err != nil {
		return nil, err
	}
	if s.adherence, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "studyplan_adherence_percent",
		Help: "Completed blocks over planned blocks of the latest plan",
	}, []string{"user_id"})); err != nil {
		return nil, err
	}
	if s.focus, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "studyplan_focus_score_mean",
		Help: "Mean focus score of completed sessions of the latest plan",
	}, []string{"user_id"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when one exists so that
// several sinks can share the default registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlan counts the plan and its blocks.
func (s *PromSink) RecordPlan(res coremetrics.PlanResult) error {
	s.plans.WithLabelValues(res.UserID).Inc()
	s.blocks.WithLabelValues(res.UserID).Add(float64(res.BlockCount))
	s.unscheduled.WithLabelValues(res.UserID).Set(float64(res.UnscheduledMinutes()))
	s.duration.Observe(res.Duration.Seconds())
	return nil
}

// RecordSession counts session transitions.
func (s *PromSink) RecordSession(ev coremetrics.SessionEvent) error {
	s.sessions.WithLabelValues(ev.UserID, string(ev.Status)).Inc()
	return nil
}

// RecordAdherence exposes the latest report values.
func (s *PromSink) RecordAdherence(ev coremetrics.AdherenceEvent) error {
	s.adherence.WithLabelValues(ev.UserID).Set(float64(ev.Report.AdherencePct))
	s.focus.WithLabelValues(ev.UserID).Set(ev.Report.FocusMean)
	return nil
}
