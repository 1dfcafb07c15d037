package app

import (
	"fmt"

	"github.com/kilianp07/studyplan/config"
	"github.com/kilianp07/studyplan/core/events"
	coremetrics "github.com/kilianp07/studyplan/core/metrics"
	"github.com/kilianp07/studyplan/core/monitoring"
	"github.com/kilianp07/studyplan/core/notify"
	"github.com/kilianp07/studyplan/core/planlog"
	"github.com/kilianp07/studyplan/core/scheduler"
	"github.com/kilianp07/studyplan/infra/logger"
	inframetrics "github.com/kilianp07/studyplan/infra/metrics"
	inframon "github.com/kilianp07/studyplan/infra/monitoring"
	"github.com/kilianp07/studyplan/infra/mqtt"
	infrastore "github.com/kilianp07/studyplan/infra/store"
	"github.com/kilianp07/studyplan/internal/eventbus"
)

// New creates a Service from the configuration. The returned service owns
// the store, plan log, metrics sinks and MQTT connection it opened.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	planner, err := scheduler.NewPlanner(cfg.Planner, logger.New("planner"))
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	var closers []func() error
	fail := func(err error) (*Service, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	st, err := infrastore.Open(cfg.Store)
	if err != nil {
		return fail(fmt.Errorf("store: %w", err))
	}
	closers = append(closers, st.Close)

	plog, err := planlog.Open(cfg.PlanLog)
	if err != nil {
		return fail(fmt.Errorf("plan log: %w", err))
	}
	closers = append(closers, plog.Close)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks, logger.New("metrics"))
	if err != nil {
		return fail(fmt.Errorf("metrics sink: %w", err))
	}
	closers = append(closers, func() error { closeSink(sink); return nil })

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPlanPublisher(cfg.MQTT)
		if err != nil {
			return fail(fmt.Errorf("mqtt publisher: %w", err))
		}
		notifier = pub
		closers = append(closers, func() error { pub.Disconnect(); return nil })
	}

	svc, err := NewService(Deps{
		Store:    st,
		Planner:  planner,
		PlanLog:  plog,
		Metrics:  sink,
		Notifier: notifier,
		Bus:      eventbus.NewTyped[events.Event](),
		Logger:   log,
		Interval: cfg.Serve.Interval(),
		Users:    cfg.Serve.Users,
		PromAddr: cfg.Metrics.PrometheusAddr,
	})
	if err != nil {
		return fail(err)
	}
	svc.closers = closers
	return svc, nil
}

// closeSink flushes sinks that hold a client connection.
func closeSink(s coremetrics.MetricsSink) {
	switch v := s.(type) {
	case *coremetrics.MultiSink:
		for _, inner := range v.Sinks {
			closeSink(inner)
		}
	case *inframetrics.InfluxSink:
		v.Close()
	}
}
