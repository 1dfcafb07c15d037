package metrics

import (
	"context"

	"github.com/kilianp07/studyplan/core/events"
	coremetrics "github.com/kilianp07/studyplan/core/metrics"
	"github.com/kilianp07/studyplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards session and
// adherence events to sinks that record them. Plans are recorded by the
// service itself. It stops when the context is canceled or the bus closes.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.SessionChanged:
					if r, ok := sink.(coremetrics.SessionRecorder); ok {
						_ = r.RecordSession(coremetrics.SessionEvent{
							UserID:     e.Session.UserID,
							SessionID:  e.Session.ID,
							BlockID:    e.Session.BlockID,
							Status:     e.Session.Status,
							FocusScore: e.Session.FocusScore,
							Time:       e.Time,
						})
					}
				case events.ReportComputed:
					if r, ok := sink.(coremetrics.AdherenceRecorder); ok {
						_ = r.RecordAdherence(coremetrics.AdherenceEvent{UserID: e.UserID, Report: e.Report, Time: e.Time})
					}
				}
			}
		}
	}()
	return done
}
