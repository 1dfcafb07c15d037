package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPlan(res PlanResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordSession forwards session events to sinks that support them.
func (m *MultiSink) RecordSession(ev SessionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SessionRecorder); ok {
			if err := rec.RecordSession(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAdherence forwards adherence events to sinks that support them.
func (m *MultiSink) RecordAdherence(ev AdherenceEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AdherenceRecorder); ok {
			if err := rec.RecordAdherence(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
