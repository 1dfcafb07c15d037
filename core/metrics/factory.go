package metrics

import (
	"fmt"
	"strings"

	"github.com/kilianp07/studyplan/core/factory"
	"github.com/kilianp07/studyplan/core/logger"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink types in sorted order.
func SinkTypes() []string {
	return sinkRegistry.Names()
}

// NewMetricsSink builds the sinks that record planning activity and logs the
// enabled types. Entries resolving to a NopSink are dropped. Each type may be
// listed once; several live sinks are wrapped in a MultiSink.
func NewMetricsSink(cfgs []factory.ModuleConfig, log logger.Logger) (MetricsSink, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	seen := make(map[string]bool, len(cfgs))
	var (
		sinks []MetricsSink
		names []string
	)
	for i, c := range cfgs {
		if c.Type == "" {
			return nil, fmt.Errorf("metrics sink %d: type is required", i)
		}
		if seen[c.Type] {
			return nil, fmt.Errorf("metrics sink %d: type %q configured twice", i, c.Type)
		}
		seen[c.Type] = true
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, fmt.Errorf("metrics sink %d (%s): %w", i, c.Type, err)
		}
		if _, nop := s.(NopSink); nop {
			log.Debugf("metrics sink %s inactive", c.Type)
			continue
		}
		sinks = append(sinks, s)
		names = append(names, c.Type)
	}
	switch len(sinks) {
	case 0:
		log.Infof("metrics disabled")
		return NopSink{}, nil
	case 1:
		log.Infof("metrics sink enabled: %s", names[0])
		return sinks[0], nil
	}
	log.Infof("metrics sinks enabled: %s", strings.Join(names, ", "))
	return NewMultiSink(sinks...), nil
}
