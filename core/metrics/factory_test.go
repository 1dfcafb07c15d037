package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/studyplan/core/factory"
	"github.com/kilianp07/studyplan/core/logger"
)

type lineLogger struct {
	logger.NopLogger
	infos []string
}

func (l *lineLogger) Infof(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func init() {
	_ = RegisterMetricsSink("test-a", func(map[string]any) (MetricsSink, error) { return &recordSink{}, nil })
	_ = RegisterMetricsSink("test-b", func(map[string]any) (MetricsSink, error) { return &recordSink{}, nil })
	_ = RegisterMetricsSink("test-idle", func(map[string]any) (MetricsSink, error) { return NopSink{}, nil })
	_ = RegisterMetricsSink("test-broken", func(map[string]any) (MetricsSink, error) { return nil, errors.New("no endpoint") })
}

func TestNewMetricsSinkLogsEnabledTypes(t *testing.T) {
	log := &lineLogger{}
	sink, err := NewMetricsSink([]factory.ModuleConfig{{Type: "test-a"}, {Type: "test-idle"}, {Type: "test-b"}}, log)
	require.NoError(t, err)
	multi, ok := sink.(*MultiSink)
	require.True(t, ok)
	assert.Len(t, multi.Sinks, 2)
	assert.Equal(t, []string{"metrics sinks enabled: test-a, test-b"}, log.infos)

	log = &lineLogger{}
	sink, err = NewMetricsSink([]factory.ModuleConfig{{Type: "test-idle"}, {Type: "test-a"}}, log)
	require.NoError(t, err)
	assert.IsType(t, &recordSink{}, sink)
	assert.Equal(t, []string{"metrics sink enabled: test-a"}, log.infos)

	log = &lineLogger{}
	sink, err = NewMetricsSink(nil, log)
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, sink)
	assert.Equal(t, []string{"metrics disabled"}, log.infos)
}

func TestNewMetricsSinkRejectsBadEntries(t *testing.T) {
	_, err := NewMetricsSink([]factory.ModuleConfig{{Type: "test-a"}, {Type: "test-a"}}, nil)
	assert.ErrorContains(t, err, `metrics sink 1: type "test-a" configured twice`)

	_, err = NewMetricsSink([]factory.ModuleConfig{{}}, nil)
	assert.ErrorContains(t, err, "metrics sink 0: type is required")

	_, err = NewMetricsSink([]factory.ModuleConfig{{Type: "test-a"}, {Type: "test-broken"}}, nil)
	assert.ErrorContains(t, err, "metrics sink 1 (test-broken): no endpoint")
}

func TestSinkTypesIncludesRegistered(t *testing.T) {
	assert.Subset(t, SinkTypes(), []string{"test-a", "test-b", "test-broken", "test-idle"})
}
