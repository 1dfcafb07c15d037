package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/studyplan/core/metrics"
	"github.com/kilianp07/studyplan/infra/logger"
)

// InfluxConfig holds the connection settings of the InfluxDB sink.
type InfluxConfig struct {
	URL     string        `json:"url"`
	Token   string        `json:"token"`
	Org     string        `json:"org"`
	Bucket  string        `json:"bucket"`
	Timeout time.Duration `json:"timeout"`
}

// InfluxSink writes planning events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:  cfg.Timeout,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), sink.timeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(points ...*write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordPlan writes one plan point followed by one point per task.
func (s *InfluxSink) RecordPlan(res coremetrics.PlanResult) error {
	points := make([]*write.Point, 0, len(res.Allocations)+1)
	points = append(points, write.NewPointWithMeasurement("plan_generated").
		AddTag("user_id", res.UserID).
		AddField("plan_id", res.PlanID).
		AddField("task_count", res.TaskCount).
		AddField("event_count", res.EventCount).
		AddField("block_count", res.BlockCount).
		AddField("planned_minutes", res.PlannedMinutes).
		AddField("unscheduled_minutes", res.UnscheduledMinutes()).
		AddField("duration_ms", round3(float64(res.Duration)/float64(time.Millisecond))).
		SetTime(res.CreatedAt))
	for _, a := range res.Allocations {
		points = append(points, write.NewPointWithMeasurement("task_allocation").
			AddTag("task_id", a.TaskID).
			AddTag("user_id", res.UserID).
			AddField("requested_minutes", a.RequestedMinutes).
			AddField("allocated_minutes", a.AllocatedMinutes).
			AddField("unscheduled_minutes", a.Unscheduled()).
			SetTime(res.CreatedAt))
	}
	return s.write(points...)
}

// RecordSession writes a session transition.
func (s *InfluxSink) RecordSession(ev coremetrics.SessionEvent) error {
	p := write.NewPointWithMeasurement("session_event").
		AddTag("status", string(ev.Status)).
		AddTag("user_id", ev.UserID).
		AddField("session_id", ev.SessionID).
		AddField("block_id", ev.BlockID).
		AddField("focus_score", round3(ev.FocusScore)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordAdherence writes an adherence report.
func (s *InfluxSink) RecordAdherence(ev coremetrics.AdherenceEvent) error {
	r := ev.Report
	p := write.NewPointWithMeasurement("adherence_report").
		AddTag("user_id", ev.UserID).
		AddField("plan_id", r.PlanID).
		AddField("planned_blocks", r.PlannedBlocks).
		AddField("completed_sessions", r.CompletedSessions).
		AddField("adherence_pct", r.AdherencePct).
		AddField("focus_mean", round3(r.FocusMean)).
		AddField("focus_std_dev", round3(r.FocusStdDev)).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
