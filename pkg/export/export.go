package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/studyplan/core/model"
)

// Format names an output encoding of a plan.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (json, csv, html)", s)
	}
}

// Write encodes plan to w in the requested format. titles maps task IDs to
// display names for the chart and may be nil.
func Write(w io.Writer, f Format, plan model.Plan, titles map[string]string) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, plan)
	case FormatCSV:
		return WriteCSV(w, plan)
	case FormatHTML:
		return WriteHTML(w, plan, titles)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteJSON writes the plan to w in indented JSON.
func WriteJSON(w io.Writer, plan model.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// WriteCSV writes one row per block.
func WriteCSV(w io.Writer, plan model.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"block_id", "task_id", "start", "end"}); err != nil {
		return err
	}
	for _, b := range plan.Blocks {
		rec := []string{
			b.ID,
			b.TaskID,
			b.Start.Format(time.RFC3339),
			b.End.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHTML renders a bar chart comparing requested and allocated minutes
// per task.
func WriteHTML(w io.Writer, plan model.Plan, titles map[string]string) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Study plan",
			Subtitle: fmt.Sprintf("%d blocks until %s", len(plan.Blocks), plan.Horizon.Format("2006-01-02 15:04")),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Task"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Minutes"}),
	)

	labels := make([]string, 0, len(plan.Allocations))
	requested := make([]opts.BarData, 0, len(plan.Allocations))
	allocated := make([]opts.BarData, 0, len(plan.Allocations))
	for _, a := range plan.Allocations {
		label := a.TaskID
		if t, ok := titles[a.TaskID]; ok && t != "" {
			label = t
		}
		labels = append(labels, label)
		requested = append(requested, opts.BarData{Value: a.RequestedMinutes})
		allocated = append(allocated, opts.BarData{Value: a.AllocatedMinutes})
	}
	bar.SetXAxis(labels).
		AddSeries("requested", requested).
		AddSeries("allocated", allocated)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
