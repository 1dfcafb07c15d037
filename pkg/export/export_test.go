package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/studyplan/core/model"
)

func samplePlan() model.Plan {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return model.Plan{
		ID:        "p1",
		UserID:    "alice",
		CreatedAt: start.Add(-time.Hour),
		Horizon:   start.Add(7 * 24 * time.Hour),
		Blocks: []model.WorkBlock{
			{ID: "b1", TaskID: "math", Start: start, End: start.Add(50 * time.Minute)},
			{ID: "b2", TaskID: "bio", Start: start.Add(time.Hour), End: start.Add(110 * time.Minute)},
		},
		Allocations: []model.TaskAllocation{
			{TaskID: "math", RequestedMinutes: 80, AllocatedMinutes: 50},
			{TaskID: "bio", RequestedMinutes: 50, AllocatedMinutes: 50},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, samplePlan()))
	var got model.Plan
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "p1", got.ID)
	require.Len(t, got.Blocks, 2)
	assert.True(t, got.Blocks[1].End.Equal(samplePlan().Blocks[1].End))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, samplePlan()))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"block_id", "task_id", "start", "end"},
		{"b1", "math", "2025-03-10T09:00:00Z", "2025-03-10T09:50:00Z"},
		{"b2", "bio", "2025-03-10T10:00:00Z", "2025-03-10T10:50:00Z"},
	}, rows)
}

func TestWriteCSVEmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, model.Plan{}))
	assert.Equal(t, "block_id,task_id,start,end\n", buf.String())
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, samplePlan(), map[string]string{"math": "Linear algebra"}))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Linear algebra")
	assert.Contains(t, html, "bio")
	assert.Contains(t, html, "requested")
	assert.Contains(t, html, "allocated")
}

func TestParseFormatAndWrite(t *testing.T) {
	for _, s := range []string{"json", "CSV", "html"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, samplePlan(), nil))
		assert.NotZero(t, buf.Len())
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), samplePlan(), nil))
}
