package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/studyplan/core/planlog"
)

func TestParseDeadline(t *testing.T) {
	got, err := parseDeadline("2025-03-10T18:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))

	got, err = parseDeadline("2025-03-10 18:30")
	require.NoError(t, err)
	assert.Equal(t, 18, got.Hour())
	assert.Equal(t, 30, got.Minute())

	got, err = parseDeadline("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Day())
	assert.Equal(t, 23, got.Hour())
	assert.Equal(t, 59, got.Minute())

	_, err = parseDeadline("next friday")
	assert.Error(t, err)
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestTaskAndPlanCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("store:\n  backend: sqlite\n  path: %s\nplan_log:\n  backend: jsonl\n  path: %s\n",
		filepath.Join(dir, "state.db"), filepath.Join(dir, "plans.log"))
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))

	deadline := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	id := strings.TrimSpace(run(t, "task", "add", "-c", cfg, "-u", "alice", "--id", "essay", "--title", "Essay", "--minutes", "100", "--deadline", deadline))
	assert.Equal(t, "essay", id)

	list := run(t, "task", "list", "-c", cfg, "-u", "alice")
	assert.Contains(t, list, "essay")
	assert.Contains(t, list, "Essay")

	out := run(t, "plan", "-c", cfg, "-u", "alice", "--format", "csv")
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"block_id", "task_id", "start", "end"}, rows[0])
	assert.Equal(t, "essay", rows[1][1])

	htmlPath := filepath.Join(dir, "plan.html")
	run(t, "plan", "-c", cfg, "-u", "alice", "--latest", "--format", "html", "--out", htmlPath)
	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Essay")

	rep := run(t, "report", "-c", cfg, "-u", "alice")
	assert.Contains(t, rep, `"planned_blocks": 2`)

	table := run(t, "log", "-c", cfg, "-u", "alice")
	assert.Contains(t, table, "UNSCHEDULED")
	assert.Equal(t, 2, strings.Count(table, "\n"), "header and one run")

	var recs []planlog.LogRecord
	require.NoError(t, json.Unmarshal([]byte(run(t, "log", "-c", cfg, "-u", "alice", "--task", "essay", "--json")), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].BlockCount)
	assert.Equal(t, "alice", recs[0].UserID)

	future := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	assert.Equal(t, "[]", strings.TrimSpace(run(t, "log", "-c", cfg, "-u", "alice", "--since", future, "--json")))

	run(t, "task", "rm", "-c", cfg, "-u", "alice", "essay")
	assert.NotContains(t, run(t, "task", "list", "-c", cfg, "-u", "alice"), "essay")
}
