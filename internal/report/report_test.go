package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/natural-agent/internal/models"
)

func sampleReport() models.Report {
	return models.Report{
		Title: "Task Failed",
		Goal:  "count lines in data.csv",
		Steps: []models.StepRecord{
			{
				Name:       "shell.run",
				Command:    "wc -l data.csv",
				ExitCode:   0,
				StdoutPath: "/tmp/root/logs/stdout_1.log",
				Success:    true,
				Notes:      "42 data.csv",
			},
			{
				Name:     "db.query",
				Command:  "SELECT 1",
				ExitCode: 1,
				Success:  false,
				Notes:    "connection refused",
			},
		},
		Outputs:    []string{"/tmp/root/outputs/query_result.csv"},
		StartedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC),
		Failure:    "step 2 failed",
	}
}

func TestGenerate(t *testing.T) {
	md := Generate(sampleReport())

	assert.True(t, strings.HasPrefix(md, "# Task Failed\n"))
	assert.Contains(t, md, "- Goal: count lines in data.csv")
	assert.Contains(t, md, "✅ shell.run")
	assert.Contains(t, md, "❌ db.query")
	assert.Contains(t, md, "- Command: `wc -l data.csv`")
	assert.Contains(t, md, "- Exit code: 1")
	assert.Contains(t, md, "## Artifacts")
	assert.Contains(t, md, "`/tmp/root/outputs/query_result.csv`")
	assert.Contains(t, md, "## Failure")
	assert.Contains(t, md, "step 2 failed")
}

func TestGenerateEmptyRun(t *testing.T) {
	md := Generate(models.Report{Title: "Task", Goal: "noop"})
	assert.Contains(t, md, "(no steps executed)")
	assert.NotContains(t, md, "## Failure")
	assert.NotContains(t, md, "## Artifacts")
}

func TestSave(t *testing.T) {
	root := t.TempDir()
	reportsDir := filepath.Join(root, "reports")

	r := sampleReport()
	r.Title = "Task Done"
	path, err := Save(reportsDir, root, r)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".md"))
	assert.Contains(t, filepath.Base(path), "Task_Done")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Task Done")
}

func TestSaveRejectsEscape(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()

	_, err := Save(elsewhere, root, models.Report{Title: "x"})
	var escape *models.WorkspaceEscapeError
	require.ErrorAs(t, err, &escape)
}
