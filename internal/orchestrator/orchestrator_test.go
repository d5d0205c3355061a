package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/natural-agent/internal/agents"
	"github.com/example/natural-agent/internal/config"
	"github.com/example/natural-agent/internal/llm"
	"github.com/example/natural-agent/internal/models"
	"github.com/example/natural-agent/internal/tools"
)

// stubPlanner replays canned plans and records the priors it was handed.
type stubPlanner struct {
	plans  []models.Plan
	calls  int
	priors []*models.Assessment
}

func (s *stubPlanner) Plan(ctx context.Context, goal string, prior *models.Assessment, pass int) models.Plan {
	s.priors = append(s.priors, prior)
	p := s.plans[len(s.plans)-1]
	if s.calls < len(s.plans) {
		p = s.plans[s.calls]
	}
	s.calls++
	p.Pass = pass
	return p
}

// queueTool returns queued results in order, repeating the last.
type queueTool struct {
	cat     models.ToolCategory
	results []models.ToolResult
	calls   int
}

func (q *queueTool) Category() models.ToolCategory { return q.cat }

func (q *queueTool) Run(ctx context.Context, req tools.Request, dryRun bool, timeout time.Duration) models.ToolResult {
	res := q.results[len(q.results)-1]
	if q.calls < len(q.results) {
		res = q.results[q.calls]
	}
	q.calls++
	return res
}

func testSettings(t *testing.T, depth int) *config.Settings {
	t.Helper()
	root := t.TempDir()
	return &config.Settings{
		RootDir:              root,
		WorkspaceDir:         filepath.Join(root, "workspace"),
		OutputsDir:           filepath.Join(root, "outputs"),
		ReportsDir:           filepath.Join(root, "reports"),
		LogsDir:              filepath.Join(root, "logs"),
		TmpDir:               filepath.Join(root, "workspace", "tmp"),
		Model:                config.DefaultModel,
		AutoConfirm:          true,
		AssumeDefaults:       true,
		Depth:                depth,
		ScriptTimeoutSeconds: 5,
	}
}

func testRunner(cfg *config.Settings, planner agents.Planner, client llm.Client, ts ...tools.Tool) *Runner {
	reg := tools.NewRegistry()
	reg.Register(&tools.FallbackTool{})
	for _, tool := range ts {
		reg.Register(tool)
	}
	return &Runner{
		Settings:  cfg,
		Logger:    zap.NewNop(),
		Clarifier: &agents.Clarifier{Client: client},
		Planner:   planner,
		Executor: &agents.Executor{
			Registry: reg,
			RootDir:  cfg.RootDir,
			Timeout:  cfg.ScriptTimeout(),
			Logger:   zap.NewNop(),
		},
		Verifier: &agents.Verifier{},
	}
}

func shellPlan(desc, command string) models.Plan {
	return models.Plan{Steps: []models.PlanStep{{
		Description: desc,
		Category:    models.CategoryShell,
		Risk:        models.RiskBenign,
		Params:      map[string]string{"command": command},
	}}}
}

func reportContent(t *testing.T, path string) string {
	t.Helper()
	require.NotEmpty(t, path, "a report must be persisted on every run")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestRunCompletesOnFirstPass(t *testing.T) {
	planner := &stubPlanner{plans: []models.Plan{shellPlan("say hi", "echo hi")}}
	tool := &queueTool{cat: models.CategoryShell, results: []models.ToolResult{
		{OK: true, ExitCode: 0, Stdout: "hi"},
	}}
	r := testRunner(testSettings(t, 3), planner, &llm.MockClient{}, tool)

	res := r.Run(context.Background(), "say hi")

	assert.True(t, res.OK)
	assert.Equal(t, "Completed", res.Message)
	assert.Equal(t, 1, planner.calls, "verified success stops the depth loop early")
	require.Len(t, res.Steps, 1)

	content := reportContent(t, res.ReportPath)
	assert.Contains(t, content, "# Task")
	assert.Contains(t, content, "✅ shell.run")
	assert.Equal(t, res.ReportPath, res.Outputs[len(res.Outputs)-1])
}

func TestRunRevisesAfterFailedPass(t *testing.T) {
	planner := &stubPlanner{plans: []models.Plan{
		shellPlan("first attempt", "false"),
		shellPlan("second attempt", "true"),
	}}
	tool := &queueTool{cat: models.CategoryShell, results: []models.ToolResult{
		{OK: false, ExitCode: 1, Stderr: "nope"},
		{OK: true, ExitCode: 0},
	}}
	r := testRunner(testSettings(t, 3), planner, &llm.MockClient{}, tool)

	res := r.Run(context.Background(), "try twice")

	assert.True(t, res.OK)
	assert.Equal(t, 2, planner.calls)
	assert.Len(t, res.Steps, 2, "records accumulate across passes")

	require.Len(t, planner.priors, 2)
	assert.Nil(t, planner.priors[0])
	require.NotNil(t, planner.priors[1])
	assert.False(t, planner.priors[1].AllPassed)
	assert.Contains(t, planner.priors[1].Notes, "shell.run")
}

func TestRunIncompleteAfterDepthExhausted(t *testing.T) {
	planner := &stubPlanner{plans: []models.Plan{shellPlan("always fails", "false")}}
	tool := &queueTool{cat: models.CategoryShell, results: []models.ToolResult{
		{OK: false, ExitCode: 1, Stderr: "still broken"},
	}}
	r := testRunner(testSettings(t, 2), planner, &llm.MockClient{}, tool)

	res := r.Run(context.Background(), "hopeless")

	assert.False(t, res.OK)
	assert.Nil(t, res.Fatal)
	assert.Equal(t, 2, planner.calls, "exactly depth passes")
	assert.Contains(t, res.Message, "2 planning pass")

	content := reportContent(t, res.ReportPath)
	assert.Contains(t, content, "# Task Incomplete")
}

func TestRunBlockedByGate(t *testing.T) {
	plan := models.Plan{Steps: []models.PlanStep{{
		Description: "ensure jq",
		Category:    models.CategoryPackage,
		Risk:        models.RiskRisky,
	}}}
	planner := &stubPlanner{plans: []models.Plan{plan}}
	cfg := testSettings(t, 3)
	cfg.AutoConfirm = false
	r := testRunner(cfg, planner, &llm.MockClient{})

	res := r.Run(context.Background(), "install jq")

	assert.False(t, res.OK)
	assert.Nil(t, res.Fatal)
	assert.Contains(t, res.Message, "Confirmation required")
	assert.Equal(t, 1, planner.calls, "a refusal halts the depth loop")
	require.Len(t, res.Steps, 1)
	assert.Equal(t, "package.blocked", res.Steps[0].Name)

	content := reportContent(t, res.ReportPath)
	assert.Contains(t, content, "# Task Blocked")
	assert.Contains(t, content, "confirmation")
}

func TestRunClarificationHalts(t *testing.T) {
	planner := &stubPlanner{plans: []models.Plan{shellPlan("hi", "echo hi")}}
	cfg := testSettings(t, 1)
	cfg.AssumeDefaults = false
	client := &llm.MockClient{Responses: []string{"1. Which host?\n2. Which port?"}}
	r := testRunner(cfg, planner, client)

	res := r.Run(context.Background(), "connect somewhere")

	assert.False(t, res.OK)
	require.Len(t, res.Questions, 2)
	assert.Contains(t, res.Message, "[1] 1. Which host?")
	assert.Zero(t, planner.calls, "no planning before answers arrive")

	content := reportContent(t, res.ReportPath)
	assert.Contains(t, content, "# Clarification Needed")
	assert.Contains(t, content, "clarification required")
}

func TestRunPlanOnlyWhenModelUnavailable(t *testing.T) {
	planner := &stubPlanner{plans: []models.Plan{shellPlan("hi", "echo hi")}}
	cfg := testSettings(t, 1)
	cfg.AssumeDefaults = false
	client := &llm.MockClient{Err: errors.New("connection refused")}
	r := testRunner(cfg, planner, client)

	res := r.Run(context.Background(), "do something")

	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "Planning unavailable")
	assert.Zero(t, planner.calls)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, "plan.only", res.Steps[0].Name)

	content := reportContent(t, res.ReportPath)
	assert.Contains(t, content, "# Plan Only")
	assert.Contains(t, content, "planning unavailable")
}

func TestRunPlanOnlyFoldsExecuteError(t *testing.T) {
	planner := &stubPlanner{plans: []models.Plan{shellPlan("hi", "echo hi")}}
	cfg := testSettings(t, 1)
	cfg.AssumeDefaults = false
	client := &llm.MockClient{Err: errors.New("connection refused")}
	r := testRunner(cfg, planner, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := r.Run(ctx, "do something")

	assert.False(t, res.OK)
	content := reportContent(t, res.ReportPath)
	assert.Contains(t, content, "planning unavailable")
	assert.Contains(t, content, "context canceled",
		"the plan-only execution error lands in the failure section")
}

func TestRunCollectsArtifacts(t *testing.T) {
	cfg := testSettings(t, 1)
	artifact := filepath.Join(cfg.RootDir, "outputs", "query_result.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(artifact), 0o755))
	require.NoError(t, os.WriteFile(artifact, []byte("a,b\n1,2\n"), 0o644))

	plan := models.Plan{Steps: []models.PlanStep{{
		Description: "query",
		Category:    models.CategoryDatabase,
		Risk:        models.RiskBenign,
		Params:      map[string]string{"url": "mysql://root@localhost/app", "sql": "SELECT 1"},
	}}}
	planner := &stubPlanner{plans: []models.Plan{plan}}
	tool := &queueTool{cat: models.CategoryDatabase, results: []models.ToolResult{
		{OK: true, ExitCode: 0, Stdout: "Rows: 1", ArtifactPath: artifact},
	}}
	r := testRunner(cfg, planner, &llm.MockClient{}, tool)

	res := r.Run(context.Background(), "query the db")

	require.True(t, res.OK)
	assert.Contains(t, res.Outputs, artifact)
	assert.Contains(t, reportContent(t, res.ReportPath), "query_result.csv")
}

func TestNewWiresAllCategories(t *testing.T) {
	cfg := testSettings(t, 1)
	r := New(cfg, &llm.MockClient{}, zap.NewNop())

	for _, c := range []models.ToolCategory{
		models.CategoryShell, models.CategoryScript, models.CategoryPackage,
		models.CategoryWeb, models.CategoryDatabase, models.CategoryFallback,
	} {
		_, ok := r.Executor.Registry.Get(c)
		assert.True(t, ok, string(c))
	}
	assert.Equal(t, cfg.ScriptTimeout(), r.Executor.Timeout)
}
