// Package orchestrator drives the run state machine:
//
//	Idle -> Clarifying -> Planning -> Authorizing/Executing -> Verifying
//	     -> {Planning (depth remains, not all passed) | Reporting} -> Done
//
// Any unhandled error transitions directly to Reporting with a failure
// annotation. Exactly one report is persisted per run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/natural-agent/internal/agents"
	"github.com/example/natural-agent/internal/config"
	"github.com/example/natural-agent/internal/llm"
	"github.com/example/natural-agent/internal/models"
	"github.com/example/natural-agent/internal/report"
	"github.com/example/natural-agent/internal/tools"
)

// Runner bundles the per-process collaborators. Constructed once per CLI
// invocation or REPL session; read-only afterwards.
type Runner struct {
	Settings  *config.Settings
	Logger    *zap.Logger
	Clarifier *agents.Clarifier
	Planner   agents.Planner
	Executor  *agents.Executor
	Verifier  *agents.Verifier
}

// New wires the registry, tools, and agents around the given model client.
func New(cfg *config.Settings, client llm.Client, logger *zap.Logger) *Runner {
	dirs := tools.Dirs{
		Root:      cfg.RootDir,
		Workspace: cfg.WorkspaceDir,
		Outputs:   cfg.OutputsDir,
		Logs:      cfg.LogsDir,
		Tmp:       cfg.TmpDir,
	}
	reg := tools.NewRegistry()
	reg.Register(&tools.ShellTool{Dirs: dirs})
	reg.Register(&tools.ScriptTool{Dirs: dirs, Client: client})
	reg.Register(&tools.PackageTool{Dirs: dirs})
	reg.Register(&tools.WebTool{Dirs: dirs, Client: client})
	reg.Register(&tools.DatabaseTool{Dirs: dirs})
	reg.Register(&tools.FallbackTool{})

	return &Runner{
		Settings:  cfg,
		Logger:    logger,
		Clarifier: &agents.Clarifier{Client: client},
		Planner:   &agents.LLMPlanner{Client: client, Logger: logger},
		Executor: &agents.Executor{
			Registry: reg,
			RootDir:  cfg.RootDir,
			Timeout:  cfg.ScriptTimeout(),
			Logger:   logger,
		},
		Verifier: &agents.Verifier{},
	}
}

// Result is what the CLI needs from a finished run.
type Result struct {
	OK         bool
	Message    string
	Questions  []string
	Steps      []models.StepRecord
	Outputs    []string
	ReportPath string
	// Fatal is set when the run aborted with an orchestration-level error.
	Fatal error
}

// Run executes the full state machine for one goal. A report is persisted on
// every path out of this function, including panics, which are converted to
// FatalError.
func (r *Runner) Run(ctx context.Context, goal string) (res Result) {
	started := time.Now()
	policy := models.RunPolicy{AutoConfirm: r.Settings.AutoConfirm, DryRun: r.Settings.DryRun}
	title := "Task"
	var failure string

	defer func() {
		if p := recover(); p != nil {
			res.Fatal = &models.FatalError{Err: fmt.Errorf("panic: %v", p)}
			res.OK = false
			failure = res.Fatal.Error()
			res.Message = failure
			title = "Task Failed"
		}
		rep := models.Report{
			Title:      title,
			Goal:       goal,
			Steps:      res.Steps,
			Outputs:    res.Outputs,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Failure:    failure,
		}
		path, err := report.Save(r.Settings.ReportsDir, r.Settings.RootDir, rep)
		if err != nil {
			r.Logger.Error("persist report", zap.Error(err))
			return
		}
		res.ReportPath = path
		res.Outputs = append(res.Outputs, path)
		r.Logger.Info("report written", zap.String("path", path))
	}()

	r.Logger.Info("run started", zap.String("goal", goal),
		zap.Bool("dry_run", policy.DryRun), zap.Int("depth", r.Settings.Depth))

	// Clarifying
	questions, err := r.Clarifier.AskMissingParameters(ctx, goal, r.Settings.AssumeDefaults)
	if err != nil {
		// PlanningUnavailable: recover locally with a plan-only run rather
		// than silently skipping clarification.
		r.Logger.Warn("clarifier unavailable, proceeding plan-only", zap.Error(err))
		title = "Plan Only"
		var execErr error
		res.Steps, execErr = r.Executor.Execute(ctx, goal, agents.FallbackPlan(goal), policy)
		res.OK = false
		failure = err.Error()
		if execErr != nil {
			failure += "; " + execErr.Error()
		}
		res.Message = "Planning unavailable; produced a plan-only report."
		return res
	}
	if len(questions) > 0 {
		title = "Clarification Needed"
		res.Questions = questions
		res.OK = false
		res.Message = "Missing critical details. Please answer: " + joinNumbered(questions)
		failure = "halted before planning: clarification required"
		return res
	}

	// Planning / Executing / Verifying, up to depth passes.
	var prior *models.Assessment
	for pass := 1; pass <= r.Settings.Depth; pass++ {
		plan := r.Planner.Plan(ctx, goal, prior, pass)
		r.Logger.Info("plan ready", zap.Int("pass", pass), zap.Int("steps", len(plan.Steps)))

		records, execErr := r.Executor.Execute(ctx, goal, plan, policy)
		res.Steps = append(res.Steps, records...)
		res.Outputs = append(res.Outputs, artifactPaths(records)...)

		if execErr != nil {
			var blocked *models.BlockedError
			if errors.As(execErr, &blocked) {
				title = "Task Blocked"
				failure = "operation refused pending confirmation: " + blocked.Reason
				res.OK = false
				res.Message = "Confirmation required for potentially risky operations. Re-run with --auto-yes or refine the request."
				return res
			}
			title = "Task Failed"
			failure = execErr.Error()
			res.OK = false
			res.Fatal = execErr
			res.Message = failure
			return res
		}

		assessment := r.Verifier.Verify(records)
		r.Logger.Info("verification", zap.Int("pass", pass),
			zap.Bool("all_passed", assessment.AllPassed), zap.String("notes", assessment.Notes))
		if assessment.AllPassed {
			res.OK = true
			res.Message = "Completed"
			return res
		}
		prior = &assessment
	}

	title = "Task Incomplete"
	res.OK = false
	res.Message = "Finished with failed steps after " + fmt.Sprint(r.Settings.Depth) + " planning pass(es): " + prior.Notes
	failure = ""
	return res
}

func artifactPaths(records []models.StepRecord) []string {
	var out []string
	for _, rec := range records {
		if rec.ArtifactPath != "" {
			out = append(out, rec.ArtifactPath)
		}
	}
	return out
}

func joinNumbered(items []string) string {
	var b []byte
	for i, q := range items {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, fmt.Sprintf("[%d] %s", i+1, q)...)
	}
	return string(b)
}
