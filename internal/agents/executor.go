package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/natural-agent/internal/models"
	"github.com/example/natural-agent/internal/tools"
	"github.com/example/natural-agent/internal/workspace"
)

// Executor runs a plan's steps in order: route, authorize, invoke. Step-local
// failures (tool error, timeout, workspace escape) are recorded and execution
// continues; only a Safety Gate refusal halts the remaining plan, returned as
// *models.BlockedError alongside the records captured so far.
type Executor struct {
	Registry *tools.Registry
	RootDir  string
	Timeout  time.Duration
	Logger   *zap.Logger
}

func (e *Executor) Execute(ctx context.Context, goal string, plan models.Plan, policy models.RunPolicy) ([]models.StepRecord, error) {
	records := make([]models.StepRecord, 0, len(plan.Steps))
	for i, step := range plan.Steps {
		select {
		case <-ctx.Done():
			return records, &models.FatalError{Err: ctx.Err()}
		default:
		}

		if !step.Category.Known() {
			step.Category = Route(step.Description)
		}
		decision := Authorize(step, policy)
		if !decision.Authorized {
			records = append(records, models.StepRecord{
				Name:     string(step.Category) + ".blocked",
				Command:  step.Description,
				ExitCode: 1,
				Success:  false,
				Notes:    decision.Reason,
			})
			e.Logger.Warn("safety gate blocked step",
				zap.Int("step", i+1), zap.String("category", string(step.Category)))
			return records, &models.BlockedError{Step: step.Description, Reason: decision.Reason}
		}

		tool, ok := e.Registry.Get(step.Category)
		if !ok {
			records = append(records, models.StepRecord{
				Name:     string(step.Category),
				Command:  step.Description,
				ExitCode: 1,
				Success:  false,
				Notes:    "no tool registered for category",
			})
			continue
		}

		req := buildRequest(goal, step)
		e.Logger.Debug("executing step",
			zap.Int("step", i+1),
			zap.String("category", string(step.Category)),
			zap.Bool("simulated", decision.Simulated))
		res := tool.Run(ctx, req, decision.Simulated, e.Timeout)

		rec := recordFor(step, res)
		if res.ArtifactPath != "" {
			if _, err := workspace.EnsureWithinRoot(res.ArtifactPath, e.RootDir); err != nil {
				rec.Success = false
				rec.ArtifactPath = ""
				rec.Notes = appendNote(rec.Notes, err.Error())
				e.Logger.Warn("workspace escape", zap.String("path", res.ArtifactPath))
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordFor(step models.PlanStep, res models.ToolResult) models.StepRecord {
	rec := models.StepRecord{
		Name:         stepName(step.Category),
		Command:      commandFor(step, res),
		ExitCode:     res.ExitCode,
		StdoutPath:   res.Extra["stdout_path"],
		StderrPath:   res.Extra["stderr_path"],
		ArtifactPath: res.ArtifactPath,
		Success:      res.OK,
	}
	switch {
	case res.ExitCode == models.TimeoutExitCode:
		rec.Notes = appendNote(res.Stderr, "tool call exceeded its timeout and was terminated")
	case !res.OK:
		rec.Notes = firstLines(res.Stderr, 5)
	default:
		rec.Notes = firstLines(res.Stdout, 5)
	}
	return rec
}

func stepName(c models.ToolCategory) string {
	switch c {
	case models.CategoryShell:
		return "shell.run"
	case models.CategoryScript:
		return "script.run"
	case models.CategoryPackage:
		return "packages.ensure"
	case models.CategoryWeb:
		return "web.fetch_summarize"
	case models.CategoryDatabase:
		return "db.query"
	default:
		return "plan.only"
	}
}

func commandFor(step models.PlanStep, res models.ToolResult) string {
	if c := step.Params["command"]; c != "" {
		return c
	}
	if c := res.Extra["planned_command"]; c != "" {
		return c
	}
	return step.Description
}

// buildRequest fills the typed request from the step's parameters, with the
// parsed goal intent backfilling anything the planner left out.
func buildRequest(goal string, step models.PlanStep) tools.Request {
	in := ParseIntent(step.Description + " " + goal)
	req := tools.Request{
		Goal:    goal,
		Command: step.Params["command"],
		Code:    step.Params["code"],
		Task:    step.Params["task"],
		URL:     step.Params["url"],
		SQL:     step.Params["sql"],
		Params:  step.Params,
	}
	if req.Task == "" {
		req.Task = step.Description
	}
	if req.URL == "" {
		req.URL = in.URL
	}
	switch step.Category {
	case models.CategoryDatabase:
		req.DSN = step.Params["url"]
		if req.DSN == "" {
			req.DSN = in.DSN
		} else if Route(req.DSN) == models.CategoryWeb {
			// planner put an http URL where the DSN belongs
			req.DSN = in.DSN
		}
		if req.SQL == "" {
			req.SQL = in.SQL
		}
	case models.CategoryPackage:
		req.AptPackages = splitList(step.Params["apt"])
		req.PipPackages = splitList(step.Params["pip"])
		if len(req.AptPackages) == 0 && len(req.PipPackages) == 0 {
			req.AptPackages = in.AptPackages
			req.PipPackages = in.PipPackages
		}
	}
	return req
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = append(lines[:n], fmt.Sprintf("... (%d more lines)", len(lines)-n))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
