package tools

import (
	"context"
	"time"

	"github.com/example/natural-agent/internal/models"
)

// FallbackTool is the plan-only category: no side effect, just an account of
// what was intended so the report can ask for more specifics.
type FallbackTool struct{}

func (t *FallbackTool) Category() models.ToolCategory { return models.CategoryFallback }

func (t *FallbackTool) Run(ctx context.Context, req Request, dryRun bool, timeout time.Duration) models.ToolResult {
	desc := req.Goal
	if req.Task != "" {
		desc = req.Task
	}
	return models.ToolResult{
		OK:       true,
		ExitCode: 0,
		Stdout:   "Planned only, no tool invoked. Provide more specifics to execute: " + desc,
	}
}
