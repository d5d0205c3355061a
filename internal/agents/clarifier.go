package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/natural-agent/internal/llm"
	"github.com/example/natural-agent/internal/models"
)

const clarifierSystem = "You are an automation planner. Given a natural language goal, you will produce a minimal " +
	"step-by-step plan using available tools: shell, script, web, database, package. Return concise steps."

// MaxQuestions bounds clarification per run.
const MaxQuestions = 3

// Clarifier decides whether critical parameters are missing before planning.
type Clarifier struct {
	Client llm.Client
}

// AskMissingParameters returns up to three targeted questions, or nil when
// the goal is sufficient. With assumeDefaults set it never asks. A failing
// model collaborator surfaces as ErrPlanningUnavailable rather than being
// silently skipped.
func (c *Clarifier) AskMissingParameters(ctx context.Context, goal string, assumeDefaults bool) ([]string, error) {
	if assumeDefaults {
		return nil, nil
	}
	prompt := "Given the user's goal, list up to 3 short, critical questions needed to safely execute. " +
		"Respond as numbered lines only, or 'none' if sufficient.\nGoal: " + goal
	resp, err := c.Client.Complete(ctx, clarifierSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPlanningUnavailable, err)
	}
	var questions []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "none") {
			return nil, nil
		}
		questions = append(questions, line)
		if len(questions) == MaxQuestions {
			break
		}
	}
	return questions, nil
}
