package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/natural-agent/internal/llm"
	"github.com/example/natural-agent/internal/models"
)

// Planner produces the step plan for one pass. Later passes receive the
// previous pass's assessment and may revise.
type Planner interface {
	Plan(ctx context.Context, goal string, prior *models.Assessment, pass int) models.Plan
}

// LLMPlanner asks the model for a JSON step array. The response is treated
// as an untrusted string: fences are stripped, the first array is extracted
// if needed, and a {"steps": [...]} wrapper is tolerated. Anything still
// unparseable degrades to a single plan-only fallback step; no error escapes
// this boundary.
type LLMPlanner struct {
	Client llm.Client
	Logger *zap.Logger
}

type rawStep struct {
	Description string            `json:"description"`
	Tool        string            `json:"tool"`
	Params      map[string]string `json:"params"`
}

func (p *LLMPlanner) Plan(ctx context.Context, goal string, prior *models.Assessment, pass int) models.Plan {
	raw, err := p.Client.Complete(ctx, clarifierSystem, planPrompt(goal, prior, pass))
	if err != nil || strings.TrimSpace(raw) == "" {
		if err != nil {
			p.Logger.Warn("planner: model call failed, using fallback plan", zap.Error(err))
		}
		return fallbackPlan(goal, pass)
	}
	steps := parseSteps(raw)
	if len(steps) == 0 {
		p.Logger.Warn("planner: unparseable plan, using fallback plan", zap.Int("pass", pass))
		return fallbackPlan(goal, pass)
	}

	plan := models.Plan{Pass: pass}
	for _, s := range steps {
		cat := models.ToolCategory(strings.ToLower(strings.TrimSpace(s.Tool)))
		if !cat.Known() {
			cat = Route(s.Description)
		}
		step := models.PlanStep{
			Description: s.Description,
			Category:    cat,
			Params:      s.Params,
		}
		step.Risk = Classify(step)
		plan.Steps = append(plan.Steps, step)
	}
	return plan
}

func planPrompt(goal string, prior *models.Assessment, pass int) string {
	var b strings.Builder
	b.WriteString(`Output ONLY a JSON array of step objects, no prose, no code fences.

Tools (you MUST stick to these categories):
- shell: params {"command": string}
- script: params {"task": string} or {"code": string} (Python 3)
- web: params {"url": string}
- database: params {"url": string, "sql": string}
- package: params {"apt": "comma,separated", "pip": "comma,separated"}
- fallback: params {} (plan-only, use when no tool applies)

Rules:
- Produce 1-3 ordered steps. Prefer the single most direct step.
- Schema for each step: {"description": "...", "tool": "shell"|"script"|"web"|"database"|"package"|"fallback", "params": {...}}
`)
	if prior != nil && pass > 1 {
		fmt.Fprintf(&b, "\nThis is revision pass %d. The previous pass failed verification: %s\n", pass, prior.Notes)
		b.WriteString("Produce a revised plan that corrects the failed steps or extends coverage. Do not repeat steps that already passed.\n")
	}
	b.WriteString("\nGoal: " + goal)
	return b.String()
}

// FallbackPlan is the plan-only degradation used when planning is not
// available at all (e.g. the clarifier could not reach the model).
func FallbackPlan(goal string) models.Plan {
	return fallbackPlan(goal, 1)
}

// fallbackPlan is the typed degradation for malformed or unavailable model
// output: report plan-only and request clarification.
func fallbackPlan(goal string, pass int) models.Plan {
	step := models.PlanStep{
		Description: "report plan-only, request clarification",
		Category:    models.CategoryFallback,
		Params:      map[string]string{"task": goal},
	}
	step.Risk = Classify(step)
	return models.Plan{Pass: pass, Steps: []models.PlanStep{step}}
}

func parseSteps(raw string) []rawStep {
	text := normalizeJSONText(raw)
	var steps []rawStep
	if err := json.Unmarshal([]byte(text), &steps); err == nil && len(steps) > 0 {
		return steps
	}
	if arr := extractJSONArray(text); arr != "" {
		if err := json.Unmarshal([]byte(arr), &steps); err == nil && len(steps) > 0 {
			return steps
		}
	}
	var wrapper struct {
		Steps []rawStep `json:"steps"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil && len(wrapper.Steps) > 0 {
		return wrapper.Steps
	}
	return nil
}

// normalizeJSONText strips code fences like ```json ... ``` and falls back
// to first-array extraction when the payload does not start with '['.
func normalizeJSONText(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```")
		if idx := strings.IndexByte(t, '\n'); idx != -1 {
			t = t[idx+1:]
		}
		if j := strings.LastIndex(t, "```"); j != -1 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	if !strings.HasPrefix(t, "[") {
		if arr := extractJSONArray(t); arr != "" {
			return arr
		}
	}
	return t
}

// extractJSONArray returns the first balanced top-level JSON array in s.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
