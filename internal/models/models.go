package models

import (
	"time"
)

// ToolCategory is the fixed set of capabilities a plan step can target.
type ToolCategory string

const (
	CategoryShell    ToolCategory = "shell"
	CategoryScript   ToolCategory = "script"
	CategoryPackage  ToolCategory = "package"
	CategoryWeb      ToolCategory = "web"
	CategoryDatabase ToolCategory = "database"
	CategoryFallback ToolCategory = "fallback"
)

// Known reports whether c is one of the routable categories.
func (c ToolCategory) Known() bool {
	switch c {
	case CategoryShell, CategoryScript, CategoryPackage, CategoryWeb, CategoryDatabase, CategoryFallback:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskBenign RiskLevel = "benign"
	RiskRisky  RiskLevel = "risky"
)

// PlanStep is one ordered element of a Plan. Immutable once created; a
// revised planning pass produces a fresh Plan rather than editing steps.
type PlanStep struct {
	Description string            `json:"description"`
	Category    ToolCategory      `json:"tool"`
	Risk        RiskLevel         `json:"risk_level"`
	Params      map[string]string `json:"params,omitempty"`
}

// Plan is the ordered step sequence for a single planning pass.
type Plan struct {
	Pass  int        `json:"pass"`
	Steps []PlanStep `json:"steps"`
}

// RunPolicy carries the confirmation/simulation flags for one run.
type RunPolicy struct {
	AutoConfirm bool
	DryRun      bool
}

// ToolResult is the uniform return contract from every tool invocation.
type ToolResult struct {
	OK           bool
	Stdout       string
	Stderr       string
	ExitCode     int
	ArtifactPath string
	Extra        map[string]string
}

// TimeoutExitCode marks a step whose tool call exceeded its bound. The value
// follows the GNU timeout convention.
const TimeoutExitCode = 124

// StepRecord captures one executed step's outcome. Records are appended in
// execution order and never mutated afterwards.
type StepRecord struct {
	Name         string
	Command      string
	ExitCode     int
	StdoutPath   string
	StderrPath   string
	ArtifactPath string
	Success      bool
	Notes        string
}

// Assessment is the Verifier's judgment of one pass's StepRecords.
type Assessment struct {
	AllPassed   bool
	FailedSteps []int
	Notes       string
}

// Report is assembled once at the end of a run, success or failure.
type Report struct {
	Title      string
	Goal       string
	Steps      []StepRecord
	Outputs    []string
	StartedAt  time.Time
	FinishedAt time.Time
	// Failure holds the terminating error text when the run ended
	// abnormally; empty otherwise.
	Failure string
}
