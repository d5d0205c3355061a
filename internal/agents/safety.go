package agents

import (
	"strings"

	"github.com/example/natural-agent/internal/models"
)

// destructiveKeywords mark operations with persistent or destructive side
// effects: service mutation, recursive deletes, installs, raw device writes,
// destructive SQL.
var destructiveKeywords = []string{
	"rm -rf", "rm -r ", "rm -fr",
	"systemctl", "service ",
	"apt-get install", "apt install", "pip install", "install",
	"mkfs", "dd if=",
	"drop table", "drop database", "delete from", "truncate table",
}

// Classify computes a step's risk level deterministically. The package
// category is risky by definition; otherwise the step text and parameters
// are scanned for destructive vocabulary. Model-claimed risk is ignored.
func Classify(step models.PlanStep) models.RiskLevel {
	if step.Category == models.CategoryPackage {
		return models.RiskRisky
	}
	text := strings.ToLower(step.Description)
	for _, v := range step.Params {
		text += " " + strings.ToLower(v)
	}
	for _, kw := range destructiveKeywords {
		if strings.Contains(text, kw) {
			return models.RiskRisky
		}
	}
	return models.RiskBenign
}

// Decision is the Safety Gate's verdict for one step.
type Decision struct {
	Authorized bool
	// Simulated means the tool must be invoked in dry-run mode even though
	// the step is authorized.
	Simulated bool
	Reason    string
}

// Authorize applies the decision table over (risk, dry_run, auto_confirm):
//
//	benign               -> authorized, real (simulated iff dry_run)
//	risky + dry_run      -> authorized, simulated
//	risky + auto_confirm -> authorized, real
//	risky otherwise      -> blocked, run halts
func Authorize(step models.PlanStep, policy models.RunPolicy) Decision {
	risk := step.Risk
	if risk == "" {
		risk = Classify(step)
	}
	if risk == models.RiskBenign {
		return Decision{Authorized: true, Simulated: policy.DryRun}
	}
	if policy.DryRun {
		return Decision{Authorized: true, Simulated: true}
	}
	if policy.AutoConfirm {
		return Decision{Authorized: true}
	}
	return Decision{
		Authorized: false,
		Reason:     "confirmation required for potentially risky operation: " + step.Description,
	}
}
