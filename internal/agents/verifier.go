package agents

import (
	"fmt"
	"os"
	"strings"

	"github.com/example/natural-agent/internal/models"
)

// Verifier applies the minimal pass policy: a step passed if its tool
// reported success and, when an artifact was promised, that artifact exists
// and is non-empty.
type Verifier struct{}

func (v *Verifier) Verify(records []models.StepRecord) models.Assessment {
	a := models.Assessment{AllPassed: true}
	var notes []string
	for i, rec := range records {
		passed := rec.Success && rec.ExitCode == 0
		reason := rec.Notes
		if passed && rec.ArtifactPath != "" {
			info, err := os.Stat(rec.ArtifactPath)
			if err != nil {
				passed = false
				reason = "promised artifact missing: " + rec.ArtifactPath
			} else if info.Size() == 0 {
				passed = false
				reason = "promised artifact empty: " + rec.ArtifactPath
			}
		}
		if !passed {
			a.AllPassed = false
			a.FailedSteps = append(a.FailedSteps, i)
			notes = append(notes, fmt.Sprintf("step %d (%s): %s", i+1, rec.Name, reason))
		}
	}
	a.Notes = strings.Join(notes, "; ")
	if a.AllPassed {
		a.Notes = "all steps passed"
	}
	return a
}
