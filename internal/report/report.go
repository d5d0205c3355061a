// Package report renders and persists the run report. A report is written
// for every run, including runs that terminate via an unrecoverable error.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/natural-agent/internal/models"
	"github.com/example/natural-agent/internal/workspace"
)

// Generate renders the report as Markdown.
func Generate(r models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "- Goal: %s\n", r.Goal)
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Finished: %s\n", r.FinishedAt.UTC().Format(time.RFC3339))
	b.WriteString("\n## Steps\n")
	if len(r.Steps) == 0 {
		b.WriteString("- (no steps executed)\n")
	}
	for _, s := range r.Steps {
		icon := "✅"
		if !s.Success {
			icon = "❌"
		}
		fmt.Fprintf(&b, "- %s %s\n", icon, s.Name)
		if s.Command != "" {
			fmt.Fprintf(&b, "  - Command: `%s`\n", s.Command)
		}
		fmt.Fprintf(&b, "  - Exit code: %d\n", s.ExitCode)
		if s.StdoutPath != "" {
			fmt.Fprintf(&b, "  - Stdout: `%s`\n", s.StdoutPath)
		}
		if s.StderrPath != "" {
			fmt.Fprintf(&b, "  - Stderr: `%s`\n", s.StderrPath)
		}
		if s.Notes != "" {
			fmt.Fprintf(&b, "  - Notes: %s\n", indentContinuation(s.Notes))
		}
	}
	if len(r.Outputs) > 0 {
		b.WriteString("\n## Artifacts\n")
		for _, p := range r.Outputs {
			fmt.Fprintf(&b, "- `%s`\n", p)
		}
	}
	if r.Failure != "" {
		b.WriteString("\n## Failure\n")
		fmt.Fprintf(&b, "The run terminated abnormally: %s\n", r.Failure)
	}
	return b.String()
}

// Save persists the document under reportsDir with a deterministic name:
// <timestamp>_<sanitized title>.md. The write is containment-checked against
// root like every other write.
func Save(reportsDir, root string, r models.Report) (string, error) {
	ts := time.Now().UTC().Format("20060102_150405")
	name := workspace.SanitizeFilename(ts+"_"+r.Title) + ".md"
	return workspace.WriteFile(filepath.Join(reportsDir, name), root, []byte(Generate(r)))
}

func indentContinuation(s string) string {
	return strings.ReplaceAll(s, "\n", "\n    ")
}
