package tools

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/natural-agent/internal/models"
)

// PackageTool installs system and Python packages. Installation is always a
// risky operation; the safety gate decides whether this tool ever runs for
// real. After a real install it verifies each binary with `--version`.
type PackageTool struct {
	Dirs Dirs
}

func (t *PackageTool) Category() models.ToolCategory { return models.CategoryPackage }

func (t *PackageTool) Run(ctx context.Context, req Request, dryRun bool, timeout time.Duration) models.ToolResult {
	cmds := plannedCommands(req)
	if len(cmds) == 0 {
		return failure(errors.New("package: nothing to install"), 1)
	}
	if dryRun {
		return models.ToolResult{OK: true, ExitCode: 0, Stdout: strings.Join(cmds, "\n"),
			Extra: map[string]string{"planned_commands": strings.Join(cmds, "\n")}}
	}

	var out, errOut []string
	for _, c := range cmds {
		res := runCommand(ctx, t.Dirs, c, timeout)
		out = append(out, res.Stdout)
		errOut = append(errOut, res.Stderr)
		if !res.OK {
			res.Stdout = strings.Join(out, "\n")
			res.Stderr = strings.Join(errOut, "\n")
			return res
		}
	}
	for _, pkg := range req.AptPackages {
		check := runCommand(ctx, t.Dirs, pkg+" --version", timeout)
		status := "ok"
		if !check.OK {
			status = "missing"
		}
		out = append(out, pkg+": "+status)
	}
	return models.ToolResult{OK: true, ExitCode: 0, Stdout: strings.Join(out, "\n"), Stderr: strings.Join(errOut, "\n")}
}

func plannedCommands(req Request) []string {
	var cmds []string
	if len(req.AptPackages) > 0 {
		cmds = append(cmds,
			"sudo apt-get update -y",
			"sudo apt-get install -y "+strings.Join(req.AptPackages, " "))
	}
	if len(req.PipPackages) > 0 {
		cmds = append(cmds, "pip3 install "+strings.Join(req.PipPackages, " "))
	}
	return cmds
}
