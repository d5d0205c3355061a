package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/example/natural-agent/internal/models"
	"github.com/example/natural-agent/internal/workspace"
)

// ShellTool runs a command under `sh -c` with the workspace as its working
// directory. Stdout and stderr are persisted to the logs directory.
type ShellTool struct {
	Dirs Dirs
}

func (t *ShellTool) Category() models.ToolCategory { return models.CategoryShell }

func (t *ShellTool) Run(ctx context.Context, req Request, dryRun bool, timeout time.Duration) models.ToolResult {
	if req.Command == "" {
		return failure(errors.New("shell: empty command"), 1)
	}
	if dryRun {
		return models.ToolResult{OK: true, ExitCode: 0, Extra: map[string]string{"planned_command": req.Command}}
	}
	return runCommand(ctx, t.Dirs, req.Command, timeout)
}

// runCommand is shared by the shell, script, and package tools. Timeout is
// enforced by the context: on expiry the process is killed and the result is
// synthesized with the timeout sentinel exit code.
func runCommand(ctx context.Context, dirs Dirs, command string, timeout time.Duration) models.ToolResult {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = dirs.Workspace
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	ts := stamp()
	stdoutPath, werr := workspace.WriteFile(dirs.Logs+"/stdout_"+ts+".log", dirs.Root, stdout.Bytes())
	if werr != nil {
		stdoutPath = ""
	}
	stderrPath, werr := workspace.WriteFile(dirs.Logs+"/stderr_"+ts+".log", dirs.Root, stderr.Bytes())
	if werr != nil {
		stderrPath = ""
	}

	res := models.ToolResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Extra:  map[string]string{"stdout_path": stdoutPath, "stderr_path": stderrPath},
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.OK = false
		res.ExitCode = models.TimeoutExitCode
		res.Stderr = "command timed out after " + timeout.String()
		return res
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = 1
			res.Stderr = err.Error()
		}
		res.OK = false
		return res
	}
	res.OK = true
	res.ExitCode = 0
	return res
}
