package tools

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/example/natural-agent/internal/llm"
	"github.com/example/natural-agent/internal/models"
	"github.com/example/natural-agent/internal/workspace"
)

const codegenSystem = "You are a Python code generator. Output ONLY runnable Python 3 code, no backticks, no explanations. " +
	"Prefer stdlib; do not use third-party packages. Write produced files under the current directory. Print results to stdout."

const fixerSystem = "You are a Python code fixer. Output ONLY the full corrected Python 3 script, no backticks, no explanations. " +
	"Constraints: stdlib only, add timeouts, set a User-Agent for HTTP, no interactive input."

var fenceRe = regexp.MustCompile("(?is)```(?:python)?\\n([\\s\\S]*?)```")

// ScriptTool materializes a Python script under workspace/tmp and runs it.
// When no code is supplied, the language model generates it from the task;
// one automatic fix-and-retry pass runs if the first execution fails.
type ScriptTool struct {
	Dirs   Dirs
	Client llm.Client
}

func (t *ScriptTool) Category() models.ToolCategory { return models.CategoryScript }

func (t *ScriptTool) Run(ctx context.Context, req Request, dryRun bool, timeout time.Duration) models.ToolResult {
	code := req.Code
	task := req.Task
	if task == "" {
		task = req.Goal
	}
	if code == "" {
		if t.Client == nil {
			return failure(errors.New("script: no code and no model available"), 1)
		}
		generated, err := t.Client.Complete(ctx, codegenSystem, "Task: "+task+"\nReturn only code.")
		if err != nil {
			return failure(err, 1)
		}
		code = stripFences(generated)
		if !looksLikePython(code) {
			return failure(errors.New("script: model did not return runnable code"), 1)
		}
	}

	scriptPath := t.Dirs.Tmp + "/script_" + stamp() + ".py"
	if dryRun {
		return models.ToolResult{OK: true, ExitCode: 0, Extra: map[string]string{
			"planned_script": scriptPath,
			"planned_code":   code,
		}}
	}

	abs, err := workspace.WriteFile(scriptPath, t.Dirs.Root, []byte(code))
	if err != nil {
		return failure(err, 1)
	}
	res := runCommand(ctx, t.Dirs, "python3 "+abs, timeout)
	res.ArtifactPath = abs

	if t.Client != nil && needsFix(res) {
		fixed, ferr := t.Client.Complete(ctx, fixerSystem,
			"Task intent: "+task+"\nError stderr:\n"+res.Stderr+"\n\nOriginal code:\n"+code+"\nReturn only the corrected script.")
		if ferr == nil {
			fixedCode := stripFences(fixed)
			if looksLikePython(fixedCode) && fixedCode != code {
				if abs2, werr := workspace.WriteFile(scriptPath, t.Dirs.Root, []byte(fixedCode)); werr == nil {
					res = runCommand(ctx, t.Dirs, "python3 "+abs2, timeout)
					res.ArtifactPath = abs2
				}
			}
		}
	}
	return res
}

func needsFix(res models.ToolResult) bool {
	if res.ExitCode == models.TimeoutExitCode {
		return false
	}
	if !res.OK {
		return true
	}
	out := strings.ToLower(res.Stdout)
	for _, k := range []string{"http error", "bad request", "traceback", "exception", "error:"} {
		if strings.Contains(out, k) {
			return true
		}
	}
	return false
}

func stripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

func looksLikePython(code string) bool {
	return strings.Contains(code, "import ") || strings.Contains(code, "def ") || strings.Contains(code, "print(")
}
