package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/natural-agent/internal/models"
)

func testDirs(t *testing.T) Dirs {
	t.Helper()
	root := t.TempDir()
	d := Dirs{
		Root:      root,
		Workspace: filepath.Join(root, "workspace"),
		Outputs:   filepath.Join(root, "outputs"),
		Logs:      filepath.Join(root, "logs"),
		Tmp:       filepath.Join(root, "workspace", "tmp"),
	}
	for _, dir := range []string{d.Workspace, d.Outputs, d.Logs, d.Tmp} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return d
}

func TestShellRun(t *testing.T) {
	sh := &ShellTool{Dirs: testDirs(t)}
	res := sh.Run(context.Background(), Request{Command: "echo hello"}, false, 5*time.Second)

	assert.True(t, res.OK)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)

	content, err := os.ReadFile(res.Extra["stdout_path"])
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestShellRunsInWorkspace(t *testing.T) {
	d := testDirs(t)
	sh := &ShellTool{Dirs: d}
	res := sh.Run(context.Background(), Request{Command: "pwd"}, false, 5*time.Second)

	require.True(t, res.OK)
	got, err := filepath.EvalSymlinks(filepath.Clean(res.Stdout[:len(res.Stdout)-1]))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(d.Workspace)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestShellExitCode(t *testing.T) {
	sh := &ShellTool{Dirs: testDirs(t)}
	res := sh.Run(context.Background(), Request{Command: "exit 3"}, false, 5*time.Second)

	assert.False(t, res.OK)
	assert.Equal(t, 3, res.ExitCode)
}

func TestShellTimeout(t *testing.T) {
	sh := &ShellTool{Dirs: testDirs(t)}
	start := time.Now()
	res := sh.Run(context.Background(), Request{Command: "sleep 10"}, false, 200*time.Millisecond)

	assert.False(t, res.OK)
	assert.Equal(t, models.TimeoutExitCode, res.ExitCode)
	assert.Contains(t, res.Stderr, "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestShellDryRun(t *testing.T) {
	sh := &ShellTool{Dirs: testDirs(t)}
	res := sh.Run(context.Background(), Request{Command: "rm -rf /"}, true, time.Second)

	assert.True(t, res.OK)
	assert.Equal(t, "rm -rf /", res.Extra["planned_command"])
}

func TestShellEmptyCommand(t *testing.T) {
	sh := &ShellTool{Dirs: testDirs(t)}
	res := sh.Run(context.Background(), Request{}, false, time.Second)

	assert.False(t, res.OK)
	assert.Equal(t, 1, res.ExitCode)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&ShellTool{})
	reg.Register(&FallbackTool{})

	tool, ok := reg.Get(models.CategoryShell)
	require.True(t, ok)
	assert.Equal(t, models.CategoryShell, tool.Category())

	_, ok = reg.Get(models.CategoryWeb)
	assert.False(t, ok)
}
