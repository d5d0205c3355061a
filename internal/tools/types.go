// Package tools hosts the capability implementations behind the executor.
// Every tool satisfies the same contract: accept a typed request, return a
// uniform ToolResult, never panic past its boundary.
package tools

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/natural-agent/internal/models"
)

// Request is the typed input to a tool invocation. Only the fields relevant
// to the routed category are populated.
type Request struct {
	Goal string

	// shell
	Command string

	// script
	Code string
	Task string

	// web
	URL string

	// database
	DSN string
	SQL string

	// package
	AptPackages []string
	PipPackages []string

	Params map[string]string
}

// Tool is the uniform capability contract.
type Tool interface {
	Category() models.ToolCategory
	Run(ctx context.Context, req Request, dryRun bool, timeout time.Duration) models.ToolResult
}

// Dirs is the on-disk layout every tool writes into. All paths are under
// Root; containment is re-checked at each write.
type Dirs struct {
	Root      string
	Workspace string
	Outputs   string
	Logs      string
	Tmp       string
}

var stampSeq atomic.Uint64

// stamp returns a unique, sortable filename fragment.
func stamp() string {
	return fmt.Sprintf("%s_%04d", time.Now().UTC().Format("20060102_150405"), stampSeq.Add(1)%10000)
}

func failure(err error, exitCode int) models.ToolResult {
	return models.ToolResult{OK: false, Stderr: err.Error(), ExitCode: exitCode}
}
