package models

import (
	"errors"
	"fmt"
)

// ErrPlanningUnavailable signals that the language-model collaborator was
// unreachable or returned output that could not be parsed at all. Callers may
// choose to proceed with defaults at their own risk.
var ErrPlanningUnavailable = errors.New("planning unavailable: language model unreachable or unusable")

// BlockedError is a Safety Gate refusal. It halts the remaining plan.
type BlockedError struct {
	Step   string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("risky operation blocked (%s): %s", e.Step, e.Reason)
}

// WorkspaceEscapeError marks a tool-produced path that resolves outside the
// configured root. The offending step fails; the run continues.
type WorkspaceEscapeError struct {
	Path string
	Root string
}

func (e *WorkspaceEscapeError) Error() string {
	return fmt.Sprintf("workspace escape: %q resolves outside %q", e.Path, e.Root)
}

// FatalError wraps any error not covered by the step-local taxonomy. The run
// aborts immediately and jumps to reporting.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "orchestration fatal: " + e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }
