package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/natural-agent/internal/config"
	"github.com/example/natural-agent/internal/llm"
	"github.com/example/natural-agent/internal/logging"
	"github.com/example/natural-agent/internal/orchestrator"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// errRunFailed signals a failed run without printing a second error line;
// the outcome was already reported to the user.
var errRunFailed = errors.New("run failed")

type doFlags struct {
	autoYes        bool
	dryRun         bool
	assumeDefaults bool
	verbose        bool
	model          string
	depth          int
	scriptTimeout  int
}

func newDoCmd() *cobra.Command {
	var f doFlags
	cmd := &cobra.Command{
		Use:   "do <goal>",
		Short: "Execute a natural language goal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal := strings.Join(args, " ")
			runner, logger, err := buildRunner(cmd, f)
			if err != nil {
				return err
			}
			defer logger.Sync()

			res := runner.Run(cmd.Context(), goal)
			printResult(cmd, res.OK, res.Message, res.Outputs)
			if !res.OK {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&f.autoYes, "auto-yes", true, "auto-confirm risky actions")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "show planned operations without executing")
	cmd.Flags().BoolVar(&f.assumeDefaults, "assume-defaults", true, "skip clarification questions and use safe defaults")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "verbose console logging")
	cmd.Flags().StringVar(&f.model, "model", "", "override the model name")
	cmd.Flags().IntVar(&f.depth, "depth", 1, "planning passes (1-25)")
	cmd.Flags().IntVar(&f.scriptTimeout, "script-timeout", config.DefaultScriptTimeout, "per-step timeout in seconds (1-3600)")
	return cmd
}

func buildRunner(cmd *cobra.Command, f doFlags) (*orchestrator.Runner, *zap.Logger, error) {
	overrides := config.Overrides{Model: f.model}
	flags := cmd.Flags()
	if flags.Changed("auto-yes") {
		overrides.AutoConfirm = &f.autoYes
	}
	if flags.Changed("dry-run") {
		overrides.DryRun = &f.dryRun
	}
	if flags.Changed("assume-defaults") {
		overrides.AssumeDefaults = &f.assumeDefaults
	}
	if flags.Changed("verbose") {
		overrides.Verbose = &f.verbose
	}
	if flags.Changed("depth") {
		overrides.Depth = &f.depth
	}
	if flags.Changed("script-timeout") {
		overrides.ScriptTimeout = &f.scriptTimeout
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.LogsDir, cfg.Verbose).
		With(zap.String("run_id", uuid.NewString()))
	client := llm.New(context.Background(), cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model)
	return orchestrator.New(cfg, client, logger), logger, nil
}

func printResult(cmd *cobra.Command, ok bool, msg string, outputs []string) {
	style := failStyle
	if ok {
		style = okStyle
	}
	fmt.Fprintln(cmd.OutOrStdout(), style.Render(msg))
	if len(outputs) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Artifacts:")
		for _, a := range outputs {
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(" - "+a))
		}
	}
}
