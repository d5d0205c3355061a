package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/natural-agent/internal/config"
)

func newReplCmd() *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive loop; each goal runs the full pipeline independently",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, logger, err := buildRunner(cmd, doFlags{model: model, scriptTimeout: config.DefaultScriptTimeout})
			if err != nil {
				return err
			}
			defer logger.Sync()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Interactive REPL. Type your goal. Empty line to exit.")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "Goal: ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				goal := strings.TrimSpace(scanner.Text())
				if goal == "" {
					return nil
				}

				res := runner.Run(cmd.Context(), goal)
				// Clarification re-entry: collect answers and run again with
				// the answers folded into the goal.
				if len(res.Questions) > 0 {
					answers := make([]string, 0, len(res.Questions))
					for i, q := range res.Questions {
						fmt.Fprintf(out, "[%d] %s\n> ", i+1, q)
						if !scanner.Scan() {
							return scanner.Err()
						}
						if a := strings.TrimSpace(scanner.Text()); a != "" {
							answers = append(answers, q+" "+a)
						}
					}
					if len(answers) > 0 {
						res = runner.Run(cmd.Context(), goal+" ("+strings.Join(answers, "; ")+")")
					}
				}
				printResult(cmd, res.OK, res.Message, res.Outputs)
			}
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "override the model name")
	return cmd
}
