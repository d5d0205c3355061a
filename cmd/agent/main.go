// Command agent turns a natural-language goal into a bounded, risk-gated
// sequence of tool operations and reports the outcome.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		// errRunFailed outcomes were already reported by the command.
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agent",
		Short:         "Natural language automation agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDoCmd())
	root.AddCommand(newReplCmd())
	return root
}
