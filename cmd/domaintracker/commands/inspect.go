package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var inspectCmd = newInspectCmd()

// newInspectCmd builds the read-only command tree for looking at a store
func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domaintracker-inspect",
		Short: "Inspect the event log written by domaintracker",
		Long: `Read-only views of a domaintracker store: the current active set and the
event history of a single domain.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	addConfigFlags(cmd)

	cmd.AddCommand(newActiveCmd())
	cmd.AddCommand(newHistoryCmd())
	return cmd
}

// ExecuteInspectContext runs the inspection command with ctx
func ExecuteInspectContext(ctx context.Context) error {
	return inspectCmd.ExecuteContext(ctx)
}
