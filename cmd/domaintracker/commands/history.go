package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JacobBogossian/DomainTracker/internal/model"
	"github.com/JacobBogossian/DomainTracker/internal/presenter"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "history <store_connection_string> <domain>",
		Short:         "Show every recorded event for a domain",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `List the Added and Removed events recorded for one domain, oldest first.

Example:
  domaintracker-inspect history ./events.json shop-facebook.com`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, domain := args[0], args[1]

			sess, err := openSession(cmd, target)
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			events, err := sess.store.History(cmd.Context(), domain)
			if errors.Is(err, model.ErrNotFound) {
				fmt.Fprintf(out, "No events recorded for %s.\n", domain)
				return nil
			}
			if err != nil {
				return ExitWithCode(ExitStore, fmt.Errorf("failed to read history: %w", err))
			}

			fmt.Fprintf(out, "=== %s ===\n", domain)
			for _, ev := range events {
				fmt.Fprintf(out, "%s  %s\n", presenter.FormatTimestamp(ev.Timestamp), ev.Action)
			}

			state := "inactive"
			if events[len(events)-1].Action == model.ActionAdded {
				state = "active"
			}
			fmt.Fprintf(out, "\nEvents: %d, currently %s\n", len(events), state)
			return nil
		},
	}
}
