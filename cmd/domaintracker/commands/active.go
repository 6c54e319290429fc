package commands

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/JacobBogossian/DomainTracker/internal/model"
	"github.com/JacobBogossian/DomainTracker/internal/presenter"
)

func newActiveCmd() *cobra.Command {
	var flags struct {
		Contains []string
		Since    time.Duration
		Format   string
		SortBy   string
	}

	cmd := &cobra.Command{
		Use:           "active <store_connection_string>",
		Short:         "List the domains currently active in the store",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Display every domain whose latest recorded event is an addition.

Examples:
  # List all active domains
  domaintracker-inspect active ./events.json

  # Newest first, compact
  domaintracker-inspect active ./events.json --sort since --format compact

  # Only domains containing "shop" that became active in the last day
  domaintracker-inspect active ./events.json --contains shop --since 24h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			defer sess.Close()

			records, err := sess.store.ActiveRecords(cmd.Context())
			if err != nil {
				return ExitWithCode(ExitStore, fmt.Errorf("failed to read active records: %w", err))
			}

			now := time.Now()
			filter := model.RecordFilter{Contains: flags.Contains}
			if flags.Since > 0 {
				filter.SinceAfter = now.Add(-flags.Since)
			}
			records = model.FilterRecords(records, filter)
			model.SortRecords(records, flags.SortBy)

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No active domains found matching the specified criteria.")
				return nil
			}

			switch flags.Format {
			case "compact":
				displayActiveCompact(out, records, now)
			default: // "detailed" or empty
				displayActiveDetailed(out, records, now)
			}

			fmt.Fprintf(out, "\nTotal active: %d\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&flags.Contains, "contains", "c", nil, "Only show domains containing this text (repeatable)")
	cmd.Flags().DurationVar(&flags.Since, "since", 0, "Only show domains that became active within this duration")
	cmd.Flags().StringVar(&flags.Format, "format", "detailed", "Output format: detailed or compact")
	cmd.Flags().StringVar(&flags.SortBy, "sort", string(model.SortByDomain), "Sort by: domain or since")
	return cmd
}

// displayActiveDetailed displays records in detailed format
func displayActiveDetailed(out io.Writer, records []model.ActiveRecord, now time.Time) {
	fmt.Fprintln(out, "=== Active Domains ===")
	for _, record := range records {
		fmt.Fprintf(out, "  - %s (active since %s, %s)\n",
			record.Domain,
			presenter.FormatTimestamp(record.Since),
			presenter.FormatTimeSince(record.Since, now))
	}
}

// displayActiveCompact displays records in compact format
func displayActiveCompact(out io.Writer, records []model.ActiveRecord, now time.Time) {
	fmt.Fprintf(out, "%-50s %s\n", "Domain", "Active Since")
	fmt.Fprintln(out, strings.Repeat("-", 70))
	for _, record := range records {
		fmt.Fprintf(out, "%-50s %s\n",
			truncateString(record.Domain, 48),
			presenter.FormatTimeSinceCompact(record.Since, now))
	}
}

// truncateString truncates s to maxLen runes with ellipsis
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
