package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/genwatch/genwatch/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded check outcomes",
	Long: `List the outcomes of past checks and regenerations from the local
history store. Only outcomes are recorded: which artifacts changed,
whether the conformance check passed, and how long the run took.
Artifact content signatures are never persisted.

Examples:
  genwatch history                     # Runs from the last 7 days
  genwatch history --period 30d        # Runs from the last 30 days
  genwatch history --status drift      # Only runs that found drift
  genwatch history --mode watch        # Only scheduled runs
  genwatch history --output json       # Output in JSON format`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}

		period, err := cmd.Flags().GetString("period")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "period", err)
		}
		mode, err := cmd.Flags().GetString("mode")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "mode", err)
		}
		status, err := cmd.Flags().GetString("status")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "status", err)
		}
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "limit", err)
		}
		outputFormat, err := cmd.Flags().GetString("output")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "output", err)
		}

		duration, err := parsePeriod(period)
		if err != nil {
			return fmt.Errorf("invalid period: %w", err)
		}

		db, err := storage.NewStorage(cfg.Global.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()

		runs, err := db.GetCheckRuns(storage.CheckRunFilters{
			Mode:      mode,
			Status:    status,
			StartTime: time.Now().Add(-duration),
			EndTime:   time.Now(),
			Limit:     limit,
		})
		if err != nil {
			return fmt.Errorf("failed to get check runs: %w", err)
		}

		switch outputFormat {
		case "json":
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(runs)
		case "yaml":
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			defer encoder.Close()
			return encoder.Encode(runs)
		case "table":
			outputHistoryTable(cmd, runs)
			return nil
		default:
			return fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", outputFormat)
		}
	},
}

// historyPruneCmd removes expired history entries
var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old check outcomes",
	Long: `Delete recorded check outcomes older than the retention period.

Examples:
  genwatch history prune                    # Use configured retention
  genwatch history prune --older-than 30d   # Remove runs older than 30 days`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}

		olderThan, err := cmd.Flags().GetString("older-than")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "older-than", err)
		}

		var retention time.Duration
		if olderThan != "" {
			retention, err = parsePeriod(olderThan)
			if err != nil {
				return fmt.Errorf("invalid older-than period: %w", err)
			}
		} else {
			retention = time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
		}
		if retention <= 0 {
			return fmt.Errorf("retention period must be positive")
		}

		db, err := storage.NewStorage(cfg.Global.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()

		removed, err := db.PruneCheckRuns(time.Now().Add(-retention))
		if err != nil {
			return fmt.Errorf("failed to prune check runs: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d check run(s) older than %s\n", removed, formatPeriod(retention))
		return nil
	},
}

// parsePeriod parses a time period string into a duration
func parsePeriod(period string) (time.Duration, error) {
	switch strings.ToLower(period) {
	case "24h", "1d", "day":
		return 24 * time.Hour, nil
	case "7d", "week", "1w":
		return 7 * 24 * time.Hour, nil
	case "30d", "month", "1m":
		return 30 * 24 * time.Hour, nil
	case "90d", "quarter":
		return 90 * 24 * time.Hour, nil
	default:
		// Try to parse as duration
		return time.ParseDuration(period)
	}
}

// formatPeriod formats a duration as a human-readable period
func formatPeriod(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
	return d.String()
}

// outputHistoryTable prints check runs in table format
func outputHistoryTable(cmd *cobra.Command, runs []*storage.CheckRun) {
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No check runs recorded for this period.")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tMODE\tSTATUS\tCHANGED\tVERIFY\tDURATION")

	for _, run := range runs {
		verify := "pass"
		if !run.VerifyPassed && run.Status != storage.StatusError {
			verify = "fail"
		}
		if run.Status == storage.StatusError {
			verify = "-"
		}

		changed := "-"
		if run.ChangedCount > 0 {
			changed = strings.Join(run.ChangedPaths, ",")
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%dms\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Mode,
			run.Status,
			changed,
			verify,
			run.DurationMs)
	}

	w.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d run(s)\n", len(runs))
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyCmd.Flags().StringP("period", "p", "7d", "time period to show (24h, 7d, 30d, or a Go duration)")
	historyCmd.Flags().String("mode", "", "filter by run mode (check, regenerate, watch)")
	historyCmd.Flags().String("status", "", "filter by run status (clean, drift, error)")
	historyCmd.Flags().Int("limit", 50, "maximum number of runs to show")
	historyCmd.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")

	historyPruneCmd.Flags().String("older-than", "", "remove runs older than this period (default: configured retention)")
}
