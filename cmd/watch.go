package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/genwatch/genwatch/internal/notify"
	"github.com/genwatch/genwatch/internal/output"
	"github.com/genwatch/genwatch/internal/storage"
	"github.com/genwatch/genwatch/internal/watch"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run scheduled drift checks",
	Long: `Re-run the drift check on a cron schedule until interrupted.

Each scheduled run is the same sequential one-shot check that
'genwatch --check' performs. A tick that fires while the previous
check is still running is skipped, never queued. Outcomes are recorded
to the history store, and a transition from clean to drift fires the
configured alert channels.

Examples:
  genwatch watch                            # Use the configured schedule
  genwatch watch --schedule "0 0 * * * *"   # Check hourly
  genwatch watch --duration 8h              # Stop after 8 hours
  genwatch watch --test-alerts              # Verify alert channels and exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}

		schedule, err := cmd.Flags().GetString("schedule")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "schedule", err)
		}
		duration, err := cmd.Flags().GetDuration("duration")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "duration", err)
		}
		testAlerts, err := cmd.Flags().GetBool("test-alerts")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "test-alerts", err)
		}

		if testAlerts {
			notifier, err := notify.NewNotifier(cfg.Alerting, GetLogger())
			if err != nil {
				return err
			}
			if err := notifier.Test(cmd.Context()); err != nil {
				return fmt.Errorf("alert channel test failed: %w", err)
			}
			output.Success(fmt.Sprintf("All %d alert channel(s) verified.", notifier.ChannelCount()))
			return nil
		}

		checker, _, err := buildChecker(cfg)
		if err != nil {
			return err
		}

		var store storage.Storage
		if cfg.History.Enabled {
			store, err = storage.NewStorage(cfg.Global.DatabaseURL)
			if err != nil {
				GetLogger().Warn("failed to open history database, running without history", "error", err.Error())
				store = nil
			} else {
				defer store.Close()
			}
		}

		var notifier *notify.Notifier
		if cfg.Alerting.Enabled {
			notifier, err = notify.NewNotifier(cfg.Alerting, GetLogger())
			if err != nil {
				return err
			}
		}

		scheduler := watch.NewScheduler(cfg, checker, store, notifier, GetLogger())
		if schedule != "" {
			scheduler.SetSchedule(schedule)
		}

		ctx := cmd.Context()
		if duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		}

		if err := scheduler.Start(ctx); err != nil {
			return err
		}

		if duration > 0 {
			output.Info(fmt.Sprintf("Watching %d artifact(s) for %s... Press Ctrl+C to stop early", len(cfg.Artifacts), duration))
		} else {
			output.Info(fmt.Sprintf("Watching %d artifact(s)... Press Ctrl+C to stop", len(cfg.Artifacts)))
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			output.Info(fmt.Sprintf("Received signal %v, stopping watch...", sig))
		case <-ctx.Done():
			if duration > 0 {
				output.Info("Watch duration completed, stopping...")
			}
		}

		if err := scheduler.Stop(); err != nil {
			return fmt.Errorf("error stopping watch: %w", err)
		}

		status := scheduler.Status()
		output.Info(fmt.Sprintf("Watch stopped after %d run(s), %d with drift.", status.RunsCompleted, status.DriftRuns))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("schedule", "", "cron schedule with seconds field (default: configured watch.schedule)")
	watchCmd.Flags().Duration("duration", 0, "stop watching after this duration (0 = run until interrupted)")
	watchCmd.Flags().Bool("test-alerts", false, "send a test message through all alert channels and exit")
}
