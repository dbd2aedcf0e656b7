package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/genwatch/genwatch/internal/storage"
	"github.com/spf13/cobra"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name        string
		period      string
		want        time.Duration
		expectError bool
	}{
		{name: "24 hours", period: "24h", want: 24 * time.Hour},
		{name: "one day", period: "1d", want: 24 * time.Hour},
		{name: "day word", period: "day", want: 24 * time.Hour},
		{name: "seven days", period: "7d", want: 7 * 24 * time.Hour},
		{name: "week", period: "week", want: 7 * 24 * time.Hour},
		{name: "thirty days", period: "30d", want: 30 * 24 * time.Hour},
		{name: "month", period: "month", want: 30 * 24 * time.Hour},
		{name: "quarter", period: "90d", want: 90 * 24 * time.Hour},
		{name: "go duration", period: "36h", want: 36 * time.Hour},
		{name: "mixed case", period: "7D", want: 7 * 24 * time.Hour},
		{name: "garbage", period: "fortnight", expectError: true},
		{name: "empty", period: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePeriod(tt.period)

			if tt.expectError {
				if err == nil {
					t.Errorf("parsePeriod(%q) should fail", tt.period)
				}
				return
			}

			if err != nil {
				t.Fatalf("parsePeriod(%q) failed: %v", tt.period, err)
			}
			if got != tt.want {
				t.Errorf("parsePeriod(%q) = %v, want %v", tt.period, got, tt.want)
			}
		})
	}
}

func TestFormatPeriod(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{24 * time.Hour, "1d"},
		{7 * 24 * time.Hour, "7d"},
		{90 * 24 * time.Hour, "90d"},
		{90 * time.Minute, "1h30m0s"},
	}

	for _, tt := range tests {
		if got := formatPeriod(tt.duration); got != tt.want {
			t.Errorf("formatPeriod(%v) = %q, want %q", tt.duration, got, tt.want)
		}
	}
}

func TestOutputHistoryTable(t *testing.T) {
	buildCmd := func() (*cobra.Command, *strings.Builder) {
		var out strings.Builder
		c := &cobra.Command{}
		c.SetOut(&out)
		return c, &out
	}

	t.Run("no runs", func(t *testing.T) {
		c, out := buildCmd()
		outputHistoryTable(c, nil)
		if !strings.Contains(out.String(), "No check runs recorded") {
			t.Errorf("empty table output missing placeholder: %q", out.String())
		}
	})

	t.Run("mixed runs", func(t *testing.T) {
		c, out := buildCmd()
		runs := []*storage.CheckRun{
			{
				ID:           3,
				StartedAt:    time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
				Mode:         storage.ModeCheck,
				Status:       storage.StatusDrift,
				ChangedPaths: []string{"README.md"},
				ChangedCount: 1,
				VerifyPassed: true,
				DurationMs:   150,
			},
			{
				ID:           2,
				StartedAt:    time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
				Mode:         storage.ModeWatch,
				Status:       storage.StatusClean,
				VerifyPassed: true,
				DurationMs:   90,
			},
			{
				ID:         1,
				StartedAt:  time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
				Mode:       storage.ModeCheck,
				Status:     storage.StatusError,
				Error:      "generator failed",
				DurationMs: 12,
			},
		}

		outputHistoryTable(c, runs)
		text := out.String()

		for _, want := range []string{"ID", "STATUS", "drift", "clean", "error", "README.md", "3 run(s)"} {
			if !strings.Contains(text, want) {
				t.Errorf("table output missing %q:\n%s", want, text)
			}
		}
	})
}

func TestHistoryCommandFlags(t *testing.T) {
	for _, flagName := range []string{"period", "mode", "status", "limit", "output"} {
		if historyCmd.Flags().Lookup(flagName) == nil {
			t.Errorf("history command should have --%s flag", flagName)
		}
	}

	if historyPruneCmd.Flags().Lookup("older-than") == nil {
		t.Error("history prune command should have --older-than flag")
	}
}
