package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/genwatch/genwatch/internal/config"
	"github.com/genwatch/genwatch/internal/diffview"
	"github.com/genwatch/genwatch/internal/drift"
	"github.com/genwatch/genwatch/internal/generator"
	"github.com/genwatch/genwatch/internal/output"
	"github.com/genwatch/genwatch/internal/storage"
)

// buildChecker wires the configured artifact list and generator
// pipeline into a drift checker. The pipeline doubles as the
// regenerator and the conformance verifier.
func buildChecker(cfg *config.Config) (*drift.Checker, *generator.Pipeline, error) {
	root, err := cfg.ResolveRoot()
	if err != nil {
		return nil, nil, err
	}

	pipeline := generator.NewPipeline(root, cfg.Generators, GetLogger())

	artifacts := make([]drift.Artifact, 0, len(cfg.Artifacts))
	for _, artifact := range cfg.Artifacts {
		artifacts = append(artifacts, drift.Artifact{Label: artifact.Label, Path: artifact.Path})
	}

	checker, err := drift.NewChecker(root, artifacts, pipeline, pipeline, GetLogger())
	if err != nil {
		return nil, nil, err
	}

	return checker, pipeline, nil
}

// runGenerate refreshes the tracked artifacts without checking them
func runGenerate(ctx context.Context) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	checker, _, err := buildChecker(cfg)
	if err != nil {
		return err
	}

	started := time.Now()
	if err := checker.Regenerate(ctx); err != nil {
		recordRun(cfg, &storage.CheckRun{
			StartedAt:  started,
			DurationMs: time.Since(started).Milliseconds(),
			Mode:       storage.ModeRegenerate,
			Status:     storage.StatusError,
			Error:      err.Error(),
		})
		return err
	}

	recordRun(cfg, &storage.CheckRun{
		StartedAt:  started,
		DurationMs: time.Since(started).Milliseconds(),
		Mode:       storage.ModeRegenerate,
		Status:     storage.StatusClean,
	})

	output.Success("Generated artifacts refreshed.")
	return nil
}

// runCheck verifies the tracked artifacts are current. On drift it
// prints the listing and returns errDriftDetected so Execute can map
// it to the drift exit code.
func runCheck(ctx context.Context, showDiff bool) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	checker, _, err := buildChecker(cfg)
	if err != nil {
		return err
	}
	if showDiff {
		checker.SetCaptureContents(true)
	}

	started := time.Now()
	report, err := checker.Check(ctx)
	if err != nil {
		recordRun(cfg, &storage.CheckRun{
			StartedAt:  started,
			DurationMs: time.Since(started).Milliseconds(),
			Mode:       storage.ModeCheck,
			Status:     storage.StatusError,
			Error:      err.Error(),
		})
		return err
	}

	recordRun(cfg, checkRunFromReport(report))

	if report.Clean() {
		output.Success("All generated artifacts are up to date.")
		return nil
	}

	if len(report.Changed) > 0 {
		files := make([]output.ChangedFile, 0, len(report.Changed))
		for _, artifact := range report.Changed {
			files = append(files, output.ChangedFile{Path: artifact.Path, Label: artifact.Label})
		}
		output.ChangedFiles(files)
		if !report.VerifyPassed {
			output.Warning("The plugin generator's conformance check also failed.")
		}
	} else {
		output.Warning("Conformance check failed although artifact contents match.")
	}
	output.Info("Run 'genwatch' to refresh them, then commit the result.")

	if showDiff {
		if diff := diffview.Render(report); diff != "" {
			output.Separator()
			fmt.Print(diff)
		}
	}

	return errDriftDetected
}

// checkRunFromReport converts a drift report into a history record.
// Only the outcome is recorded; signatures never leave the report.
func checkRunFromReport(report *drift.Report) *storage.CheckRun {
	run := &storage.CheckRun{
		StartedAt:    report.StartedAt,
		DurationMs:   report.Duration.Milliseconds(),
		Mode:         storage.ModeCheck,
		VerifyPassed: report.VerifyPassed,
	}

	if report.Clean() {
		run.Status = storage.StatusClean
	} else {
		run.Status = storage.StatusDrift
		run.ChangedPaths = report.ChangedPaths()
		run.ChangedCount = len(run.ChangedPaths)
	}

	return run
}

// recordRun persists the outcome when history is enabled. History is
// best-effort bookkeeping: failures are logged and the run result
// stands.
func recordRun(cfg *config.Config, run *storage.CheckRun) {
	if !cfg.History.Enabled {
		return
	}

	store, err := storage.NewStorage(cfg.Global.DatabaseURL)
	if err != nil {
		GetLogger().Warn("failed to open history database", "error", err.Error())
		return
	}
	defer store.Close()

	if err := store.SaveCheckRun(run); err != nil {
		GetLogger().Warn("failed to record run outcome", "error", err.Error())
	}
}
