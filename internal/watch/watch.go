// Package watch re-runs the drift check on a schedule. Each scheduled
// run is the same strictly sequential one-shot check the CLI performs;
// overlapping ticks are skipped, never queued.
package watch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/genwatch/genwatch/internal/config"
	"github.com/genwatch/genwatch/internal/drift"
	"github.com/genwatch/genwatch/internal/logging"
	"github.com/genwatch/genwatch/internal/notify"
	"github.com/genwatch/genwatch/internal/storage"
	"github.com/robfig/cron/v3"
)

// CheckRunner runs one full drift check. drift.Checker satisfies it.
type CheckRunner interface {
	Check(ctx context.Context) (*drift.Report, error)
}

// Status describes the scheduler's current state
type Status struct {
	StartedAt     time.Time `json:"started_at,omitempty"`
	LastRunAt     time.Time `json:"last_run_at,omitempty"`
	LastStatus    string    `json:"last_status,omitempty"`
	RunsCompleted int64     `json:"runs_completed"`
	DriftRuns     int64     `json:"drift_runs"`
	Running       bool      `json:"running"`
}

// Scheduler runs drift checks on a cron schedule. History recording and
// alerting are both optional: a nil store or notifier disables them.
type Scheduler struct {
	cron     *cron.Cron
	checker  CheckRunner
	store    storage.Storage
	notifier *notify.Notifier
	logger   *logging.Logger

	project   string
	schedule  string
	retention time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	inFlight atomic.Bool

	mu            sync.RWMutex
	running       bool
	startedAt     time.Time
	lastRunAt     time.Time
	lastStatus    string
	runsCompleted int64
	driftRuns     int64
	wasDirty      bool
}

// NewScheduler creates a scheduler from the watch configuration. The
// store and notifier may be nil.
func NewScheduler(cfg *config.Config, checker CheckRunner, store storage.Storage, notifier *notify.Notifier, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	var retention time.Duration
	if cfg.History.RetentionDays > 0 {
		retention = time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
	}

	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		checker:   checker,
		store:     store,
		notifier:  notifier,
		logger:    logger.WithComponent("watch"),
		project:   cfg.Project.Name,
		schedule:  cfg.Watch.Schedule,
		retention: retention,
	}
}

// SetSchedule overrides the configured cron expression. Only valid
// before Start.
func (s *Scheduler) SetSchedule(schedule string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = schedule
}

// Start begins scheduled checking. It validates the cron expression,
// prunes expired history, and returns once the schedule is armed.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("watch scheduler is already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		s.cancel()
		s.mu.Unlock()
		return fmt.Errorf("invalid watch schedule %q: %w", s.schedule, err)
	}

	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.pruneHistory()

	s.cron.Start()
	s.logger.Info("watch started", "schedule", s.schedule)

	return nil
}

// Stop halts the schedule and waits for an in-flight check to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.logger.Info("stopping watch")

	cronCtx := s.cron.Stop()
	select {
	case <-cronCtx.Done():
		s.logger.Debug("in-flight check completed")
	case <-time.After(30 * time.Second):
		s.logger.Warn("timeout waiting for in-flight check, forcing shutdown")
	}

	if s.cancel != nil {
		s.cancel()
	}

	s.running = false
	s.logger.Info("watch stopped")

	return nil
}

// Status returns the current scheduler status
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		Running:       s.running,
		StartedAt:     s.startedAt,
		LastRunAt:     s.lastRunAt,
		LastStatus:    s.lastStatus,
		RunsCompleted: s.runsCompleted,
		DriftRuns:     s.driftRuns,
	}
}

// tick runs one scheduled check. A tick that fires while the previous
// check is still running is dropped.
func (s *Scheduler) tick() {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("previous check still running, skipping tick")
		return
	}
	defer s.inFlight.Store(false)

	if s.ctx.Err() != nil {
		return
	}

	s.RunOnce(s.ctx)
}

// RunOnce performs a single check, records the outcome, and fires
// alerts on a transition into drift. Check errors are recorded and
// logged, not returned: the schedule keeps going.
func (s *Scheduler) RunOnce(ctx context.Context) *storage.CheckRun {
	started := time.Now()
	report, err := s.checker.Check(ctx)

	run := &storage.CheckRun{
		StartedAt: started,
		Mode:      storage.ModeWatch,
	}

	switch {
	case err != nil:
		run.Status = storage.StatusError
		run.Error = err.Error()
		run.DurationMs = time.Since(started).Milliseconds()
		s.logger.LogError(ctx, err, "scheduled check failed")
	case report.Clean():
		run.Status = storage.StatusClean
		run.VerifyPassed = true
		run.DurationMs = report.Duration.Milliseconds()
		s.logger.Debug("scheduled check clean", "duration", report.Duration)
	default:
		run.Status = storage.StatusDrift
		run.ChangedPaths = report.ChangedPaths()
		run.ChangedCount = len(run.ChangedPaths)
		run.VerifyPassed = report.VerifyPassed
		run.DurationMs = report.Duration.Milliseconds()
		s.logger.Info("scheduled check found drift",
			"changed", run.ChangedCount,
			"verify_passed", run.VerifyPassed)
	}

	s.recordRun(run)
	s.alertOnTransition(ctx, report, run.Status)

	s.mu.Lock()
	s.lastRunAt = started
	s.lastStatus = run.Status
	s.runsCompleted++
	if run.Status == storage.StatusDrift {
		s.driftRuns++
	}
	s.mu.Unlock()

	return run
}

// recordRun persists the outcome. History is best-effort bookkeeping:
// a storage failure is logged and the run result stands.
func (s *Scheduler) recordRun(run *storage.CheckRun) {
	if s.store == nil {
		return
	}

	if err := s.store.SaveCheckRun(run); err != nil {
		s.logger.Warn("failed to record check run", "error", err.Error())
	}
}

// alertOnTransition fires alerts only when a clean state turns dirty,
// so a long-standing drift does not page on every tick.
func (s *Scheduler) alertOnTransition(ctx context.Context, report *drift.Report, status string) {
	dirty := status == storage.StatusDrift

	s.mu.Lock()
	wasDirty := s.wasDirty
	if status != storage.StatusError {
		s.wasDirty = dirty
	}
	s.mu.Unlock()

	if s.notifier == nil || report == nil || !dirty || wasDirty {
		return
	}

	if err := s.notifier.ProcessReport(ctx, s.project, report); err != nil {
		s.logger.Warn("drift alert delivery failed", "error", err.Error())
	}
}

// pruneHistory drops recorded runs older than the retention window
func (s *Scheduler) pruneHistory() {
	if s.store == nil || s.retention <= 0 {
		return
	}

	removed, err := s.store.PruneCheckRuns(time.Now().Add(-s.retention))
	if err != nil {
		s.logger.Warn("failed to prune check history", "error", err.Error())
		return
	}
	if removed > 0 {
		s.logger.Debug("pruned check history", "removed", removed)
	}
}
