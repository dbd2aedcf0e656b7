package watch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genwatch/genwatch/internal/config"
	"github.com/genwatch/genwatch/internal/drift"
	"github.com/genwatch/genwatch/internal/notify"
	"github.com/genwatch/genwatch/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChecker scripts Check results for scheduler tests
type fakeChecker struct {
	mu      sync.Mutex
	reports []*drift.Report
	errs    []error
	calls   int
	block   chan struct{}
}

func (f *fakeChecker) Check(ctx context.Context) (*drift.Report, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.reports) {
		return f.reports[i], nil
	}
	return &drift.Report{VerifyPassed: true}, nil
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func cleanReport() *drift.Report {
	return &drift.Report{StartedAt: time.Now(), VerifyPassed: true}
}

func driftReport(paths ...string) *drift.Report {
	report := &drift.Report{StartedAt: time.Now(), VerifyPassed: true}
	for _, path := range paths {
		report.Changed = append(report.Changed, drift.Artifact{Path: path})
	}
	return report
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Project.Name = "watch-test"
	cfg.Watch.Schedule = "* * * * * *"
	return cfg
}

func newMemoryStore(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewInMemoryStorage()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSchedulerRunOnce_RecordsCleanRun(t *testing.T) {
	store := newMemoryStore(t)
	checker := &fakeChecker{reports: []*drift.Report{cleanReport()}}

	scheduler := NewScheduler(testConfig(), checker, store, nil, nil)
	run := scheduler.RunOnce(context.Background())

	assert.Equal(t, storage.StatusClean, run.Status)
	assert.True(t, run.VerifyPassed)
	assert.Empty(t, run.ChangedPaths)

	saved, err := store.GetCheckRuns(storage.CheckRunFilters{Mode: storage.ModeWatch})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, storage.StatusClean, saved[0].Status)
}

func TestSchedulerRunOnce_RecordsDriftRun(t *testing.T) {
	store := newMemoryStore(t)
	checker := &fakeChecker{reports: []*drift.Report{driftReport("AGENTS.md", "README.md")}}

	scheduler := NewScheduler(testConfig(), checker, store, nil, nil)
	run := scheduler.RunOnce(context.Background())

	assert.Equal(t, storage.StatusDrift, run.Status)
	assert.Equal(t, []string{"AGENTS.md", "README.md"}, run.ChangedPaths)
	assert.Equal(t, 2, run.ChangedCount)

	status := scheduler.Status()
	assert.Equal(t, int64(1), status.RunsCompleted)
	assert.Equal(t, int64(1), status.DriftRuns)
	assert.Equal(t, storage.StatusDrift, status.LastStatus)
}

func TestSchedulerRunOnce_RecordsCheckError(t *testing.T) {
	store := newMemoryStore(t)
	checker := &fakeChecker{errs: []error{fmt.Errorf("generator exploded")}}

	scheduler := NewScheduler(testConfig(), checker, store, nil, nil)
	run := scheduler.RunOnce(context.Background())

	assert.Equal(t, storage.StatusError, run.Status)
	assert.Contains(t, run.Error, "generator exploded")

	saved, err := store.GetCheckRuns(storage.CheckRunFilters{Status: storage.StatusError})
	require.NoError(t, err)
	require.Len(t, saved, 1)
}

func TestSchedulerRunOnce_NilStoreStillRuns(t *testing.T) {
	checker := &fakeChecker{reports: []*drift.Report{cleanReport()}}

	scheduler := NewScheduler(testConfig(), checker, nil, nil, nil)
	run := scheduler.RunOnce(context.Background())

	assert.Equal(t, storage.StatusClean, run.Status)
}

func TestSchedulerAlertsOnlyOnTransitionIntoDrift(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := notify.NewNotifier(config.AlertingConfig{
		Enabled: true,
		Channels: []config.AlertChannelConfig{
			{Type: "webhook", Name: "ci", Enabled: true, Settings: map[string]interface{}{"url": server.URL}},
		},
	}, nil)
	require.NoError(t, err)

	checker := &fakeChecker{reports: []*drift.Report{
		cleanReport(),            // no alert
		driftReport("README.md"), // alert: clean -> drift
		driftReport("README.md"), // no alert: still dirty
		cleanReport(),            // no alert: recovered
		driftReport("AGENTS.md"), // alert: clean -> drift again
	}}

	scheduler := NewScheduler(testConfig(), checker, nil, notifier, nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		scheduler.RunOnce(ctx)
	}

	assert.Equal(t, int64(2), hits.Load())
}

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	block := make(chan struct{})
	checker := &fakeChecker{block: block}

	scheduler := NewScheduler(testConfig(), checker, nil, nil, nil)
	scheduler.ctx, scheduler.cancel = context.WithCancel(context.Background())
	defer scheduler.cancel()

	done := make(chan struct{})
	go func() {
		scheduler.tick()
		close(done)
	}()

	// Wait until the first tick is inside Check
	require.Eventually(t, func() bool { return checker.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// A tick firing during the in-flight check must be dropped
	scheduler.tick()
	assert.Equal(t, 1, checker.callCount())

	close(block)
	<-done
}

func TestSchedulerStartStop(t *testing.T) {
	checker := &fakeChecker{}
	scheduler := NewScheduler(testConfig(), checker, nil, nil, nil)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.Status().Running)

	// Second start fails while running
	require.Error(t, scheduler.Start(context.Background()))

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.Status().Running)

	// Stop is idempotent
	require.NoError(t, scheduler.Stop())
}

func TestSchedulerStart_InvalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Watch.Schedule = "not a cron expression"

	scheduler := NewScheduler(cfg, &fakeChecker{}, nil, nil, nil)
	err := scheduler.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid watch schedule")
}

func TestSchedulerStart_PrunesExpiredHistory(t *testing.T) {
	store := newMemoryStore(t)

	old := &storage.CheckRun{
		StartedAt: time.Now().Add(-120 * 24 * time.Hour),
		Mode:      storage.ModeWatch,
		Status:    storage.StatusClean,
	}
	require.NoError(t, store.SaveCheckRun(old))

	recent := &storage.CheckRun{
		StartedAt: time.Now().Add(-time.Hour),
		Mode:      storage.ModeWatch,
		Status:    storage.StatusClean,
	}
	require.NoError(t, store.SaveCheckRun(recent))

	cfg := testConfig()
	cfg.History.RetentionDays = 90

	scheduler := NewScheduler(cfg, &fakeChecker{}, store, nil, nil)
	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	remaining, err := store.GetCheckRuns(storage.CheckRunFilters{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, recent.ID, remaining[0].ID)
}
