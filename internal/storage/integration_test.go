package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both backends must behave identically through the Storage interface.
func TestStorageIntegration(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) Storage
	}{
		{
			name: "sqlite",
			open: func(t *testing.T) Storage {
				tmpDir, err := os.MkdirTemp("", "genwatch_integration_test_*")
				require.NoError(t, err)
				t.Cleanup(func() { os.RemoveAll(tmpDir) })

				storage, err := NewStorage(filepath.Join(tmpDir, "integration_test.db"))
				require.NoError(t, err)
				return storage
			},
		},
		{
			name: "memory",
			open: func(t *testing.T) Storage {
				storage, err := NewInMemoryStorage()
				require.NoError(t, err)
				return storage
			},
		},
	}

	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			storage := backend.open(t)
			defer storage.Close()

			require.NoError(t, storage.Health())

			// Simulate a day of checks: clean, drift, failed run
			baseTime := time.Now().Add(-24 * time.Hour)
			runs := []*CheckRun{
				{
					StartedAt:    baseTime,
					DurationMs:   1100,
					Mode:         ModeCheck,
					Status:       StatusClean,
					VerifyPassed: true,
				},
				{
					StartedAt:    baseTime.Add(6 * time.Hour),
					DurationMs:   1340,
					Mode:         ModeWatch,
					Status:       StatusDrift,
					ChangedPaths: []string{"AGENTS.md", ".cursor-plugin/plugin.json"},
					ChangedCount: 2,
					VerifyPassed: true,
				},
				{
					StartedAt:    baseTime.Add(12 * time.Hour),
					DurationMs:   45,
					Mode:         ModeCheck,
					Status:       StatusError,
					Error:        "agents-manifest generator exited with code 3",
					VerifyPassed: false,
				},
			}

			for _, run := range runs {
				require.NoError(t, storage.SaveCheckRun(run))
				assert.NotZero(t, run.ID)
			}

			// Full listing, most recent first
			all, err := storage.GetCheckRuns(CheckRunFilters{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, StatusError, all[0].Status)
			assert.Equal(t, StatusClean, all[2].Status)

			// Drift runs carry their changed paths in order
			drifted, err := storage.GetCheckRuns(CheckRunFilters{Status: StatusDrift})
			require.NoError(t, err)
			require.Len(t, drifted, 1)
			assert.Equal(t, []string{"AGENTS.md", ".cursor-plugin/plugin.json"}, drifted[0].ChangedPaths)

			// Retention: prune everything older than the last run
			removed, err := storage.PruneCheckRuns(baseTime.Add(11 * time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(2), removed)

			remaining, err := storage.GetCheckRuns(CheckRunFilters{})
			require.NoError(t, err)
			require.Len(t, remaining, 1)
			assert.Equal(t, StatusError, remaining[0].Status)
		})
	}
}
