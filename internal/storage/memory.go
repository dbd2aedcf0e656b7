package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// InMemoryStorage implements the Storage interface using in-memory data
// structures. This is useful for tests and for runs where persistent
// history is disabled.
type InMemoryStorage struct {
	runs      []*CheckRun
	nextRunID int64
	closed    bool
	mu        sync.RWMutex
}

// NewInMemoryStorage creates a new in-memory storage instance
func NewInMemoryStorage() (Storage, error) {
	return &InMemoryStorage{
		runs:      make([]*CheckRun, 0),
		nextRunID: 1,
	}, nil
}

// SaveCheckRun records a check run in memory
func (m *InMemoryStorage) SaveCheckRun(run *CheckRun) error {
	if run == nil {
		return fmt.Errorf("check run cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("storage is closed")
	}

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	// Create a copy to avoid external modifications
	runCopy := *run
	runCopy.ChangedPaths = append([]string(nil), run.ChangedPaths...)
	runCopy.ID = m.nextRunID
	m.nextRunID++
	run.ID = runCopy.ID

	m.runs = append(m.runs, &runCopy)

	return nil
}

// GetCheckRuns retrieves check runs matching the filters, most recent
// first.
func (m *InMemoryStorage) GetCheckRuns(filters CheckRunFilters) ([]*CheckRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("storage is closed")
	}

	var matched []*CheckRun
	for _, run := range m.runs {
		if filters.Mode != "" && run.Mode != filters.Mode {
			continue
		}
		if filters.Status != "" && run.Status != filters.Status {
			continue
		}
		if !filters.StartTime.IsZero() && run.StartedAt.Before(filters.StartTime) {
			continue
		}
		if !filters.EndTime.IsZero() && run.StartedAt.After(filters.EndTime) {
			continue
		}

		// Return copies to prevent external modifications
		runCopy := *run
		runCopy.ChangedPaths = append([]string(nil), run.ChangedPaths...)
		matched = append(matched, &runCopy)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}

	return matched, nil
}

// PruneCheckRuns removes check runs that started before the given time
func (m *InMemoryStorage) PruneCheckRuns(olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, fmt.Errorf("storage is closed")
	}

	kept := m.runs[:0]
	var removed int64
	for _, run := range m.runs {
		if run.StartedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, run)
	}
	m.runs = kept

	return removed, nil
}

// Health reports whether the storage is usable
func (m *InMemoryStorage) Health() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("storage is closed")
	}

	return nil
}

// Close marks the storage as closed
func (m *InMemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
