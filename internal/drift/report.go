package drift

import "time"

// Report describes the outcome of one drift check run. The before and
// after snapshots belong to this run alone; nothing in a Report is
// consulted by later runs.
type Report struct {
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Changed      []Artifact    `json:"changed"`
	VerifyPassed bool          `json:"verify_passed"`

	Before Snapshot `json:"-"`
	After  Snapshot `json:"-"`

	// Raw contents, populated only when capture was requested
	BeforeContents map[string][]byte `json:"-"`
	AfterContents  map[string][]byte `json:"-"`
}

// Clean reports whether nothing drifted: no signature changed and the
// conformance check passed
func (r *Report) Clean() bool {
	return len(r.Changed) == 0 && r.VerifyPassed
}

// ChangedPaths returns the drifted artifact paths in declaration order
func (r *Report) ChangedPaths() []string {
	paths := make([]string, 0, len(r.Changed))
	for _, artifact := range r.Changed {
		paths = append(paths, artifact.Path)
	}
	return paths
}
