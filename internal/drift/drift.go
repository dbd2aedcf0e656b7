// Package drift detects when generated artifacts fall out of sync with
// the generators that produce them
package drift

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/genwatch/genwatch/internal/errors"
	"github.com/genwatch/genwatch/internal/logging"
	"github.com/genwatch/genwatch/internal/security"
)

// Regenerator re-runs the external generators that produce the tracked
// artifacts. Implementations run the generators in a fixed order and
// stop at the first failure.
type Regenerator interface {
	Regenerate(ctx context.Context) error
}

// Verifier asks the generator toolchain whether the artifacts on disk
// conform to what it would produce. The answer is opaque: false means
// drift regardless of what the content signatures say.
type Verifier interface {
	Verify(ctx context.Context) (bool, error)
}

// Artifact identifies one tracked generated file by its path relative
// to the project root
type Artifact struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Checker runs the regenerate-and-compare pipeline over a fixed,
// ordered set of tracked artifacts. The set is bound at construction
// and never changes afterwards; no signatures are carried over between
// runs.
type Checker struct {
	root            string
	artifacts       []Artifact
	absPaths        []string
	regenerator     Regenerator
	verifier        Verifier
	logger          *logging.Logger
	captureContents bool
}

// NewChecker builds a Checker for the given artifact list. List order is
// preserved in every report. Artifact paths are resolved against root
// and must not escape it.
func NewChecker(root string, artifacts []Artifact, regenerator Regenerator, verifier Verifier, logger *logging.Logger) (*Checker, error) {
	if len(artifacts) == 0 {
		return nil, errors.NewError(errors.ErrorTypeConfig, "NO_ARTIFACTS", "at least one tracked artifact is required").
			WithGuidance("Add an artifacts section to your configuration file")
	}

	tracked := make([]Artifact, len(artifacts))
	copy(tracked, artifacts)

	absPaths := make([]string, 0, len(tracked))
	for _, artifact := range tracked {
		abs, err := security.ResolveInRoot(root, artifact.Path)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeArtifact, "ARTIFACT_OUTSIDE_ROOT",
				fmt.Sprintf("tracked artifact '%s' escapes the project root", artifact.Path)).
				WithSeverity(errors.SeverityHigh).
				WithGuidance("Artifact paths must be relative and stay inside the project root")
		}
		absPaths = append(absPaths, abs)
	}

	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Checker{
		root:        root,
		artifacts:   tracked,
		absPaths:    absPaths,
		regenerator: regenerator,
		verifier:    verifier,
		logger:      logger.WithComponent("drift"),
	}, nil
}

// Artifacts returns the tracked artifacts in declaration order
func (c *Checker) Artifacts() []Artifact {
	out := make([]Artifact, len(c.artifacts))
	copy(out, c.artifacts)
	return out
}

// SetCaptureContents retains raw artifact contents in the next report
// so the caller can render diffs. Off by default to keep reports small.
func (c *Checker) SetCaptureContents(capture bool) {
	c.captureContents = capture
}

// Regenerate refreshes the tracked artifacts without checking them
func (c *Checker) Regenerate(ctx context.Context) error {
	return c.regenerator.Regenerate(ctx)
}

// Check runs one full drift check: snapshot the tracked artifacts, run
// the generators, snapshot again, compare, then run the conformance
// check. Generator failures abort the run and are returned unwrapped so
// callers can inspect exit codes.
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	started := time.Now()

	c.logger.Debug("capturing baseline snapshot", "artifacts", len(c.artifacts))
	before, beforeContents, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("running generators")
	if err := c.regenerator.Regenerate(ctx); err != nil {
		return nil, err
	}

	after, afterContents, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	changed := make([]Artifact, 0, len(c.artifacts))
	for _, artifact := range c.artifacts {
		if before[artifact.Path] != after[artifact.Path] {
			changed = append(changed, artifact)
		}
	}

	verifyPassed, err := c.verifier.Verify(ctx)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeVerification, "VERIFY_UNAVAILABLE",
			"conformance check command could not be run").
			WithSeverity(errors.SeverityHigh).
			WithGuidance("Check that the plugin generator is installed and accepts its verify arguments")
	}

	report := &Report{
		StartedAt:    started,
		Duration:     time.Since(started),
		Changed:      changed,
		VerifyPassed: verifyPassed,
		Before:       before,
		After:        after,
	}
	if c.captureContents {
		report.BeforeContents = beforeContents
		report.AfterContents = afterContents
	}

	if report.Clean() {
		c.logger.Debug("no drift detected", "duration", report.Duration)
	} else {
		c.logger.Info("drift detected",
			"changed", len(report.Changed),
			"verify_passed", report.VerifyPassed,
			"duration", report.Duration)
	}

	return report, nil
}

// snapshot hashes every tracked artifact in declaration order. Contents
// are retained only when capture is enabled, read in the same pass as
// the hash so the two cannot disagree.
func (c *Checker) snapshot() (Snapshot, map[string][]byte, error) {
	signatures := make(Snapshot, len(c.artifacts))
	var contents map[string][]byte
	if c.captureContents {
		contents = make(map[string][]byte, len(c.artifacts))
	}

	for i, artifact := range c.artifacts {
		data, err := os.ReadFile(c.absPaths[i])
		if err != nil {
			if os.IsNotExist(err) {
				signatures[artifact.Path] = Missing
				continue
			}
			return nil, nil, errors.WrapError(err, errors.ErrorTypeArtifact, "ARTIFACT_UNREADABLE",
				fmt.Sprintf("tracked artifact '%s' exists but cannot be read", artifact.Path)).
				WithSeverity(errors.SeverityHigh).
				WithGuidance("Check file permissions on the tracked artifact")
		}
		signatures[artifact.Path] = ContentSignature(data)
		if c.captureContents {
			contents[artifact.Path] = data
		}
	}

	return signatures, contents, nil
}
