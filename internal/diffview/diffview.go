// Package diffview renders unified diffs for artifacts that changed
// during a check. Presentation only: drift decisions are made on
// signatures, never on these diffs.
package diffview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/genwatch/genwatch/internal/drift"
)

// Unified returns a unified diff for one artifact. Binary content gets
// a size note instead of a diff. Identical content returns "".
func Unified(path string, before, after []byte) string {
	if bytes.Equal(before, after) {
		return ""
	}
	if isBinary(before) || isBinary(after) {
		return fmt.Sprintf("Binary artifact %s changed (%d -> %d bytes)\n", path, len(before), len(after))
	}
	return udiff.Unified(path, path, string(before), string(after))
}

// Render produces diffs for every changed artifact in the report, in
// the report's order. Artifacts that were absent on one side diff
// against empty content. Returns "" unless the checker captured
// contents for this run.
func Render(report *drift.Report) string {
	if report == nil || len(report.Changed) == 0 {
		return ""
	}

	var out strings.Builder
	for _, artifact := range report.Changed {
		diff := Unified(artifact.Path, report.BeforeContents[artifact.Path], report.AfterContents[artifact.Path])
		if diff == "" {
			continue
		}
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(diff)
		if !strings.HasSuffix(diff, "\n") {
			out.WriteString("\n")
		}
	}

	return out.String()
}

// isBinary reports whether content should be treated as binary: any
// NUL byte disqualifies it from line diffing.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}
