package diffview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genwatch/genwatch/internal/drift"
)

func TestUnified(t *testing.T) {
	diff := Unified("README.md", []byte("old line\n"), []byte("new line\n"))

	assert.Contains(t, diff, "--- README.md")
	assert.Contains(t, diff, "+++ README.md")
	assert.Contains(t, diff, "-old line")
	assert.Contains(t, diff, "+new line")
}

func TestUnifiedIdenticalContent(t *testing.T) {
	assert.Empty(t, Unified("README.md", []byte("same\n"), []byte("same\n")))
	assert.Empty(t, Unified("README.md", nil, nil))
}

func TestUnifiedMissingBefore(t *testing.T) {
	diff := Unified(".mcp.json", nil, []byte("{}\n"))

	assert.Contains(t, diff, "+{}")
	assert.NotContains(t, diff, "-{}")
}

func TestUnifiedBinaryContent(t *testing.T) {
	binary := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}

	diff := Unified("logo.png", binary, append(binary, 0xFF))
	assert.Contains(t, diff, "Binary artifact logo.png changed")
	assert.Contains(t, diff, "(6 -> 7 bytes)")
	assert.NotContains(t, diff, "@@")
}

func TestRender(t *testing.T) {
	report := &drift.Report{
		Changed: []drift.Artifact{
			{Label: "agents manifest", Path: "AGENTS.md"},
			{Label: "readme", Path: "README.md"},
		},
		BeforeContents: map[string][]byte{
			"AGENTS.md": []byte("# Agents v1\n"),
			"README.md": []byte("intro\n"),
		},
		AfterContents: map[string][]byte{
			"AGENTS.md": []byte("# Agents v2\n"),
			"README.md": []byte("intro\nmore\n"),
		},
	}

	rendered := Render(report)

	assert.Contains(t, rendered, "--- AGENTS.md")
	assert.Contains(t, rendered, "--- README.md")
	assert.Less(t, strings.Index(rendered, "AGENTS.md"), strings.Index(rendered, "README.md"),
		"diffs must follow the report's artifact order")
}

func TestRenderWithoutCapturedContents(t *testing.T) {
	report := &drift.Report{
		Changed: []drift.Artifact{{Label: "readme", Path: "README.md"}},
	}

	// Both sides resolve to empty content, so there is nothing to show
	assert.Empty(t, Render(report))
}

func TestRenderEmptyReport(t *testing.T) {
	assert.Empty(t, Render(nil))
	assert.Empty(t, Render(&drift.Report{VerifyPassed: true}))
}
