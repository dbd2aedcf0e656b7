package output

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	presenter := New()
	assert.NotNil(t, presenter)
	assert.Equal(t, os.Stdout, presenter.output)
	assert.Equal(t, os.Stderr, presenter.errorOutput)
	assert.False(t, presenter.quiet)
}

func TestNewWithOptions(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	assert.Equal(t, &output, presenter.output)
	assert.Equal(t, &errorOutput, presenter.errorOutput)
	assert.Equal(t, ColorNever, presenter.colorMode)
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name          string
		noColor       string
		genwatchColor string
		expected      ColorMode
	}{
		{"NO_COLOR set", "1", "", ColorNever},
		{"GENWATCH_COLOR always", "", "always", ColorAlways},
		{"GENWATCH_COLOR force", "", "force", ColorAlways},
		{"GENWATCH_COLOR never", "", "never", ColorNever},
		{"GENWATCH_COLOR off", "", "off", ColorNever},
		{"GENWATCH_COLOR auto", "", "auto", ColorAuto},
		{"default", "", "", ColorAuto},
		{"invalid genwatch color", "", "invalid", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("NO_COLOR")
			os.Unsetenv("GENWATCH_COLOR")

			if tt.noColor != "" {
				os.Setenv("NO_COLOR", tt.noColor)
			}
			if tt.genwatchColor != "" {
				os.Setenv("GENWATCH_COLOR", tt.genwatchColor)
			}

			result := detectColorMode()
			assert.Equal(t, tt.expected, result)

			os.Unsetenv("NO_COLOR")
			os.Unsetenv("GENWATCH_COLOR")
		})
	}
}

func TestError(t *testing.T) {
	var errorOutput bytes.Buffer
	presenter := NewWithOptions(nil, &errorOutput, ColorNever)

	err := errors.New("generator command could not run")
	presenter.Error(err, "check failed")

	result := errorOutput.String()
	assert.Contains(t, result, "[ERROR]")
	assert.Contains(t, result, "check failed")
	assert.Contains(t, result, "generator command could not run")

	errorOutput.Reset()
	presenter.Error(err, "")

	result = errorOutput.String()
	assert.Contains(t, result, "[ERROR]")
	assert.NotContains(t, result, "check failed")

	// Nil errors print nothing
	errorOutput.Reset()
	presenter.Error(nil, "context")
	assert.Empty(t, errorOutput.String())
}

func TestErrorIgnoresQuietMode(t *testing.T) {
	var errorOutput bytes.Buffer
	presenter := NewWithOptions(nil, &errorOutput, ColorNever)
	presenter.SetQuiet(true)

	presenter.Error(errors.New("boom"), "")
	assert.Contains(t, errorOutput.String(), "boom")
}

func TestSuccess(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Success("All generated artifacts are up to date.")

	result := output.String()
	assert.Contains(t, result, "✓")
	assert.Contains(t, result, "All generated artifacts are up to date.")
}

func TestSuccessQuietMode(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)
	presenter.SetQuiet(true)

	presenter.Success("All generated artifacts are up to date.")

	assert.Empty(t, output.String())
}

func TestWarning(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Warning("history could not be recorded")

	result := output.String()
	assert.Contains(t, result, "⚠")
	assert.Contains(t, result, "history could not be recorded")
}

func TestInfo(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Info("plain message")
	assert.Equal(t, "plain message\n", output.String())
}

func TestSection(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Section("History")

	result := output.String()
	assert.Contains(t, result, "History\n")
	assert.Contains(t, result, "-------\n")
}

func TestChangedFiles(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.ChangedFiles([]ChangedFile{
		{Path: "README.md", Label: "readme"},
		{Path: ".mcp.json", Label: "mcp config"},
	})

	expected := "Changed files:\n" +
		"  - README.md (readme)\n" +
		"  - .mcp.json (mcp config)\n"
	assert.Equal(t, expected, output.String())
}

func TestChangedFilesWithoutLabels(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.ChangedFiles([]ChangedFile{{Path: "AGENTS.md"}})

	assert.Equal(t, "Changed files:\n  - AGENTS.md\n", output.String())
}

func TestChangedFilesEmpty(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.ChangedFiles(nil)
	assert.Empty(t, output.String())
}

func TestChangedFilesQuietMode(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)
	presenter.SetQuiet(true)

	presenter.ChangedFiles([]ChangedFile{{Path: "README.md", Label: "readme"}})
	assert.Empty(t, output.String())
}

func TestSeparator(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Separator()
	assert.Contains(t, output.String(), "---")
}

func TestQuietAccessors(t *testing.T) {
	presenter := NewWithOptions(nil, nil, ColorNever)
	assert.False(t, presenter.IsQuiet())

	presenter.SetQuiet(true)
	assert.True(t, presenter.IsQuiet())

	presenter.SetQuiet(false)
	assert.False(t, presenter.IsQuiet())
}
