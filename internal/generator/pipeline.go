// Package generator invokes the external commands that produce the
// tracked artifacts and answers conformance queries about them.
package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/genwatch/genwatch/internal/config"
	"github.com/genwatch/genwatch/internal/errors"
	"github.com/genwatch/genwatch/internal/logging"
)

// RunError reports a generator process that failed. ExitCode is the
// process exit status, or -1 when the process never produced one
// (failed to start, killed by a signal, context cancelled).
type RunError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *RunError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s exited with code %d", e.Step, e.ExitCode)
	}
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Pipeline runs the configured generator commands against a project
// root. The agents-manifest generator always runs before the plugin
// generator, and a failure stops the sequence. Pipeline satisfies the
// drift package's Regenerator and Verifier interfaces.
type Pipeline struct {
	root       string
	agents     config.GeneratorConfig
	plugin     config.GeneratorConfig
	verifyArgs []string
	stdout     io.Writer
	stderr     io.Writer
	logger     *logging.Logger
}

// NewPipeline creates a Pipeline rooted at root. Generator output goes
// to the process's own stdout and stderr unless redirected with
// SetOutput.
func NewPipeline(root string, generators config.GeneratorsConfig, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Pipeline{
		root:       root,
		agents:     generators.Agents,
		plugin:     generators.Plugin,
		verifyArgs: append([]string(nil), generators.VerifyArgs...),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		logger:     logger.WithComponent("generator"),
	}
}

// SetOutput redirects the stdout and stderr of every command the
// pipeline runs.
func (p *Pipeline) SetOutput(stdout, stderr io.Writer) {
	p.stdout = stdout
	p.stderr = stderr
}

// Regenerate runs the agents-manifest generator and then the plugin
// generator. The plugin generator does not run if the agents generator
// fails.
func (p *Pipeline) Regenerate(ctx context.Context) error {
	if err := p.run(ctx, p.agents.Name, p.agents.Command); err != nil {
		return err
	}
	return p.run(ctx, p.plugin.Name, p.plugin.Command)
}

// Verify asks the plugin generator whether the artifacts on disk match
// what it would produce. A non-zero exit is an answer, not an error:
// the artifacts do not conform. The returned error is non-nil only
// when the command could not deliver a verdict at all.
func (p *Pipeline) Verify(ctx context.Context) (bool, error) {
	if len(p.plugin.Command) == 0 {
		return false, errors.NewError(errors.ErrorTypeGeneration, "GENERATOR_NOT_FOUND",
			fmt.Sprintf("%s has no command configured", p.plugin.Name)).
			WithGuidance("Set generators.plugin.command in your configuration file")
	}

	argv := make([]string, 0, len(p.plugin.Command)+len(p.verifyArgs))
	argv = append(argv, p.plugin.Command...)
	argv = append(argv, p.verifyArgs...)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.root
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	p.logger.Debug("running conformance check", "command", strings.Join(argv, " "))
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, &RunError{Step: p.plugin.Name, ExitCode: -1, Err: ctx.Err()}
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		p.logger.Debug("conformance check reported a mismatch", "exit_code", exitErr.ExitCode())
		return false, nil
	}
	return false, &RunError{Step: p.plugin.Name, ExitCode: -1, Err: err}
}

func (p *Pipeline) run(ctx context.Context, name string, argv []string) error {
	if len(argv) == 0 {
		return errors.NewError(errors.ErrorTypeGeneration, "GENERATOR_NOT_FOUND",
			fmt.Sprintf("%s has no command configured", name)).
			WithGuidance("Set the generator command in your configuration file")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.root
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	p.logger.Debug("running generator", "step", name, "command", strings.Join(argv, " "))
	start := time.Now()
	err := cmd.Run()
	if err == nil {
		p.logger.Debug("generator finished", "step", name, "duration", time.Since(start))
		return nil
	}

	runErr := &RunError{Step: name, ExitCode: -1, Err: err}
	if exitErr, ok := err.(*exec.ExitError); ok {
		runErr.ExitCode = exitErr.ExitCode()
	}
	if runErr.ExitCode >= 0 {
		return errors.WrapError(runErr, errors.ErrorTypeGeneration, "GENERATION_FAILED", "artifact regeneration failed").
			WithSeverity(errors.SeverityHigh)
	}
	return errors.WrapError(runErr, errors.ErrorTypeGeneration, "GENERATOR_NOT_FOUND", "generator command could not run").
		WithSeverity(errors.SeverityCritical).
		WithGuidance("Check that the generator command is installed and executable")
}
