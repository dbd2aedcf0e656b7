// Package cmd contains all CLI commands for genwatch
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/genwatch/genwatch/internal/config"
	gwerrors "github.com/genwatch/genwatch/internal/errors"
	"github.com/genwatch/genwatch/internal/generator"
	"github.com/genwatch/genwatch/internal/logging"
	"github.com/genwatch/genwatch/internal/output"
	"github.com/genwatch/genwatch/internal/version"
	"github.com/spf13/cobra"
)

// Process exit codes. Collaborator exit codes propagate verbatim and
// may collide with these.
const (
	ExitCodeClean    = 0
	ExitCodeDrift    = 1
	ExitCodeUsage    = 2
	ExitCodeInternal = 3
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *logging.Logger
)

// errDriftDetected marks a check run that found drift. The drift
// listing has already been printed by the time it surfaces.
var errDriftDetected = errors.New("drift detected")

// usageError reports an unrecognized flag or stray argument
type usageError struct {
	detail string
}

func (e *usageError) Error() string {
	return "unknown option: " + e.detail
}

// flagUsageError converts a pflag parse error into a usageError,
// keeping only the offending option in the message.
func flagUsageError(err error) *usageError {
	msg := err.Error()
	if idx := strings.LastIndex(msg, " in "); strings.HasPrefix(msg, "unknown shorthand flag") && idx >= 0 {
		msg = msg[idx+len(" in "):]
	}
	msg = strings.TrimPrefix(msg, "unknown flag: ")
	return &usageError{detail: msg}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "genwatch",
	Short: "Regenerate and verify generated repository artifacts",
	Long: `genwatch keeps generated repository artifacts in sync with the
generator programs that produce them.

It tracks four artifacts by default:
  AGENTS.md                    agents manifest
  README.md                    top-level readme
  .cursor-plugin/plugin.json   Cursor plugin descriptor
  .mcp.json                    MCP configuration

Without arguments, genwatch runs both generators to refresh the
artifacts. With --check it verifies the checked-in copies are current:
it fingerprints the tracked artifacts, regenerates, fingerprints again,
and reports every file whose content changed, plus the result of the
plugin generator's own conformance check.

Exit codes: 0 clean, 1 drift detected, 2 usage error, 3 internal
failure; generator failures propagate the generator's exit code.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return &usageError{detail: args[0]}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		versionFlag, err := cmd.Flags().GetBool("version")
		if err != nil {
			return fmt.Errorf("failed to get version flag: %w", err)
		}
		if versionFlag {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionString())
			return nil
		}

		checkFlag, err := cmd.Flags().GetBool("check")
		if err != nil {
			return fmt.Errorf("failed to get check flag: %w", err)
		}
		diffFlag, err := cmd.Flags().GetBool("diff")
		if err != nil {
			return fmt.Errorf("failed to get diff flag: %w", err)
		}

		if checkFlag {
			return runCheck(cmd.Context(), diffFlag)
		}
		return runGenerate(cmd.Context())
	},
}

// Execute runs the root command and translates the result into the
// process exit code. This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	code := exitCodeFor(err)
	switch {
	case code == ExitCodeUsage:
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "Run 'genwatch --help' for usage.")
	case errors.Is(err, errDriftDetected):
		// listing already printed by the check
	default:
		output.Error(err, "")
		var gwe *gwerrors.GenWatchError
		if errors.As(err, &gwe) && gwe.Guidance != "" {
			fmt.Fprintf(os.Stderr, "Guidance: %s\n", gwe.Guidance)
		}
	}
	os.Exit(code)
}

// exitCodeFor maps an error to the process exit code. Generator exit
// codes pass through verbatim.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitCodeClean
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return ExitCodeUsage
	}

	if errors.Is(err, errDriftDetected) {
		return ExitCodeDrift
	}

	var runErr *generator.RunError
	if errors.As(err, &runErr) && runErr.ExitCode > 0 {
		return runErr.ExitCode
	}

	return ExitCodeInternal
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .genwatch.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.Flags().Bool("check", false, "verify the tracked artifacts are up to date instead of regenerating")
	rootCmd.Flags().Bool("diff", false, "with --check, show unified diffs of changed artifacts")
	rootCmd.Flags().Bool("version", false, "show version information")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return flagUsageError(err)
	})
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	logConfig := logging.DefaultLoggerConfig()

	if rootCmd.Flag("verbose").Changed {
		logConfig.Level = logging.LogLevelDebug
	}

	var err error
	logger, err = logging.NewLogger(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(ExitCodeInternal)
	}

	if err := logging.InitGlobalLogger(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing global logger: %v\n", err)
		os.Exit(ExitCodeInternal)
	}

	if rootCmd.Flag("quiet").Changed {
		output.SetQuiet(true)
	}
	if rootCmd.Flag("no-color").Changed {
		output.SetColorMode(output.ColorNever)
	}

	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		if gwe, ok := err.(*gwerrors.GenWatchError); ok {
			logger.LogError(context.TODO(), gwe, "Failed to load configuration")
			fmt.Fprintf(os.Stderr, "Configuration Error: %s\n", gwe.Message)
			if gwe.Guidance != "" {
				fmt.Fprintf(os.Stderr, "Guidance: %s\n", gwe.Guidance)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		}
		os.Exit(ExitCodeInternal)
	}

	if !cfg.Global.ColorOutput {
		output.SetColorMode(output.ColorNever)
	}

	if rootCmd.Flag("verbose").Changed {
		configPath := config.GetConfigFilePath(cfgFile)
		if config.ConfigExists(configPath) {
			logger.Info("Using config file", "path", configPath)
		} else {
			logger.Info("Using default configuration (no config file found)")
		}
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// GetLogger returns the initialized logger
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return logger
}
