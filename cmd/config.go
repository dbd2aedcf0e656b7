package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/genwatch/genwatch/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage genwatch configuration including viewing, validating, and initializing config files.

Examples:
  genwatch config show          # Show current configuration
  genwatch config validate      # Validate configuration
  genwatch config init          # Initialize default configuration file`,
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current genwatch configuration in the specified format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}

		outputFormat, err := cmd.Flags().GetString("output")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "output", err)
		}

		switch outputFormat {
		case "json":
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(cfg)
		case "yaml":
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			defer encoder.Close()
			return encoder.Encode(cfg)
		default:
			return fmt.Errorf("unsupported output format: %s (supported: json, yaml)", outputFormat)
		}
	},
}

// configValidateCmd validates the configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  `Validate the current genwatch configuration and report any errors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "config", err)
		}

		// Load config to trigger validation
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration validation failed:\n%v\n", err)
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid ✓\n")
		fmt.Fprintf(cmd.OutOrStdout(), "- Project: %s\n", cfg.Project.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "- Tracked artifacts: %d configured (%s)\n",
			len(cfg.Artifacts), strings.Join(cfg.ArtifactPaths(), ", "))
		fmt.Fprintf(cmd.OutOrStdout(), "- History: %s\n", map[bool]string{true: "enabled", false: "disabled"}[cfg.History.Enabled])
		fmt.Fprintf(cmd.OutOrStdout(), "- Alerting: %s\n", map[bool]string{true: "enabled", false: "disabled"}[cfg.Alerting.Enabled])

		return nil
	},
}

// configInitCmd initializes a default configuration file
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default genwatch configuration file with example settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "config", err)
		}
		configPath := config.GetConfigFilePath(configFile)

		if config.ConfigExists(configPath) {
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return fmt.Errorf("failed to get %s flag: %w", "force", err)
			}
			if !force {
				return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
			}
		}

		if err := config.CreateDefaultConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create configuration file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at %s ✓\n", configPath)
		fmt.Fprintf(cmd.OutOrStdout(), "\nNext steps:\n")
		fmt.Fprintf(cmd.OutOrStdout(), "1. Adjust the tracked artifacts and generator commands for your project\n")
		fmt.Fprintf(cmd.OutOrStdout(), "2. Set environment variables for sensitive values (e.g., SLACK_WEBHOOK_URL)\n")
		fmt.Fprintf(cmd.OutOrStdout(), "3. Validate your configuration: genwatch config validate\n")
		fmt.Fprintf(cmd.OutOrStdout(), "4. Verify your artifacts are current: genwatch --check\n")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)

	configShowCmd.Flags().StringP("output", "o", "yaml", "output format (json, yaml)")
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite existing configuration file")
}
