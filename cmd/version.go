package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/genwatch/genwatch/internal/version"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for genwatch including version number,
git commit, build date, Go version, and platform information.

Examples:
  genwatch version                # Show basic version info
  genwatch version --output json  # Show version info in JSON format
  genwatch version --detailed     # Show detailed version information`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFormat, err := cmd.Flags().GetString("output")
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", "output", err)
		}
		detailed, err := cmd.Flags().GetBool("detailed")
		if err != nil {
			return fmt.Errorf("failed to get detailed flag: %w", err)
		}

		versionInfo := version.GetVersion()

		switch outputFormat {
		case "json":
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(versionInfo)
		case "yaml":
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			defer encoder.Close()
			return encoder.Encode(versionInfo)
		default:
			if detailed {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersionString())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionString())
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	versionCmd.Flags().BoolP("detailed", "d", false, "show detailed version information")
}
