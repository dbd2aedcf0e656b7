package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/genwatch/genwatch/internal/security"
)

// SaveConfig saves the configuration to a YAML file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := security.SafeWriteFile(filename, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file
func CreateDefaultConfigFile(filename string) error {
	config := DefaultConfig()

	// Add example alerting configuration
	config.Alerting = AlertingConfig{
		Enabled: false,
		Channels: []AlertChannelConfig{
			{
				Type:    "slack",
				Name:    "dev-alerts",
				Enabled: false,
				Settings: map[string]interface{}{
					"webhook_url": "${SLACK_WEBHOOK_URL}",
					"channel":     "#drift-alerts",
				},
			},
		},
	}

	return SaveConfig(config, filename)
}

// GetConfigFilePath returns the path to the configuration file
func GetConfigFilePath(configFile string) string {
	if configFile != "" {
		return configFile
	}
	return ".genwatch.yaml"
}

// ConfigExists checks if a configuration file exists
func ConfigExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// ResolveRoot returns the absolute project root directory. Generators
// run from here and artifact paths are resolved against it.
func (c *Config) ResolveRoot() (string, error) {
	root := c.Global.RootDir
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root directory %q: %w", root, err)
	}
	return abs, nil
}

// ArtifactPaths returns the tracked artifact paths in declaration order
func (c *Config) ArtifactPaths() []string {
	paths := make([]string, 0, len(c.Artifacts))
	for _, artifact := range c.Artifacts {
		paths = append(paths, artifact.Path)
	}
	return paths
}
