package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/genwatch/genwatch/internal/errors"
	"github.com/spf13/viper"
)

// Config represents the complete genwatch configuration
type Config struct {
	Project    ProjectConfig    `yaml:"project" json:"project" mapstructure:"project"`
	Global     GlobalConfig     `yaml:"global" json:"global" mapstructure:"global"`
	Artifacts  []ArtifactConfig `yaml:"artifacts" json:"artifacts" mapstructure:"artifacts"`
	Generators GeneratorsConfig `yaml:"generators" json:"generators" mapstructure:"generators"`
	History    HistoryConfig    `yaml:"history" json:"history" mapstructure:"history"`
	Watch      WatchConfig      `yaml:"watch" json:"watch" mapstructure:"watch"`
	Alerting   AlertingConfig   `yaml:"alerting" json:"alerting" mapstructure:"alerting"`
}

// ProjectConfig contains project-level settings
type ProjectConfig struct {
	Name        string `yaml:"name" json:"name" mapstructure:"name"`
	Description string `yaml:"description" json:"description" mapstructure:"description"`
	Version     string `yaml:"version" json:"version" mapstructure:"version"`
}

// GlobalConfig contains settings that apply to every command
type GlobalConfig struct {
	RootDir     string `yaml:"root_dir" json:"root_dir" mapstructure:"root_dir"`
	DatabaseURL string `yaml:"database_url" json:"database_url" mapstructure:"database_url"`
	ColorOutput bool   `yaml:"color_output" json:"color_output" mapstructure:"color_output"`
}

// ArtifactConfig identifies one tracked artifact. The order of the
// artifacts list is significant: drift reports preserve it.
type ArtifactConfig struct {
	Label string `yaml:"label" json:"label" mapstructure:"label"`
	Path  string `yaml:"path" json:"path" mapstructure:"path"`
}

// GeneratorConfig describes one external generator invocation
type GeneratorConfig struct {
	Name    string   `yaml:"name" json:"name" mapstructure:"name"`
	Command []string `yaml:"command" json:"command" mapstructure:"command"`
}

// GeneratorsConfig holds both generator collaborators. The agents
// generator always runs before the plugin generator.
type GeneratorsConfig struct {
	Agents     GeneratorConfig `yaml:"agents" json:"agents" mapstructure:"agents"`
	Plugin     GeneratorConfig `yaml:"plugin" json:"plugin" mapstructure:"plugin"`
	VerifyArgs []string        `yaml:"verify_args" json:"verify_args" mapstructure:"verify_args"`
}

// HistoryConfig controls the local check-run history store
type HistoryConfig struct {
	Enabled       bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	RetentionDays int  `yaml:"retention_days" json:"retention_days" mapstructure:"retention_days"`
}

// WatchConfig controls scheduled re-checking
type WatchConfig struct {
	Schedule string `yaml:"schedule" json:"schedule" mapstructure:"schedule"`
}

// AlertingConfig contains alerting configuration
type AlertingConfig struct {
	Enabled  bool                 `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Channels []AlertChannelConfig `yaml:"channels" json:"channels" mapstructure:"channels"`
}

// AlertChannelConfig represents a single alert channel
type AlertChannelConfig struct {
	Type     string                 `yaml:"type" json:"type" mapstructure:"type"` // slack, webhook
	Name     string                 `yaml:"name" json:"name" mapstructure:"name"`
	Enabled  bool                   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Settings map[string]interface{} `yaml:"settings" json:"settings" mapstructure:"settings"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:        "genwatch project",
			Description: "Generated artifact drift tracking",
			Version:     "1.0.0",
		},
		Global: GlobalConfig{
			RootDir:     ".",
			DatabaseURL: "./genwatch.db",
			ColorOutput: true,
		},
		Artifacts: []ArtifactConfig{
			{Label: "agents manifest", Path: "AGENTS.md"},
			{Label: "readme", Path: "README.md"},
			{Label: "cursor plugin descriptor", Path: ".cursor-plugin/plugin.json"},
			{Label: "mcp config", Path: ".mcp.json"},
		},
		Generators: GeneratorsConfig{
			Agents: GeneratorConfig{
				Name:    "agents-manifest generator",
				Command: []string{"uv", "run", "scripts/generate_agents_md.py"},
			},
			Plugin: GeneratorConfig{
				Name:    "cursor-plugin generator",
				Command: []string{"uv", "run", "scripts/generate_cursor_plugin.py"},
			},
			VerifyArgs: []string{"--check"},
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
		Watch: WatchConfig{
			Schedule: "0 */5 * * * *",
		},
		Alerting: AlertingConfig{
			Enabled:  false,
			Channels: []AlertChannelConfig{},
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".genwatch")
	}

	// Enable environment variable substitution
	v.AutomaticEnv()
	v.SetEnvPrefix("GENWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read config file; a missing file means defaults apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.WrapError(err, errors.ErrorTypeConfig, "CONFIG_READ_ERROR", "failed to read config file").
				WithSeverity(errors.SeverityHigh).
				WithGuidance("Check file permissions and YAML syntax")
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfig, "CONFIG_UNMARSHAL_ERROR", "failed to unmarshal config").
			WithSeverity(errors.SeverityHigh).
			WithGuidance("Check configuration file structure and field types")
	}

	substituteEnvVars(config)

	if err := ValidateConfig(config); err != nil {
		if gwe, ok := err.(*errors.GenWatchError); ok {
			return nil, gwe
		}
		return nil, errors.WrapError(err, errors.ErrorTypeConfig, "CONFIG_VALIDATION_ERROR", "configuration validation failed").
			WithSeverity(errors.SeverityHigh).
			WithGuidance("Run 'genwatch config validate' for detailed error information")
	}

	return config, nil
}

// setDefaults sets default values in Viper
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("project.name", defaults.Project.Name)
	v.SetDefault("project.description", defaults.Project.Description)
	v.SetDefault("project.version", defaults.Project.Version)

	v.SetDefault("global.root_dir", defaults.Global.RootDir)
	v.SetDefault("global.database_url", defaults.Global.DatabaseURL)
	v.SetDefault("global.color_output", defaults.Global.ColorOutput)

	artifacts := make([]map[string]interface{}, 0, len(defaults.Artifacts))
	for _, artifact := range defaults.Artifacts {
		artifacts = append(artifacts, map[string]interface{}{
			"label": artifact.Label,
			"path":  artifact.Path,
		})
	}
	v.SetDefault("artifacts", artifacts)

	v.SetDefault("generators.agents.name", defaults.Generators.Agents.Name)
	v.SetDefault("generators.agents.command", defaults.Generators.Agents.Command)
	v.SetDefault("generators.plugin.name", defaults.Generators.Plugin.Name)
	v.SetDefault("generators.plugin.command", defaults.Generators.Plugin.Command)
	v.SetDefault("generators.verify_args", defaults.Generators.VerifyArgs)

	v.SetDefault("history.enabled", defaults.History.Enabled)
	v.SetDefault("history.retention_days", defaults.History.RetentionDays)

	v.SetDefault("watch.schedule", defaults.Watch.Schedule)

	v.SetDefault("alerting.enabled", defaults.Alerting.Enabled)
}

// substituteEnvVars performs environment variable substitution in configuration values
func substituteEnvVars(config *Config) {
	envVarRegex := regexp.MustCompile(`\$\{([^}]+)\}`)

	expand := func(value string) string {
		return envVarRegex.ReplaceAllStringFunc(value, func(match string) string {
			envVar := strings.Trim(match, "${}")
			if envValue := os.Getenv(envVar); envValue != "" {
				return envValue
			}
			return match // Return original if env var not found
		})
	}

	config.Global.RootDir = expand(config.Global.RootDir)
	config.Global.DatabaseURL = expand(config.Global.DatabaseURL)

	for i := range config.Generators.Agents.Command {
		config.Generators.Agents.Command[i] = expand(config.Generators.Agents.Command[i])
	}
	for i := range config.Generators.Plugin.Command {
		config.Generators.Plugin.Command[i] = expand(config.Generators.Plugin.Command[i])
	}

	// Substitute in alert channel settings
	for i := range config.Alerting.Channels {
		for key, value := range config.Alerting.Channels[i].Settings {
			if strValue, ok := value.(string); ok {
				config.Alerting.Channels[i].Settings[key] = expand(strValue)
			}
		}
	}
}
