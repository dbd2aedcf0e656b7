package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("configuration validation failed with %d error(s):\n- %s",
		len(e), strings.Join(messages, "\n- "))
}

// ValidateConfig validates the entire configuration
func ValidateConfig(config *Config) error {
	var errors ValidationErrors

	// Validate project configuration
	if err := validateProject(&config.Project); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors = append(errors, ValidationError{
				Field:   "project",
				Message: err.Error(),
			})
		}
	}

	// Validate global configuration
	if err := validateGlobal(&config.Global); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors = append(errors, ValidationError{
				Field:   "global",
				Message: err.Error(),
			})
		}
	}

	// Validate tracked artifacts
	if err := validateArtifacts(config.Artifacts); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors = append(errors, ValidationError{
				Field:   "artifacts",
				Message: err.Error(),
			})
		}
	}

	// Validate generator commands
	if err := validateGenerators(&config.Generators); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors = append(errors, ValidationError{
				Field:   "generators",
				Message: err.Error(),
			})
		}
	}

	// Validate history configuration
	if err := validateHistory(&config.History); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors = append(errors, ValidationError{
				Field:   "history",
				Message: err.Error(),
			})
		}
	}

	// Validate watch configuration
	if err := validateWatch(&config.Watch); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors = append(errors, ValidationError{
				Field:   "watch",
				Message: err.Error(),
			})
		}
	}

	// Validate alerting configuration
	if err := validateAlerting(&config.Alerting); err != nil {
		if validationErrs, ok := err.(ValidationErrors); ok {
			errors = append(errors, validationErrs...)
		} else {
			errors = append(errors, ValidationError{
				Field:   "alerting",
				Message: err.Error(),
			})
		}
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// validateProject validates project configuration
func validateProject(project *ProjectConfig) error {
	var errors ValidationErrors

	if strings.TrimSpace(project.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   "project.name",
			Value:   project.Name,
			Message: "project name cannot be empty",
		})
	}

	if len(project.Name) > 100 {
		errors = append(errors, ValidationError{
			Field:   "project.name",
			Value:   project.Name,
			Message: "project name cannot exceed 100 characters",
		})
	}

	if len(project.Description) > 500 {
		errors = append(errors, ValidationError{
			Field:   "project.description",
			Value:   project.Description,
			Message: "project description cannot exceed 500 characters",
		})
	}

	if project.Version != "" {
		versionRegex := regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?$`)
		if !versionRegex.MatchString(project.Version) {
			errors = append(errors, ValidationError{
				Field:   "project.version",
				Value:   project.Version,
				Message: "invalid version format (expected semver format like 1.0.0)",
			})
		}
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// validateGlobal validates global configuration
func validateGlobal(global *GlobalConfig) error {
	var errors ValidationErrors

	if strings.TrimSpace(global.RootDir) == "" {
		errors = append(errors, ValidationError{
			Field:   "global.root_dir",
			Value:   global.RootDir,
			Message: "root directory cannot be empty",
		})
	}

	if strings.TrimSpace(global.DatabaseURL) == "" {
		errors = append(errors, ValidationError{
			Field:   "global.database_url",
			Value:   global.DatabaseURL,
			Message: "database URL cannot be empty",
		})
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// validateArtifacts validates the tracked artifact list
func validateArtifacts(artifacts []ArtifactConfig) error {
	var errors ValidationErrors

	if len(artifacts) == 0 {
		errors = append(errors, ValidationError{
			Field:   "artifacts",
			Message: "at least one tracked artifact is required",
		})
		return errors
	}

	seenPaths := make(map[string]bool)
	for i, artifact := range artifacts {
		fieldPrefix := fmt.Sprintf("artifacts[%d]", i)

		if strings.TrimSpace(artifact.Label) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.label", fieldPrefix),
				Value:   artifact.Label,
				Message: "artifact label cannot be empty",
			})
		}

		if strings.TrimSpace(artifact.Path) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.path", fieldPrefix),
				Value:   artifact.Path,
				Message: "artifact path cannot be empty",
			})
			continue
		}

		if filepath.IsAbs(artifact.Path) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.path", fieldPrefix),
				Value:   artifact.Path,
				Message: "artifact path must be relative to the project root",
			})
		}

		cleaned := filepath.Clean(artifact.Path)
		if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.path", fieldPrefix),
				Value:   artifact.Path,
				Message: "artifact path cannot escape the project root",
			})
		}

		// Check for duplicate artifact paths
		if seenPaths[cleaned] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.path", fieldPrefix),
				Value:   artifact.Path,
				Message: "duplicate artifact path",
			})
		}
		seenPaths[cleaned] = true
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// validateGenerators validates generator commands
func validateGenerators(generators *GeneratorsConfig) error {
	var errors ValidationErrors

	errors = append(errors, validateGeneratorCommand(&generators.Agents, "generators.agents")...)
	errors = append(errors, validateGeneratorCommand(&generators.Plugin, "generators.plugin")...)

	if len(generators.VerifyArgs) == 0 {
		errors = append(errors, ValidationError{
			Field:   "generators.verify_args",
			Message: "verify arguments cannot be empty",
		})
	}
	for i, arg := range generators.VerifyArgs {
		if strings.TrimSpace(arg) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("generators.verify_args[%d]", i),
				Value:   arg,
				Message: "verify argument cannot be blank",
			})
		}
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// validateGeneratorCommand validates a single generator invocation
func validateGeneratorCommand(generator *GeneratorConfig, fieldPrefix string) ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(generator.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   fmt.Sprintf("%s.name", fieldPrefix),
			Value:   generator.Name,
			Message: "generator name cannot be empty",
		})
	}

	if len(generator.Command) == 0 {
		errors = append(errors, ValidationError{
			Field:   fmt.Sprintf("%s.command", fieldPrefix),
			Message: "generator command cannot be empty",
		})
		return errors
	}

	if strings.TrimSpace(generator.Command[0]) == "" {
		errors = append(errors, ValidationError{
			Field:   fmt.Sprintf("%s.command[0]", fieldPrefix),
			Value:   generator.Command[0],
			Message: "generator executable cannot be blank",
		})
	}

	return errors
}

// validateHistory validates history configuration
func validateHistory(history *HistoryConfig) error {
	var errors ValidationErrors

	if history.RetentionDays <= 0 {
		errors = append(errors, ValidationError{
			Field:   "history.retention_days",
			Value:   history.RetentionDays,
			Message: "retention days must be positive",
		})
	}

	if history.RetentionDays > 365 {
		errors = append(errors, ValidationError{
			Field:   "history.retention_days",
			Value:   history.RetentionDays,
			Message: "retention days cannot exceed 365",
		})
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// validateWatch validates the watch schedule
func validateWatch(watch *WatchConfig) error {
	var errors ValidationErrors

	if strings.TrimSpace(watch.Schedule) == "" {
		errors = append(errors, ValidationError{
			Field:   "watch.schedule",
			Value:   watch.Schedule,
			Message: "watch schedule cannot be empty",
		})
	} else {
		// Same parser the watch scheduler uses: seconds field plus descriptors
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(watch.Schedule); err != nil {
			errors = append(errors, ValidationError{
				Field:   "watch.schedule",
				Value:   watch.Schedule,
				Message: fmt.Sprintf("invalid cron schedule: %v", err),
			})
		}
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// validateAlerting validates alerting configuration
func validateAlerting(alerting *AlertingConfig) error {
	var errors ValidationErrors

	channelNames := make(map[string]bool)
	for i, channel := range alerting.Channels {
		fieldPrefix := fmt.Sprintf("alerting.channels[%d]", i)

		if strings.TrimSpace(channel.Name) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.name", fieldPrefix),
				Value:   channel.Name,
				Message: "alert channel name cannot be empty",
			})
		} else {
			if channelNames[channel.Name] {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.name", fieldPrefix),
					Value:   channel.Name,
					Message: "duplicate alert channel name",
				})
			}
			channelNames[channel.Name] = true
		}

		validTypes := map[string]bool{"slack": true, "webhook": true}
		if !validTypes[channel.Type] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.type", fieldPrefix),
				Value:   channel.Type,
				Message: "invalid alert channel type (supported: slack, webhook)",
			})
		}

		// Validate channel-specific settings
		if err := validateChannelSettings(channel.Type, channel.Settings, fieldPrefix); err != nil {
			if validationErrs, ok := err.(ValidationErrors); ok {
				errors = append(errors, validationErrs...)
			}
		}
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// validateChannelSettings validates channel-specific settings
func validateChannelSettings(channelType string, settings map[string]interface{}, fieldPrefix string) error {
	var errors ValidationErrors

	switch channelType {
	case "slack":
		errors = append(errors, validateWebhookURL(settings, "webhook_url", fieldPrefix, "Slack")...)
	case "webhook":
		errors = append(errors, validateWebhookURL(settings, "url", fieldPrefix, "webhook")...)
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// validateWebhookURL validates webhook URL settings for various channel types
func validateWebhookURL(settings map[string]interface{}, urlField, fieldPrefix, channelName string) ValidationErrors {
	var errors ValidationErrors
	fieldPath := fmt.Sprintf("%s.settings.%s", fieldPrefix, urlField)

	webhookURL, ok := settings[urlField].(string)
	if !ok {
		errors = append(errors, ValidationError{
			Field:   fieldPath,
			Message: fmt.Sprintf("%s channel requires %s setting", channelName, urlField),
		})
		return errors
	}

	if strings.TrimSpace(webhookURL) == "" {
		errors = append(errors, ValidationError{
			Field:   fieldPath,
			Value:   webhookURL,
			Message: fmt.Sprintf("%s webhook URL cannot be empty", channelName),
		})
		return errors
	}

	// Skip validation if it's an environment variable placeholder
	if !strings.Contains(webhookURL, "${") {
		parsedURL, err := url.Parse(webhookURL)
		if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
			errors = append(errors, ValidationError{
				Field:   fieldPath,
				Value:   webhookURL,
				Message: fmt.Sprintf("invalid %s webhook URL format", channelName),
			})
		}
	}

	return errors
}
