// Package errors provides structured error handling for genwatch
package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeConfig       ErrorType = "CONFIG"
	ErrorTypeArtifact     ErrorType = "ARTIFACT"
	ErrorTypeGeneration   ErrorType = "GENERATION"
	ErrorTypeVerification ErrorType = "VERIFICATION"
	ErrorTypeStorage      ErrorType = "STORAGE"
	ErrorTypeAlert        ErrorType = "ALERT"
	ErrorTypeUsage        ErrorType = "USAGE"
	ErrorTypeSystem       ErrorType = "SYSTEM"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// GenWatchError represents a structured error with context and recovery guidance
type GenWatchError struct {
	Type        ErrorType              `json:"type"`
	Severity    Severity               `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Guidance    string                 `json:"guidance,omitempty"`
	Cause       error                  `json:"cause,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

// Error implements the error interface
func (e *GenWatchError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s:%s]", e.Type, e.Code))
	parts = append(parts, e.Message)

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("caused by: %v", e.Cause))
	}

	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause error
func (e *GenWatchError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error type
func (e *GenWatchError) Is(target error) bool {
	if t, ok := target.(*GenWatchError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context information to the error
func (e *GenWatchError) WithContext(key string, value interface{}) *GenWatchError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithGuidance adds recovery guidance to the error
func (e *GenWatchError) WithGuidance(guidance string) *GenWatchError {
	e.Guidance = guidance
	return e
}

// NewError creates a new GenWatchError
func NewError(errorType ErrorType, code, message string) *GenWatchError {
	return &GenWatchError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		Severity:    SeverityMedium,
		Recoverable: false,
		Context:     make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with genwatch error context
func WrapError(err error, errorType ErrorType, code, message string) *GenWatchError {
	return &GenWatchError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Severity:    SeverityMedium,
		Recoverable: false,
		Context:     make(map[string]interface{}),
	}
}

// Configuration Errors
var (
	ErrConfigNotFound = NewError(ErrorTypeConfig, "CONFIG_NOT_FOUND", "configuration file not found").
				WithGuidance("Run 'genwatch config init' to create a default configuration file")

	ErrConfigInvalid = NewError(ErrorTypeConfig, "CONFIG_INVALID", "configuration file is invalid").
				WithGuidance("Run 'genwatch config validate' to see detailed validation errors")

	ErrConfigPermission = NewError(ErrorTypeConfig, "CONFIG_PERMISSION", "insufficient permissions to read configuration file").
				WithGuidance("Check file permissions and ensure the configuration file is readable")
)

// Artifact Errors
var (
	ErrArtifactUnreadable = NewError(ErrorTypeArtifact, "ARTIFACT_UNREADABLE", "tracked artifact exists but cannot be read").
				WithSeverity(SeverityHigh).
				WithGuidance("Check file permissions on the tracked artifact; a missing file is fine, an unreadable one is not")

	ErrArtifactOutsideRoot = NewError(ErrorTypeArtifact, "ARTIFACT_OUTSIDE_ROOT", "tracked artifact path escapes the project root").
				WithSeverity(SeverityHigh).
				WithGuidance("Artifact paths must be relative and stay inside the configured root directory")
)

// Generation Errors
var (
	ErrGenerationFailed = NewError(ErrorTypeGeneration, "GENERATION_FAILED", "artifact generator exited with an error").
				WithSeverity(SeverityHigh).
				WithGuidance("Run the generator command by hand to see its full output")

	ErrGeneratorNotFound = NewError(ErrorTypeGeneration, "GENERATOR_NOT_FOUND", "artifact generator command could not be started").
				WithSeverity(SeverityHigh).
				WithGuidance("Check that the generator command exists and is on PATH, or fix the command in the configuration")
)

// Verification Errors
var (
	ErrVerifyUnavailable = NewError(ErrorTypeVerification, "VERIFY_UNAVAILABLE", "conformance check command could not be run").
				WithSeverity(SeverityHigh).
				WithGuidance("Check that the plugin generator supports its check mode and can be started")
)

// Storage Errors
var (
	ErrStorageConnection = NewError(ErrorTypeStorage, "STORAGE_CONNECTION", "failed to open the history database").
				WithSeverity(SeverityMedium).
				WithRecoverable(true).
				WithGuidance("Check database file permissions and available disk space; checks still run without history")

	ErrStorageMigration = NewError(ErrorTypeStorage, "STORAGE_MIGRATION", "history database schema migration failed").
				WithSeverity(SeverityMedium).
				WithRecoverable(true).
				WithGuidance("Delete the history database file to start fresh; it holds only past check outcomes")
)

// Alert Errors
var (
	ErrAlertDelivery = NewError(ErrorTypeAlert, "ALERT_DELIVERY", "failed to deliver drift alert").
				WithSeverity(SeverityMedium).
				WithRecoverable(true).
				WithGuidance("Check alert channel configuration and network connectivity")

	ErrAlertConfig = NewError(ErrorTypeAlert, "ALERT_CONFIG", "alert configuration is invalid").
			WithGuidance("Validate alert channel settings; each channel needs a type and a URL")
)

// System Errors
var (
	ErrSystemPermission = NewError(ErrorTypeSystem, "SYSTEM_PERMISSION", "insufficient system permissions").
				WithSeverity(SeverityCritical).
				WithGuidance("Run with appropriate permissions or check file/directory access rights")
)

// Helper methods for error creation

// WithSeverity sets the severity level of the error
func (e *GenWatchError) WithSeverity(severity Severity) *GenWatchError {
	e.Severity = severity
	return e
}

// WithRecoverable sets whether the error is recoverable
func (e *GenWatchError) WithRecoverable(recoverable bool) *GenWatchError {
	e.Recoverable = recoverable
	return e
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	if gwe, ok := err.(*GenWatchError); ok {
		return gwe.Recoverable
	}
	return false
}

// GetSeverity returns the severity of an error
func GetSeverity(err error) Severity {
	if gwe, ok := err.(*GenWatchError); ok {
		return gwe.Severity
	}
	return SeverityMedium
}

// GetErrorType returns the type of an error
func GetErrorType(err error) ErrorType {
	if gwe, ok := err.(*GenWatchError); ok {
		return gwe.Type
	}
	return ErrorTypeSystem
}

// GetGuidance returns recovery guidance for an error
func GetGuidance(err error) string {
	if gwe, ok := err.(*GenWatchError); ok {
		return gwe.Guidance
	}
	return "Check the error message and logs for more information"
}
