// Package logging provides structured logging functionality for genwatch
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/genwatch/genwatch/internal/errors"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat represents the log output format
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level      LogLevel  `yaml:"level" mapstructure:"level"`
	Format     LogFormat `yaml:"format" mapstructure:"format"`
	Output     string    `yaml:"output" mapstructure:"output"` // "stdout", "stderr", or file path
	TimeFormat string    `yaml:"time_format" mapstructure:"time_format"`
	AddSource  bool      `yaml:"add_source" mapstructure:"add_source"`
}

// DefaultLoggerConfig returns a default logger configuration.
// Logs go to stderr so check results on stdout stay clean.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      LogLevelInfo,
		Format:     LogFormatText,
		Output:     "stderr",
		TimeFormat: time.RFC3339,
		AddSource:  false,
	}
}

// Logger wraps slog.Logger and tracks the underlying output file, if any
type Logger struct {
	*slog.Logger
	writer io.Writer
	file   *os.File
	config LoggerConfig
}

func NewLogger(config LoggerConfig) (*Logger, error) {
	var writer io.Writer
	var file *os.File

	switch config.Output {
	case "stdout":
		writer = os.Stdout
	case "stderr", "":
		writer = os.Stderr
	default:
		// File output
		dir := filepath.Dir(config.Output)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = f
		file = f
	}

	var level slog.Level
	switch config.Level {
	case LogLevelDebug:
		level = slog.LevelDebug
	case LogLevelInfo:
		level = slog.LevelInfo
	case LogLevelWarn:
		level = slog.LevelWarn
	case LogLevelError:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	switch config.Format {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		config: config,
		writer: writer,
		file:   file,
	}, nil
}

// Close releases the log file handle when logging to a file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// LogError logs a genwatch error with its structured fields attached
func (l *Logger) LogError(ctx context.Context, err error, msg string, args ...interface{}) {
	if gwe, ok := err.(*errors.GenWatchError); ok {
		attrs := []slog.Attr{
			slog.String("error_type", string(gwe.Type)),
			slog.String("error_code", gwe.Code),
			slog.String("severity", string(gwe.Severity)),
			slog.Bool("recoverable", gwe.Recoverable),
		}

		if gwe.Guidance != "" {
			attrs = append(attrs, slog.String("guidance", gwe.Guidance))
		}

		for key, value := range gwe.Context {
			attrs = append(attrs, slog.Any(fmt.Sprintf("ctx_%s", key), value))
		}

		if gwe.Cause != nil {
			attrs = append(attrs, slog.String("cause", gwe.Cause.Error()))
		}

		l.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	} else {
		l.Error(msg, "error", err)
	}
}

// LogOperation logs the start of an operation
func (l *Logger) LogOperation(ctx context.Context, operation string, args ...interface{}) {
	l.Info(fmt.Sprintf("Starting %s", operation), args...)
}

// LogOperationSuccess logs successful completion of an operation
func (l *Logger) LogOperationSuccess(ctx context.Context, operation string, duration time.Duration, args ...interface{}) {
	allArgs := append([]interface{}{"duration", duration}, args...)
	l.Info(fmt.Sprintf("Completed %s", operation), allArgs...)
}

// LogOperationFailure logs failed completion of an operation
func (l *Logger) LogOperationFailure(ctx context.Context, operation string, err error, duration time.Duration, args ...interface{}) {
	allArgs := append([]interface{}{"duration", duration, "error", err}, args...)
	l.Error(fmt.Sprintf("Failed %s", operation), allArgs...)
}

// WithContext returns a logger with additional context
func (l *Logger) WithContext(ctx context.Context, args ...interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		config: l.config,
		writer: l.writer,
	}
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
		config: l.config,
		writer: l.writer,
	}
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.config.Level
}

// SetLevel updates the log level (note: this creates a new logger)
func (l *Logger) SetLevel(level LogLevel) (*Logger, error) {
	newConfig := l.config
	newConfig.Level = level
	return NewLogger(newConfig)
}

// IsDebugEnabled returns true if debug logging is enabled
func (l *Logger) IsDebugEnabled() bool {
	return l.config.Level == LogLevelDebug
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(config LoggerConfig) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		config := DefaultLoggerConfig()
		logger, err := NewLogger(config)
		if err != nil {
			panic(fmt.Sprintf("Failed to create default logger: %v", err))
		}
		globalLogger = logger
	}
	return globalLogger
}

// CloseGlobalLogger closes the global logger
func CloseGlobalLogger() error {
	if globalLogger != nil {
		err := globalLogger.Close()
		globalLogger = nil
		return err
	}
	return nil
}
