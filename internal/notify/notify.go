// Package notify delivers drift alerts to configured channels
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/genwatch/genwatch/internal/config"
	"github.com/genwatch/genwatch/internal/drift"
	"github.com/genwatch/genwatch/internal/errors"
	"github.com/genwatch/genwatch/internal/logging"
)

// AlertChannel defines the interface for different alert delivery channels
type AlertChannel interface {
	Send(ctx context.Context, message *AlertMessage) error
	Test(ctx context.Context) error
	GetType() string
	GetName() string
	IsEnabled() bool
}

// AlertMessage represents a formatted drift alert
type AlertMessage struct {
	DetectedAt   time.Time `json:"detected_at"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Project      string    `json:"project"`
	ChangedPaths []string  `json:"changed_paths,omitempty"`
	VerifyPassed bool      `json:"verify_passed"`
}

// Notifier fans drift alerts out to the configured channels
type Notifier struct {
	config   config.AlertingConfig
	channels map[string]AlertChannel
	logger   *logging.Logger
}

// NewNotifier creates a notifier from the alerting configuration.
// Disabled channels are skipped entirely.
func NewNotifier(cfg config.AlertingConfig, logger *logging.Logger) (*Notifier, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	notifier := &Notifier{
		config:   cfg,
		channels: make(map[string]AlertChannel),
		logger:   logger.WithComponent("notify"),
	}

	for _, channelConfig := range cfg.Channels {
		if !channelConfig.Enabled {
			continue
		}

		var channel AlertChannel
		var err error

		switch channelConfig.Type {
		case "slack":
			channel, err = NewSlackChannel(channelConfig)
		case "webhook":
			channel, err = NewWebhookChannel(channelConfig)
		default:
			err = fmt.Errorf("unsupported alert channel type: %s", channelConfig.Type)
		}

		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeAlert, "ALERT_CONFIG",
				fmt.Sprintf("failed to create %s channel '%s'", channelConfig.Type, channelConfig.Name)).
				WithGuidance("Check the alerting section of your configuration file")
		}

		notifier.channels[channelConfig.Name] = channel
	}

	return notifier, nil
}

// ChannelCount returns the number of active channels
func (n *Notifier) ChannelCount() int {
	return len(n.channels)
}

// ProcessReport sends an alert when the report is dirty. Clean reports
// and disabled alerting are a no-op.
func (n *Notifier) ProcessReport(ctx context.Context, project string, report *drift.Report) error {
	if report == nil || report.Clean() {
		return nil
	}
	if !n.config.Enabled || len(n.channels) == 0 {
		return nil
	}

	return n.Send(ctx, NewDriftMessage(project, report))
}

// NewDriftMessage builds the alert message for a dirty report
func NewDriftMessage(project string, report *drift.Report) *AlertMessage {
	paths := report.ChangedPaths()

	var summary string
	switch {
	case len(paths) > 0:
		summary = fmt.Sprintf("%d generated artifact(s) changed during regeneration", len(paths))
	case !report.VerifyPassed:
		summary = "conformance check failed although content signatures match"
	}

	return &AlertMessage{
		Title:        fmt.Sprintf("Artifact drift detected: %s", project),
		Summary:      summary,
		Project:      project,
		ChangedPaths: paths,
		VerifyPassed: report.VerifyPassed,
		DetectedAt:   report.StartedAt,
	}
}

// Send delivers the message through every enabled channel. Failing
// channels are logged and collected; delivery continues to the rest.
func (n *Notifier) Send(ctx context.Context, message *AlertMessage) error {
	var failures []string
	for name, channel := range n.channels {
		if !channel.IsEnabled() {
			continue
		}

		if err := channel.Send(ctx, message); err != nil {
			n.logger.Warn("alert delivery failed",
				"channel", name,
				"type", channel.GetType(),
				"error", err.Error())
			failures = append(failures, fmt.Sprintf("%s (%s): %v", name, channel.GetType(), err))
			continue
		}

		n.logger.Debug("alert delivered", "channel", name, "type", channel.GetType())
	}

	if len(failures) > 0 {
		return errors.NewError(errors.ErrorTypeAlert, "ALERT_DELIVERY",
			fmt.Sprintf("failed to deliver drift alert via: %s", strings.Join(failures, "; "))).
			WithGuidance("Check channel URLs and network connectivity")
	}

	return nil
}

// Test sends a test message through all configured channels
func (n *Notifier) Test(ctx context.Context) error {
	if !n.config.Enabled {
		return fmt.Errorf("alerting is disabled in configuration")
	}
	if len(n.channels) == 0 {
		return fmt.Errorf("no alert channels configured")
	}

	var failures []string
	for name, channel := range n.channels {
		if !channel.IsEnabled() {
			continue
		}

		if err := channel.Test(ctx); err != nil {
			failures = append(failures, fmt.Sprintf("%s (%s): %v", name, channel.GetType(), err))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("alert channel test failures: %v", failures)
	}

	return nil
}
