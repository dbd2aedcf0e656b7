package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/genwatch/genwatch/internal/config"
)

// SlackChannel implements AlertChannel for Slack webhook integration
type SlackChannel struct {
	name       string
	webhookURL string
	channel    string
	username   string
	iconEmoji  string
	enabled    bool
	client     *http.Client
}

// SlackMessage represents a Slack webhook message
type SlackMessage struct {
	Channel   string       `json:"channel,omitempty"`
	Username  string       `json:"username,omitempty"`
	IconEmoji string       `json:"icon_emoji,omitempty"`
	Text      string       `json:"text,omitempty"`
	Blocks    []SlackBlock `json:"blocks,omitempty"`
}

// SlackBlock represents a Slack block element
type SlackBlock struct {
	Type   string       `json:"type"`
	Text   *SlackText   `json:"text,omitempty"`
	Fields []SlackField `json:"fields,omitempty"`
}

// SlackText represents Slack text element
type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SlackField represents a Slack field element
type SlackField struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewSlackChannel creates a new Slack alert channel
func NewSlackChannel(channelConfig config.AlertChannelConfig) (AlertChannel, error) {
	settings := channelConfig.Settings

	webhookURL, ok := settings["webhook_url"].(string)
	if !ok || webhookURL == "" {
		return nil, fmt.Errorf("webhook_url is required for Slack channel")
	}

	channel := &SlackChannel{
		name:       channelConfig.Name,
		webhookURL: webhookURL,
		enabled:    channelConfig.Enabled,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	if ch, ok := settings["channel"].(string); ok {
		channel.channel = ch
	}
	if username, ok := settings["username"].(string); ok {
		channel.username = username
	} else {
		channel.username = "genwatch"
	}
	if iconEmoji, ok := settings["icon_emoji"].(string); ok {
		channel.iconEmoji = iconEmoji
	} else {
		channel.iconEmoji = ":warning:"
	}

	return channel, nil
}

// Send sends a drift alert to Slack
func (sc *SlackChannel) Send(ctx context.Context, message *AlertMessage) error {
	slackMessage := sc.formatMessage(message)

	payload, err := json.Marshal(slackMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", sc.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Test sends a test message to verify the Slack configuration
func (sc *SlackChannel) Test(ctx context.Context) error {
	testMessage := &AlertMessage{
		Title:        "genwatch test alert",
		Summary:      "This is a test message to verify Slack integration is working correctly.",
		Project:      "test-project",
		ChangedPaths: []string{"AGENTS.md"},
		VerifyPassed: true,
		DetectedAt:   time.Now(),
	}

	return sc.Send(ctx, testMessage)
}

// GetType returns the channel type
func (sc *SlackChannel) GetType() string {
	return "slack"
}

// GetName returns the channel name
func (sc *SlackChannel) GetName() string {
	return sc.name
}

// IsEnabled returns whether the channel is enabled
func (sc *SlackChannel) IsEnabled() bool {
	return sc.enabled
}

// formatMessage formats an AlertMessage for Slack
func (sc *SlackChannel) formatMessage(message *AlertMessage) *SlackMessage {
	text := fmt.Sprintf(":warning: *%s*", message.Title)

	blocks := []SlackBlock{
		{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf(":warning: *%s*\n%s", message.Title, message.Summary),
			},
		},
		{
			Type: "section",
			Fields: []SlackField{
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*Project:*\n%s", message.Project),
				},
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*Detected:*\n%s", message.DetectedAt.Format("2006-01-02 15:04:05 UTC")),
				},
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*Changed artifacts:*\n%d", len(message.ChangedPaths)),
				},
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*Conformance check:*\n%s", map[bool]string{true: "passed", false: "failed"}[message.VerifyPassed]),
				},
			},
		},
	}

	if len(message.ChangedPaths) > 0 {
		pathsText := "*Changed files:*\n"
		for i, path := range message.ChangedPaths {
			if i >= 10 { // keep the message readable for large artifact lists
				pathsText += fmt.Sprintf("... and %d more\n", len(message.ChangedPaths)-i)
				break
			}
			pathsText += fmt.Sprintf("• `%s`\n", path)
		}

		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: pathsText,
			},
		})
	}

	slackMessage := &SlackMessage{
		Username:  sc.username,
		IconEmoji: sc.iconEmoji,
		Text:      text, // Fallback text for notifications
		Blocks:    blocks,
	}

	if sc.channel != "" {
		slackMessage.Channel = sc.channel
	}

	return slackMessage
}
