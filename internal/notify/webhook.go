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

// WebhookChannel implements AlertChannel for generic webhook integration
type WebhookChannel struct {
	name    string
	url     string
	method  string
	headers map[string]string
	enabled bool
	client  *http.Client
}

// WebhookPayload represents the payload sent to webhook endpoints
type WebhookPayload struct {
	Alert     *AlertMessage          `json:"alert"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewWebhookChannel creates a new webhook alert channel
func NewWebhookChannel(channelConfig config.AlertChannelConfig) (AlertChannel, error) {
	settings := channelConfig.Settings

	url, ok := settings["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("url is required for webhook channel")
	}

	channel := &WebhookChannel{
		name:    channelConfig.Name,
		url:     url,
		method:  "POST",
		headers: make(map[string]string),
		enabled: channelConfig.Enabled,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	if method, ok := settings["method"].(string); ok {
		channel.method = method
	}

	if headersInterface, ok := settings["headers"]; ok {
		if headersMap, ok := headersInterface.(map[string]interface{}); ok {
			for key, value := range headersMap {
				if strValue, ok := value.(string); ok {
					channel.headers[key] = strValue
				}
			}
		}
	}

	if _, exists := channel.headers["Content-Type"]; !exists {
		channel.headers["Content-Type"] = "application/json"
	}

	return channel, nil
}

// Send sends a drift alert to the webhook endpoint
func (wc *WebhookChannel) Send(ctx context.Context, message *AlertMessage) error {
	payload := &WebhookPayload{
		Alert:     message,
		Timestamp: time.Now(),
		Source:    "genwatch",
		Metadata: map[string]interface{}{
			"channel_name": wc.name,
			"channel_type": "webhook",
		},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, wc.method, wc.url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range wc.headers {
		req.Header.Set(key, value)
	}

	resp, err := wc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// Test sends a test message to verify the webhook configuration
func (wc *WebhookChannel) Test(ctx context.Context) error {
	testMessage := &AlertMessage{
		Title:        "genwatch test alert",
		Summary:      "This is a test message to verify webhook integration is working correctly.",
		Project:      "test-project",
		ChangedPaths: []string{"AGENTS.md"},
		VerifyPassed: true,
		DetectedAt:   time.Now(),
	}

	return wc.Send(ctx, testMessage)
}

// GetType returns the channel type
func (wc *WebhookChannel) GetType() string {
	return "webhook"
}

// GetName returns the channel name
func (wc *WebhookChannel) GetName() string {
	return wc.name
}

// IsEnabled returns whether the channel is enabled
func (wc *WebhookChannel) IsEnabled() bool {
	return wc.enabled
}
