package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genwatch/genwatch/internal/config"
	"github.com/genwatch/genwatch/internal/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookServer(t *testing.T, status int, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewNotifier(t *testing.T) {
	server := webhookServer(t, http.StatusOK, nil)

	tests := []struct {
		name         string
		cfg          config.AlertingConfig
		expectError  bool
		channelCount int
	}{
		{
			name:         "no channels",
			cfg:          config.AlertingConfig{Enabled: true},
			channelCount: 0,
		},
		{
			name: "disabled channels are skipped",
			cfg: config.AlertingConfig{
				Enabled: true,
				Channels: []config.AlertChannelConfig{
					{
						Type:     "webhook",
						Name:     "off",
						Enabled:  false,
						Settings: map[string]interface{}{"url": server.URL},
					},
				},
			},
			channelCount: 0,
		},
		{
			name: "webhook and slack channels",
			cfg: config.AlertingConfig{
				Enabled: true,
				Channels: []config.AlertChannelConfig{
					{
						Type:     "webhook",
						Name:     "ci",
						Enabled:  true,
						Settings: map[string]interface{}{"url": server.URL},
					},
					{
						Type:     "slack",
						Name:     "dev",
						Enabled:  true,
						Settings: map[string]interface{}{"webhook_url": server.URL},
					},
				},
			},
			channelCount: 2,
		},
		{
			name: "unsupported channel type",
			cfg: config.AlertingConfig{
				Enabled: true,
				Channels: []config.AlertChannelConfig{
					{Type: "pager", Name: "oncall", Enabled: true},
				},
			},
			expectError: true,
		},
		{
			name: "invalid channel settings",
			cfg: config.AlertingConfig{
				Enabled: true,
				Channels: []config.AlertChannelConfig{
					{Type: "webhook", Name: "broken", Enabled: true, Settings: map[string]interface{}{}},
				},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier, err := NewNotifier(tt.cfg, nil)

			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.channelCount, notifier.ChannelCount())
		})
	}
}

func TestNotifier_ProcessReport_CleanReportIsNoOp(t *testing.T) {
	var hits atomic.Int64
	server := webhookServer(t, http.StatusOK, &hits)

	notifier, err := NewNotifier(config.AlertingConfig{
		Enabled: true,
		Channels: []config.AlertChannelConfig{
			{Type: "webhook", Name: "ci", Enabled: true, Settings: map[string]interface{}{"url": server.URL}},
		},
	}, nil)
	require.NoError(t, err)

	report := &drift.Report{VerifyPassed: true}
	require.NoError(t, notifier.ProcessReport(context.Background(), "demo", report))
	assert.Equal(t, int64(0), hits.Load())
}

func TestNotifier_ProcessReport_DirtyReportSendsAlert(t *testing.T) {
	var hits atomic.Int64
	server := webhookServer(t, http.StatusOK, &hits)

	notifier, err := NewNotifier(config.AlertingConfig{
		Enabled: true,
		Channels: []config.AlertChannelConfig{
			{Type: "webhook", Name: "ci", Enabled: true, Settings: map[string]interface{}{"url": server.URL}},
		},
	}, nil)
	require.NoError(t, err)

	report := &drift.Report{
		StartedAt:    time.Now(),
		Changed:      []drift.Artifact{{Label: "readme", Path: "README.md"}},
		VerifyPassed: true,
	}
	require.NoError(t, notifier.ProcessReport(context.Background(), "demo", report))
	assert.Equal(t, int64(1), hits.Load())
}

func TestNotifier_ProcessReport_DisabledAlertingIsNoOp(t *testing.T) {
	var hits atomic.Int64
	server := webhookServer(t, http.StatusOK, &hits)

	notifier, err := NewNotifier(config.AlertingConfig{
		Enabled: false,
		Channels: []config.AlertChannelConfig{
			{Type: "webhook", Name: "ci", Enabled: true, Settings: map[string]interface{}{"url": server.URL}},
		},
	}, nil)
	require.NoError(t, err)

	report := &drift.Report{
		Changed:      []drift.Artifact{{Label: "readme", Path: "README.md"}},
		VerifyPassed: true,
	}
	require.NoError(t, notifier.ProcessReport(context.Background(), "demo", report))
	assert.Equal(t, int64(0), hits.Load())
}

func TestNotifier_Send_CollectsChannelFailures(t *testing.T) {
	failing := webhookServer(t, http.StatusInternalServerError, nil)

	var hits atomic.Int64
	working := webhookServer(t, http.StatusOK, &hits)

	notifier, err := NewNotifier(config.AlertingConfig{
		Enabled: true,
		Channels: []config.AlertChannelConfig{
			{Type: "webhook", Name: "bad", Enabled: true, Settings: map[string]interface{}{"url": failing.URL}},
			{Type: "webhook", Name: "good", Enabled: true, Settings: map[string]interface{}{"url": working.URL}},
		},
	}, nil)
	require.NoError(t, err)

	err = notifier.Send(context.Background(), &AlertMessage{Title: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	// Delivery continued to the healthy channel despite the failure
	assert.Equal(t, int64(1), hits.Load())
}

func TestNewDriftMessage(t *testing.T) {
	t.Run("changed artifacts", func(t *testing.T) {
		report := &drift.Report{
			StartedAt: time.Now(),
			Changed: []drift.Artifact{
				{Label: "agents manifest", Path: "AGENTS.md"},
				{Label: "readme", Path: "README.md"},
			},
			VerifyPassed: true,
		}

		message := NewDriftMessage("demo", report)
		assert.Equal(t, "Artifact drift detected: demo", message.Title)
		assert.Contains(t, message.Summary, "2 generated artifact(s)")
		assert.Equal(t, []string{"AGENTS.md", "README.md"}, message.ChangedPaths)
	})

	t.Run("verification failure only", func(t *testing.T) {
		report := &drift.Report{StartedAt: time.Now(), VerifyPassed: false}

		message := NewDriftMessage("demo", report)
		assert.Contains(t, message.Summary, "conformance check failed")
		assert.Empty(t, message.ChangedPaths)
	})
}

func TestNotifier_Test(t *testing.T) {
	t.Run("disabled alerting", func(t *testing.T) {
		notifier, err := NewNotifier(config.AlertingConfig{Enabled: false}, nil)
		require.NoError(t, err)
		require.Error(t, notifier.Test(context.Background()))
	})

	t.Run("no channels", func(t *testing.T) {
		notifier, err := NewNotifier(config.AlertingConfig{Enabled: true}, nil)
		require.NoError(t, err)
		require.Error(t, notifier.Test(context.Background()))
	})

	t.Run("working channel", func(t *testing.T) {
		var hits atomic.Int64
		server := webhookServer(t, http.StatusOK, &hits)

		notifier, err := NewNotifier(config.AlertingConfig{
			Enabled: true,
			Channels: []config.AlertChannelConfig{
				{Type: "webhook", Name: "ci", Enabled: true, Settings: map[string]interface{}{"url": server.URL}},
			},
		}, nil)
		require.NoError(t, err)

		require.NoError(t, notifier.Test(context.Background()))
		assert.Equal(t, int64(1), hits.Load())
	})
}
