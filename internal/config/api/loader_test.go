package api_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.Sweep.Interval)
	assert.Equal(t, 4, cfg.Sweep.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Notifier.Timeout)
	assert.Equal(t, "s3cret", cfg.Webhook.Secret)
	assert.False(t, cfg.Redis.Enable)
	assert.Equal(t, "pushkeeper/api", cfg.Log.AsLoggerConfig(cfg.App).App)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "x")
	t.Setenv("SWEEP_TIMEZONE", "Europe/Berlin")
	t.Setenv("SWEEP_INTERVAL", "1m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Sweep.Interval)
	loc, err := cfg.Sweep.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_RequiresWebhookSecret(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "x")
	t.Setenv("SWEEP_TIMEZONE", "Mars/Olympus")
	_, err := Load("")
	require.Error(t, err)
}
