package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRunModes(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: " Polling "}}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)

	cfg = &Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}
	assert.ErrorContains(t, Normalize(cfg), "webhook.url")

	cfg.Webhook = WebhookConfig{URL: "https://bot.example.com/hook", Listen: ":8443", Port: 8443}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)

	assert.Error(t, Normalize(&Config{Telegram: TelegramConfig{Token: "t", RunMode: "smoke"}}))
	assert.Error(t, Normalize(&Config{}))
	assert.Error(t, Normalize(nil))
}

func TestDecodeValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  admin_id: 5\n"), 0o600))

	var cfg Config
	t.Setenv("BOT_TOKEN", "")
	assert.ErrorContains(t, Decode(path, &cfg), "invalid config")

	t.Setenv("BOT_TOKEN", "from-env")
	cfg = Config{}
	require.NoError(t, Decode(path, &cfg))
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, int64(5), cfg.Telegram.AdminID)

	assert.ErrorContains(t, Decode(filepath.Join(t.TempDir(), "missing.yaml"), &cfg), "read config file")
}
