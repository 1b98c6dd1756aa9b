// Package config holds the settings shared by every bot binary and the
// loader that fills them from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds the bot token, admin and update source.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN" validate:"required"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID" validate:"gte=0"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS" validate:"gte=0"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig configures core/logger; empty values keep its defaults.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Stacks      string `yaml:"stacks"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Rotation of file sinks; zero values fall back to logger defaults.
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode fills target from an optional .env file, the YAML file at path and
// environment overrides, then runs struct validation. Bots embed Config in
// their own structs and decode them with this helper.
func Decode(path string, target any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", target); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// runModes maps accepted run_mode spellings to their canonical value.
var runModes = map[string]string{
	"":              RunModeLongpoll,
	"polling":       RunModeLongpoll,
	RunModeLongpoll: RunModeLongpoll,
	RunModeWebhook:  RunModeWebhook,
}

// Normalize canonicalizes the run mode and checks the settings that mode
// needs.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if cfg.Telegram.Token == "" {
		return errors.New("telegram token is required")
	}
	mode, ok := runModes[strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))]
	if !ok {
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	if err := cfg.checkMode(mode); err != nil {
		return err
	}
	cfg.Telegram.RunMode = mode
	return nil
}

func (cfg *Config) checkMode(mode string) error {
	if mode == RunModeLongpoll {
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
		return nil
	}
	var missing []string
	if strings.TrimSpace(cfg.Webhook.URL) == "" {
		missing = append(missing, "webhook.url")
	}
	if strings.TrimSpace(cfg.Webhook.Listen) == "" {
		missing = append(missing, "webhook.listen")
	}
	if cfg.Webhook.Port <= 0 {
		missing = append(missing, "webhook.port")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required when telegram.run_mode is 'webhook'", strings.Join(missing, ", "))
	}
	return nil
}
