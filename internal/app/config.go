package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/pixabot/core/config"
	coredatabase "github.com/m3rciful/pixabot/core/database"
	"github.com/m3rciful/pixabot/internal/registry"
)

// PixabayConfig configures the search provider.
type PixabayConfig struct {
	APIKey         string `yaml:"api_key" envconfig:"PIXABAY_API_KEY" validate:"required"`
	BaseURL        string `yaml:"base_url" envconfig:"PIXABAY_BASE_URL" validate:"omitempty,url"`
	Lang           string `yaml:"lang" envconfig:"PIXABAY_LANG"`
	PageSize       int    `yaml:"page_size" envconfig:"PIXABAY_PAGE_SIZE" validate:"gte=0"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"PIXABAY_TIMEOUT_SECONDS" validate:"gte=0"`
	// CacheTTL keeps identical searches off the API; 0 selects 10m, negative disables the cache.
	CacheTTL time.Duration `yaml:"cache_ttl" envconfig:"PIXABAY_CACHE_TTL"`
	Breaker  BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker around the provider.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenFor     time.Duration `yaml:"open_for"`
	Interval    time.Duration `yaml:"interval"`
}

// BotConfig holds the behaviour of the subscription gate.
type BotConfig struct {
	// MandatoryChannels seeds the channel list at startup.
	MandatoryChannels []string      `yaml:"mandatory_channels" envconfig:"MANDATORY_CHANNELS"`
	MembershipTimeout time.Duration `yaml:"membership_timeout" envconfig:"MEMBERSHIP_TIMEOUT"`
}

// BroadcastConfig bounds broadcast fan-out.
type BroadcastConfig struct {
	Workers       int     `yaml:"workers" validate:"gte=0"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// AdminConfig configures admin extras.
type AdminConfig struct {
	// DigestCron schedules the stats digest; empty disables it.
	DigestCron string `yaml:"digest_cron" envconfig:"ADMIN_DIGEST_CRON"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Pixabay   PixabayConfig       `yaml:"pixabay"`
	Bot       BotConfig           `yaml:"bot"`
	Broadcast BroadcastConfig     `yaml:"broadcast"`
	Admin     AdminConfig         `yaml:"admin"`
	Database  coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded runtime configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// LoadConfig reads path plus environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Pixabay.APIKey = strings.TrimSpace(c.Pixabay.APIKey)
	if c.Pixabay.APIKey == "" {
		return fmt.Errorf("pixabay.api_key is required")
	}
	channels := make([]string, 0, len(c.Bot.MandatoryChannels))
	for _, raw := range c.Bot.MandatoryChannels {
		name := registry.NormalizeChannel(raw)
		if name == "" {
			return fmt.Errorf("bot.mandatory_channels: invalid channel %q", raw)
		}
		channels = append(channels, name)
	}
	c.Bot.MandatoryChannels = channels
	if c.Bot.MembershipTimeout < 0 {
		return fmt.Errorf("bot.membership_timeout must be >= 0")
	}
	return nil
}
