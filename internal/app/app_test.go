package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/pixabot/core/bootstrap"
	"github.com/m3rciful/pixabot/internal/audit"
	"github.com/m3rciful/pixabot/internal/registry"
	"github.com/m3rciful/pixabot/internal/search"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const baseConfig = `
telegram:
  token: "123:abc"
  admin_id: 900
pixabay:
  api_key: "key"
  page_size: 30
  cache_ttl: 5m
bot:
  mandatory_channels: ["news", "https://t.me/Photos/", "@news"]
  membership_timeout: 3s
admin:
  digest_cron: "@daily"
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, baseConfig))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(900), cfg.CoreConfig().Telegram.AdminID)
	assert.Equal(t, "longpoll", cfg.Telegram.RunMode)
	assert.Equal(t, 30, cfg.Pixabay.PageSize)
	assert.Equal(t, 5*time.Minute, cfg.Pixabay.CacheTTL)
	assert.Equal(t, []string{"@news", "@Photos", "@news"}, cfg.Bot.MandatoryChannels)
	assert.Equal(t, 3*time.Second, cfg.Bot.MembershipTimeout)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PIXABAY_API_KEY", "from-env")
	t.Setenv("PIXABAY_LANG", "de")
	cfg, err := LoadConfig(writeConfig(t, baseConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Pixabay.APIKey)
	assert.Equal(t, "de", cfg.Pixabay.Lang)
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]string{
		"missing api key": `
telegram:
  token: "123:abc"
`,
		"bad channel": `
telegram:
  token: "123:abc"
pixabay:
  api_key: "key"
bot:
  mandatory_channels: ["two words"]
`,
		"bad run mode": `
telegram:
  token: "123:abc"
  run_mode: carrier-pigeon
pixabay:
  api_key: "key"
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestChannelSeederSkipsDuplicates(t *testing.T) {
	reg := registry.NewMemory(time.Now())
	seeder := channelSeeder(reg, []string{"@news", "@photos", "@news"})
	require.NoError(t, seeder.Seed(context.Background(), bootstrap.Storage{}))
	assert.Equal(t, []string{"@news", "@photos"}, reg.Channels())
}

func TestRestoreStateReplaysInOrder(t *testing.T) {
	j := audit.NewMemory(20)
	ctx := context.Background()
	j.Record(ctx, audit.Event{Kind: audit.KindBan, TargetID: 1})
	j.Record(ctx, audit.Event{Kind: audit.KindBan, TargetID: 2})
	j.Record(ctx, audit.Event{Kind: audit.KindSearch, Subject: "cats"})
	j.Record(ctx, audit.Event{Kind: audit.KindUnban, TargetID: 1})
	j.Record(ctx, audit.Event{Kind: audit.KindChannelAdd, Subject: "@extra"})
	j.Record(ctx, audit.Event{Kind: audit.KindChannelRemove, Subject: "@news"})

	reg := registry.NewMemory(time.Now())
	reg.AddChannel("@news")

	n, err := restoreState(ctx, j, reg)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.False(t, reg.IsBanned(1))
	assert.True(t, reg.IsBanned(2))
	assert.Equal(t, []string{"@extra"}, reg.Channels())
}

type failingReplayer struct{}

func (failingReplayer) Replay(context.Context, ...audit.Kind) ([]audit.Event, error) {
	return nil, errors.New("db down")
}

func TestStateSeeder(t *testing.T) {
	reg := registry.NewMemory(time.Now())

	noDB := stateSeeder(reg, func(bootstrap.Storage) audit.Replayer { return nil })
	assert.NoError(t, noDB.Seed(context.Background(), bootstrap.Storage{}))

	broken := stateSeeder(reg, func(bootstrap.Storage) audit.Replayer { return failingReplayer{} })
	assert.ErrorContains(t, broken.Seed(context.Background(), bootstrap.Storage{}), "db down")
}

func TestStateSeederRestoresModeration(t *testing.T) {
	ctx := context.Background()
	j := audit.NewMemory(10)
	j.Record(ctx, audit.Event{Kind: audit.KindBan, TargetID: 42})
	j.Record(ctx, audit.Event{Kind: audit.KindChannelAdd, Subject: "@extra"})

	reg := registry.NewMemory(time.Now())
	require.NoError(t, channelSeeder(reg, []string{"@news"}).Seed(ctx, bootstrap.Storage{}))
	seeder := stateSeeder(reg, func(bootstrap.Storage) audit.Replayer { return j })
	require.NoError(t, seeder.Seed(ctx, bootstrap.Storage{}))

	assert.True(t, reg.IsBanned(42))
	assert.Equal(t, []string{"@news", "@extra"}, reg.Channels())
}

func TestBuildProvider(t *testing.T) {
	_, err := buildProvider(PixabayConfig{})
	assert.Error(t, err)

	p, err := buildProvider(PixabayConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &search.Cache{}, p)

	p, err = buildProvider(PixabayConfig{APIKey: "k", CacheTTL: -1})
	require.NoError(t, err)
	assert.IsType(t, &search.Breaker{}, p)
}
