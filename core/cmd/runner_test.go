package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/pixabot/core/config"
	coretelegram "github.com/m3rciful/pixabot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct{ err error }

func (a fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, a.err
}

func TestRunRequiresHooks(t *testing.T) {
	assert.Error(t, Run(Options{}))
	assert.Error(t, Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil }}))
}

func TestRunWiresLifecycle(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	var started, stopped bool
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			assert.Equal(t, "config.yaml", path)
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return fakeApp{}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			started = true
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			stopped = true
			return nil
		},
	})
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, stopped)
}

func TestRunReportsFailures(t *testing.T) {
	load := func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil }

	err := Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        load,
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return nil, errors.New("no db")
		},
	})
	assert.ErrorContains(t, err, "bootstrap failed")

	err = Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        load,
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return fakeApp{err: errors.New("bad routes")}, nil
		},
		ShutdownLogger: func() error { return nil },
	})
	assert.ErrorContains(t, err, "bad routes")

	err = Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return carrier{}, nil },
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return fakeApp{}, nil
		},
	})
	assert.ErrorContains(t, err, "missing core configuration")
}
