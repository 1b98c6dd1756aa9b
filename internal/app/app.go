// Package app assembles the Pixabay bot from its components and hands the
// result to the Telegram runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/pixabot/core/bootstrap"
	"github.com/m3rciful/pixabot/core/buildinfo"
	"github.com/m3rciful/pixabot/core/logger"
	coretelegram "github.com/m3rciful/pixabot/core/telegram"
	"github.com/m3rciful/pixabot/core/telegram/router"
	tgsender "github.com/m3rciful/pixabot/core/telegram/sender"
	"github.com/m3rciful/pixabot/internal/admin"
	"github.com/m3rciful/pixabot/internal/audit"
	"github.com/m3rciful/pixabot/internal/bot"
	"github.com/m3rciful/pixabot/internal/dispatch"
	"github.com/m3rciful/pixabot/internal/gate"
	"github.com/m3rciful/pixabot/internal/registry"
	"github.com/m3rciful/pixabot/internal/search"
	"github.com/m3rciful/pixabot/internal/session"
)

const (
	defaultCacheTTL = 10 * time.Minute
	// memoryJournalSize bounds the in-process journal used without a database.
	memoryJournalSize = 500
)

// App owns the wired components for one bot process.
type App struct {
	cfg        *Config
	infra      *bootstrap.Result
	client     *bot.Client
	console    *admin.Console
	dispatcher *dispatch.Dispatcher
	digest     *cron.Cron
}

// Bootstrap initializes logging and storage, seeds the registry and wires
// every component.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}

	reg := registry.NewMemory(time.Now())
	var pg *audit.Postgres
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: audit.Migrations(),
		Modules: bootstrap.Modules{Seeders: []bootstrap.Seeder{
			channelSeeder(reg, cfg.Bot.MandatoryChannels),
			stateSeeder(reg, func(s bootstrap.Storage) audit.Replayer {
				if s.DB == nil {
					return nil
				}
				pg = audit.NewPostgres(s.DB)
				return pg
			}),
		}},
	})
	if err != nil {
		return nil, err
	}

	var journal audit.Journal = audit.NewMemory(memoryJournalSize)
	if pg != nil {
		journal = pg
	}

	provider, err := buildProvider(cfg.Pixabay)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	store := session.NewMemoryStore()
	client := bot.NewClient()
	console := admin.New(reg, store, client, journal, admin.Options{
		AdminID:       cfg.Telegram.AdminID,
		Workers:       cfg.Broadcast.Workers,
		RatePerSecond: cfg.Broadcast.RatePerSecond,
	})
	orchestrator := search.NewOrchestrator(store, provider, reg, journal, search.Options{
		Lang:    cfg.Pixabay.Lang,
		PerPage: cfg.Pixabay.PageSize,
		Timeout: time.Duration(cfg.Pixabay.TimeoutSeconds) * time.Second,
	})

	a := &App{
		cfg:     cfg,
		infra:   infra,
		client:  client,
		console: console,
		dispatcher: dispatch.New(dispatch.Deps{
			Store:    store,
			Registry: reg,
			Gate:     gate.New(reg, client, cfg.Bot.MembershipTimeout),
			Search:   orchestrator,
			Admin:    console,
			Version:  buildinfo.String(),
		}),
	}

	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "app.wired",
		slog.Bool("database", infra.DB != nil),
		slog.Int("channels", len(reg.Channels())),
		slog.Bool("admin", cfg.Telegram.AdminID != 0),
	)
	return a, nil
}

// buildProvider stacks the response cache over the circuit breaker over
// the HTTP client, so cached answers are served even while the breaker is open.
func buildProvider(cfg PixabayConfig) (search.Provider, error) {
	client, err := search.NewPixabay(search.PixabayOptions{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	var p search.Provider = search.NewBreaker(client, search.BreakerOptions{
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenFor:     cfg.Breaker.OpenFor,
		Interval:    cfg.Breaker.Interval,
	})
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	if ttl > 0 {
		p = search.NewCache(p, ttl)
	}
	return p, nil
}

// TelegramRunOptions builds the runtime options: routes for every command,
// button and text message, plus lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := bot.Register(reg, a.dispatcher); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes,
		router.CallbackRoute(reg),
		router.TextRoute(reg, router.TextOptions{}),
	)

	return coretelegram.RunOptions{
		Config:            a.cfg.CoreConfig(),
		Registry:          reg,
		DispatcherOptions: tgsender.Options{MaxRetries: 2},
		Middlewares:       coretelegram.DefaultMiddlewares(),
		Routes:            routes,
		OnBot: func(_ context.Context, b *tele.Bot) error {
			a.client.Attach(b)
			return nil
		},
		OnStart: a.start,
		OnStop:  a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, _ coretelegram.Runtime) error {
	spec := a.cfg.Admin.DigestCron
	if spec == "" || a.cfg.Telegram.AdminID == 0 {
		return nil
	}
	c, err := a.console.ScheduleDigest(spec)
	if err != nil {
		return err
	}
	a.digest = c
	logger.LogEvent(ctx, logger.SVCAdmin, slog.LevelInfo, "digest.scheduled", slog.String("cron", spec))
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.digest != nil {
		select {
		case <-a.digest.Stop().Done():
		case <-ctx.Done():
		}
	}
	if err := a.infra.Close(); err != nil {
		logger.LogEvent(ctx, logger.DB, slog.LevelWarn, "db.close_failed", slog.String("err", err.Error()))
		return err
	}
	return nil
}
