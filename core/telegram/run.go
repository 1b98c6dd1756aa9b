// Package telegram is the bot runtime: it builds the telebot client,
// registers middleware, routes and commands, and runs until the context ends.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/pixabot/core/config"
	"github.com/m3rciful/pixabot/core/logger"
	tghelpers "github.com/m3rciful/pixabot/core/telegram/helpers"
	tgsender "github.com/m3rciful/pixabot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// stopTimeout bounds the OnStop hook once the run context is gone.
const stopTimeout = 15 * time.Second

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to a telebot endpoint: a command string or one of
// the tele.On* constants.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	// OnBot runs right after the client is built, before routes are
	// registered, so callers can wire components that need the bot.
	OnBot   func(ctx context.Context, bot *tele.Bot) error
	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot described by opts and serves updates until
// ctx is cancelled. Cancellation is a clean exit and returns nil.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, err := newBot(ctx, opts.Config)
	if err != nil {
		return err
	}
	if opts.OnBot != nil {
		if err := opts.OnBot(ctx, bot); err != nil {
			return err
		}
	}

	rt := Runtime{Bot: bot, Dispatcher: tgsender.NewDispatcher(opts.DispatcherOptions), Registry: opts.Registry}
	tghelpers.SetDispatcher(rt.Dispatcher)
	defer func() {
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "sender.drain", slog.Int("pending", rt.Dispatcher.Pending()))
		rt.Dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	install(rt, opts)
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)
	if opts.OnStop != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		if err := opts.OnStop(stopCtx, rt); err != nil {
			return err
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// newBot builds the telebot client with the poller the config selects and
// logs the chosen mode.
func newBot(ctx context.Context, cfg *coreconfig.Config) (*tele.Bot, error) {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(cfg.Telegram.LongPollTimeoutSeconds),
		OnError: logHandlerError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	took := slog.Duration("duration", logger.Since(start))
	switch p := poller.(type) {
	case *tele.Webhook:
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			took,
		)
	case *tele.LongPoller:
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
			slog.String("mode", "polling"),
			slog.Duration("timeout", p.Timeout),
			took,
		)
		dropWebhook(ctx, bot)
	}
	return bot, nil
}

// dropWebhook removes a webhook left from an earlier deployment; with one
// set, getUpdates fails with 409.
func dropWebhook(ctx context.Context, bot *tele.Bot) {
	status := slog.String("status", "ok")
	level := slog.LevelInfo
	var attrs []slog.Attr
	if err := bot.RemoveWebhook(false); err != nil {
		status, level = slog.String("status", "fail"), slog.LevelWarn
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.LogEvent(ctx, logger.TG, level, "delete_webhook", append([]slog.Attr{status}, attrs...)...)
}

func logHandlerError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "handler.error", slog.String("err", err.Error()))
}

// install registers middleware, routes and the command menu. Entries
// without a handler are skipped.
func install(rt Runtime, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			rt.Bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			rt.Bot.Handle(r.Endpoint, r.Handler)
		}
	}
	SetupCommands(rt.Bot, rt.Registry)
}

// serve runs the poller until it stops by itself or ctx ends.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	}
}
