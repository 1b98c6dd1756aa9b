// Package logger is the structured logging layer: a log/slog handler that
// writes ordered key=value or JSON lines, correlation ids carried in the
// context, and per-component loggers.
package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/m3rciful/pixabot/core/buildinfo"
	coreconfig "github.com/m3rciful/pixabot/core/config"
)

const (
	defaultSampleKeep   = 1
	defaultSampleWindow = 50
)

var (
	initOnce sync.Once
	stopOnce sync.Once

	writers []*queuedWriter
	closers []io.Closer

	levelVar slog.LevelVar

	debugSampler = newSampler(defaultSampleKeep, defaultSampleWindow)
	// traceAll disables debug sampling; set with TRACE=1 or LOG_TRACE=1.
	traceAll bool

	// L is the root logger. It stays nil until InitLogger runs, and every
	// helper in this package is a no-op while it is nil.
	L *slog.Logger

	// DB logs audit journal database events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs database migration events.
	MIG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// SVCSearch logs search orchestration and provider calls.
	SVCSearch *slog.Logger
	// SVCGate logs subscription gate checks.
	SVCGate *slog.Logger
	// SVCAdmin logs admin console actions.
	SVCAdmin *slog.Logger
)

// InitLogger configures the global logger. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() { err = setup(cfg) })
	return err
}

func setup(cfg *coreconfig.Config) error {
	var lc coreconfig.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}
	levelVar.Set(parseLevel(lc.Level))
	keep, window := defaultSampleKeep, defaultSampleWindow
	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		keep, window = parseRatio(spec)
	}
	debugSampler.set(keep, window)
	traceAll = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

	main, errs := openSinks(lc)
	mainWriter := newQueuedWriter(main, 1024)
	writers = append(writers, mainWriter)
	var errWriter *queuedWriter
	if len(errs) > 0 {
		errWriter = newQueuedWriter(errs, 256)
		writers = append(writers, errWriter)
	}

	L = slog.New(newLineHandler(handlerConfig{
		level:     &levelVar,
		writer:    mainWriter,
		errWriter: errWriter,
		format:    parseFormat(lc),
		keyOrder:  parseKeyOrder(lc.KeysOrder),
		stacks:    truthy(lc.Stacks),
	}))
	slog.SetDefault(L)

	DB = L.With("component", "db")
	TG = L.With("component", "tg")
	MIG = L.With("component", "db.migrate")
	TWire = L.With("component", "tg.wire")
	SVCSearch = L.With("component", "service.search")
	SVCGate = L.With("component", "service.gate")
	SVCAdmin = L.With("component", "service.admin")

	L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("go_version", runtime.Version()),
		slog.String("version", buildinfo.String()),
		slog.String("profile", profile(lc)),
	)
	return nil
}

// Shutdown writes out queued lines and closes the log files.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		for _, w := range writers {
			errs = append(errs, w.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

func parseFormat(lc coreconfig.LoggingConfig) logFormat {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if p := profile(lc); p == "debug" || p == "dev" {
		return formatKV
	}
	return formatJSON
}

func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return defaultKeyOrder
	}
	var order []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return defaultKeyOrder
	}
	return order
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func profile(lc coreconfig.LoggingConfig) string {
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		return p
	}
	return "prod"
}

// openSinks returns stdout plus the rotated files configured under
// logging.dir. A directory that cannot be created leaves stdout only.
func openSinks(lc coreconfig.LoggingConfig) (main, errs []io.Writer) {
	main = []io.Writer{os.Stdout}
	dir := strings.TrimSpace(lc.Dir)
	if dir == "" {
		return main, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: create log dir %s: %v", dir, err)
		return main, nil
	}
	if name := strings.TrimSpace(lc.BotFile); name != "" {
		main = append(main, rotated(filepath.Join(dir, name), lc))
	}
	if name := strings.TrimSpace(lc.ErrorsFile); name != "" {
		errs = append(errs, rotated(filepath.Join(dir, name), lc))
	}
	return main, errs
}

func rotated(path string, lc coreconfig.LoggingConfig) *lumberjack.Logger {
	l := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
		Compress:   lc.Compress,
	}
	if l.MaxSize <= 0 {
		l.MaxSize = 20
	}
	if l.MaxBackups <= 0 {
		l.MaxBackups = 5
	}
	closers = append(closers, l)
	return l
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Background is context.Background, for call sites outside any update.
func Background() context.Context {
	return context.Background()
}

// LogEvent writes one event through logg, falling back to the context
// logger and then L. The message stays empty; the event attribute names
// the line.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component returns L scoped to name, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs event for component at level.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug event should be
// logged this time.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.allow()
}
