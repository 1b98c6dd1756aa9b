// Package bootstrap prepares shared infrastructure before the bot starts:
// the logger, the optional database with its migrations, and seeders.
package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/pixabot/core/config"
	coredatabase "github.com/m3rciful/pixabot/core/database"
	"github.com/m3rciful/pixabot/core/logger"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Migrations is applied when a database is configured; nil skips migrations.
	Migrations fs.FS
	Modules    Modules

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config, fs.FS) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is nil when no database is configured.
	DB *sqlx.DB
}

// Close releases the database connection, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, connects to the database when one is
// configured, applies migrations and runs the seeders in order.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if !opts.Database.Enabled() {
		logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.disabled")
	} else {
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(ctx, opts.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.DB = db

		if opts.Migrations != nil {
			migrate := opts.Migrate
			if migrate == nil {
				migrate = coredatabase.RunMigrations
			}
			if err := migrate(ctx, opts.Database, opts.Migrations); err != nil {
				_ = res.Close()
				return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
			}
		}
	}

	if err := opts.Modules.seed(ctx, Storage{DB: res.DB}); err != nil {
		_ = res.Close()
		return nil, err
	}
	return res, nil
}
