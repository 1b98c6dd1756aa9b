package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/pixabot/core/logger"
)

const (
	readyTimeout = 30 * time.Second
	previewFiles = 6
)

// RunMigrations waits for the database and applies every up migration at
// the root of migrations. Packages embed their SQL files and pass the tree.
func RunMigrations(ctx context.Context, cfg Config, migrations fs.FS) error {
	if migrations == nil {
		return errors.New("migrations: nil source")
	}
	fail := func(status string, err error) {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate",
			slog.String("status", status), slog.String("err", err.Error()))
	}

	if err := WaitForPostgres(ctx, cfg.DSN(), readyTimeout); err != nil {
		fail("not_ready", err)
		return fmt.Errorf("database not ready: %w", err)
	}

	files := listMigrationFiles(migrations)
	logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "resolve", logger.Preview("files", files, previewFiles)...)

	src, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("open migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		fail("init_failed", err)
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	from := version(m)
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fail("apply_failed", err)
		return fmt.Errorf("migration execution failed: %w", err)
	}
	took := logger.Since(start)
	to := version(m)

	applied := selectApplied(files, from, to)
	if len(applied) > 0 {
		logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "apply", logger.Preview("files", applied, previewFiles)...)
	}
	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "summary",
		slog.Uint64("from_ver", from),
		slog.Uint64("to_ver", to),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

// version is the current schema version, 0 for a fresh database.
func version(m *migrate.Migrate) uint64 {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return uint64(v)
}

// listMigrationFiles returns the sorted *.up.sql names at the root of fsys.
func listMigrationFiles(fsys fs.FS) []string {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil
	}
	slices.Sort(names)
	return names
}

// parseVersion reads the numeric prefix of a migration file name.
func parseVersion(name string) uint64 {
	head, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(head, 10, 64)
	return v
}

// selectApplied returns the files whose version lies in (from, to].
func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
