package audit

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/pixabot/core/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the journal schema for core/database.RunMigrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const writeTimeout = 2 * time.Second

const insertEvent = `INSERT INTO audit_events (kind, actor_id, target_id, subject, detail, count, at)
VALUES (:kind, :actor_id, :target_id, :subject, :detail, :count, :at)`

// Postgres writes events to the audit_events table.
type Postgres struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgres builds a journal over an open connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func (p *Postgres) Record(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = p.now().UTC()
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if _, err := p.db.NamedExecContext(wctx, insertEvent, e); err != nil {
		logger.LogEvent(ctx, logger.DB, slog.LevelWarn, "audit.write_failed",
			slog.String("op", string(e.Kind)),
			slog.String("err", err.Error()),
		)
	}
}

// Recent returns the latest events of kind, newest first. An empty kind
// matches every event.
func (p *Postgres) Recent(ctx context.Context, kind Kind, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []Event
	err := p.db.SelectContext(ctx, &out, `SELECT kind, actor_id, target_id, subject, detail, count, at
FROM audit_events WHERE ($1 = '' OR kind = $1) ORDER BY id DESC LIMIT $2`, string(kind), limit)
	return out, err
}

// Replay returns every event of the given kinds, oldest first.
func (p *Postgres) Replay(ctx context.Context, kinds ...Kind) ([]Event, error) {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	var out []Event
	err := p.db.SelectContext(ctx, &out, `SELECT kind, actor_id, target_id, subject, detail, count, at
FROM audit_events WHERE kind = ANY($1) ORDER BY id`, pq.Array(names))
	return out, err
}
