package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
)

// ErrMigrationFailed wraps the error of the migration that could not be applied.
var ErrMigrationFailed = errors.New("postgres: migration failed")

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

const schemaVersionsSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name VARCHAR(128) NOT NULL,
    applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`

// Migrator applies Migrations that are not yet recorded in schema_migrations.
// Each migration runs in its own transaction together with its record.
type Migrator struct {
	conn   *Connection
	steps  []Migration
	logger *slog.Logger
}

// NewMigrator returns a migrator for the built-in Migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:   conn,
		steps:  Migrations(),
		logger: slog.Default().With("component", "migrator"),
	}
}

// Migrate brings the schema up to the latest version.
func (m *Migrator) Migrate(ctx context.Context) error {
	if _, err := m.conn.Exec(ctx, schemaVersionsSQL); err != nil {
		return fmt.Errorf("%w: create schema_migrations: %w", ErrMigrationFailed, err)
	}

	rows, err := m.conn.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("%w: read applied versions: %w", ErrMigrationFailed, err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return fmt.Errorf("%w: read applied versions: %w", ErrMigrationFailed, err)
	}

	todo := pending(m.steps, versions)
	for _, mig := range todo {
		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %03d_%s: %w", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
		m.logger.Info("applied migration", "version", mig.Version, "name", mig.Name)
	}

	if len(todo) == 0 {
		m.logger.Debug("schema up to date")
	}
	return nil
}

// pending returns the steps whose version is not in applied, lowest first.
func pending(steps []Migration, applied []int) []Migration {
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}

	var out []Migration
	for _, s := range steps {
		if _, ok := done[s.Version]; !ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: ANALYTICS EVENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS analytics_events (
    id BIGSERIAL PRIMARY KEY,
    event_type VARCHAR(64) NOT NULL,
    aggregate_id VARCHAR(128) NOT NULL DEFAULT '',
    user_id VARCHAR(64),
    payload JSONB NOT NULL DEFAULT '{}'::jsonb,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_analytics_events_type ON analytics_events(event_type);
CREATE INDEX IF NOT EXISTS idx_analytics_events_occurred ON analytics_events(occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_analytics_events_user ON analytics_events(user_id, occurred_at DESC)
    WHERE user_id IS NOT NULL;
`

const migration001Down = `
DROP TABLE IF EXISTS analytics_events;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: DAILY ROLLUP VIEW
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE OR REPLACE VIEW analytics_daily_counts AS
SELECT
    date_trunc('day', occurred_at) AS day,
    event_type,
    COUNT(*) AS total,
    COUNT(DISTINCT user_id) AS users
FROM analytics_events
GROUP BY 1, 2;
`

const migration002Down = `
DROP VIEW IF EXISTS analytics_daily_counts;
`

// Migrations returns the schema migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_analytics_events", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_analytics_daily_counts", UpSQL: migration002Up, DownSQL: migration002Down},
	}
}
