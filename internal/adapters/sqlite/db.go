// Package sqlite implements the document store and the query sample store on SQLite.
package sqlite

import (
	"context"
	"database/sql"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

var migrations = []struct {
	version int
	sql     string
}{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS documents (
    collection  TEXT NOT NULL,
    tenant_id   TEXT NOT NULL DEFAULT '',
    id          TEXT NOT NULL,
    body        TEXT NOT NULL,
    updated_at  INTEGER NOT NULL,
    PRIMARY KEY (collection, tenant_id, id)
);

CREATE TABLE IF NOT EXISTS query_samples (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    collection          TEXT NOT NULL DEFAULT '',
    tenant_id           TEXT NOT NULL DEFAULT '',
    latency_ns          INTEGER NOT NULL,
    documents_read      INTEGER NOT NULL,
    documents_returned  INTEGER NOT NULL,
    cache_hit           INTEGER NOT NULL,
    index_used          INTEGER NOT NULL,
    description         TEXT NOT NULL DEFAULT '',
    suggestions         TEXT NOT NULL DEFAULT '[]',
    ts                  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_samples_ts ON query_samples(ts);
`,
	},
}

// Open opens (or creates) the SQLite database at path and applies pending migrations.
// The pool holds a single connection so writers never contend inside the process.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, openFailed(err, path)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{`PRAGMA journal_mode=WAL`, `PRAGMA busy_timeout=5000`} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, openFailed(err, path)
		}
	}

	if err := migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, openFailed(err, path)
	}
	return db, nil
}

func openFailed(err error, path string) error {
	return zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", path)
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_versions (
    version    INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL DEFAULT (unixepoch())
)`)
	if err != nil {
		return zerr.Wrap(err, "failed to create schema_versions")
	}

	for _, m := range migrations {
		var count int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_versions WHERE version = ?`, m.version).Scan(&count); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to check migration"), "version", m.version)
		}
		if count > 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, m.sql); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to apply migration"), "version", m.version)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_versions(version) VALUES(?)`, m.version); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to record migration"), "version", m.version)
		}
	}
	return nil
}
