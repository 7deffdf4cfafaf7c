package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Open connects to the SQLite file at path and applies the connection pragmas. The pool is
// limited to one connection so in-memory databases and transactions share a single handle.
func Open(ctx context.Context, path string, logger *zap.Logger) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	logger.Info("opened sqlite store", zap.String("path", path))
	return db, nil
}

// EnsureSchema creates the document store tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		primary_key TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		scheduled_publish_at TEXT,
		published_at TEXT,
		is_trashed INTEGER NOT NULL DEFAULT 0,
		trashed_at TEXT,
		payload TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		updated_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_kind_updated ON documents(kind, updated_at);

	CREATE TABLE IF NOT EXISTS document_keys (
		kind TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		document_id TEXT NOT NULL,
		PRIMARY KEY (kind, field, value)
	);
	CREATE INDEX IF NOT EXISTS idx_document_keys_document ON document_keys(document_id);

	CREATE TABLE IF NOT EXISTS document_versions (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		version_number INTEGER NOT NULL,
		snapshot TEXT NOT NULL,
		change_note TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE(document_id, version_number)
	);

	CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain TEXT NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		before_json TEXT,
		after_json TEXT,
		actor_id TEXT NOT NULL DEFAULT '',
		actor_name TEXT NOT NULL,
		actor_ip TEXT NOT NULL,
		actor_user_agent TEXT NOT NULL DEFAULT '',
		environment TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_events_created ON audit_events(created_at);

	CREATE TABLE IF NOT EXISTS promotion_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_environment TEXT NOT NULL,
		target_environment TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		version_number INTEGER NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		promoted_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
