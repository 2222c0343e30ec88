package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	// Register Postgres SQL driver.
	_ "github.com/lib/pq"
	// Register SQLite SQL driver.
	_ "modernc.org/sqlite"

	"github.com/veldt-labs/gamehost/internal/metrics"
)

type sqlDialect string

const (
	dialectSQLite   sqlDialect = "sqlite"
	dialectPostgres sqlDialect = "postgres"
)

// SQLStore persists settings records in SQL backends (SQLite or Postgres),
// one row per (user, plugin) so per-plugin writes stay partitioned.
type SQLStore struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLiteStore creates a SQLite-backed settings store.
// dsn can be a file path (e.g. gamehost.db) or a SQLite DSN.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "gamehost-settings.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	s := &SQLStore{db: db, dialect: dialectSQLite}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore creates a Postgres-backed settings store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	s := &SQLStore{db: db, dialect: dialectPostgres}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("ping %s store: %w", s.dialect, err)
	}

	var ddl string
	switch s.dialect {
	case dialectPostgres:
		ddl = `
CREATE TABLE IF NOT EXISTS plugin_settings (
	user_id TEXT NOT NULL,
	plugin TEXT NOT NULL,
	data TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, plugin)
);`
	default:
		ddl = `
CREATE TABLE IF NOT EXISTS plugin_settings (
	user_id TEXT NOT NULL,
	plugin TEXT NOT NULL,
	data TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, plugin)
);`
	}

	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize %s store schema: %w", s.dialect, err)
	}
	return nil
}

// Get returns the full settings record for a user. Rows whose payload fails
// schema validation are skipped rather than failing the whole load, so one
// corrupted plugin record cannot take down reconciliation.
func (s *SQLStore) Get(ctx context.Context, userID string) (Record, error) {
	userID = NormalizeUser(userID)
	q := s.bind(`SELECT plugin, data FROM plugin_settings WHERE user_id = ?`)

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		metrics.StoreOps.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("load settings for %q: %w", userID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	rec := make(Record)
	for rows.Next() {
		var (
			name string
			data string
		)
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scan settings row: %w", err)
		}
		var payload any
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			continue
		}
		if err := validatePayload(name, payload); err != nil {
			continue
		}
		vals, ok := payload.(map[string]any)
		if !ok {
			continue
		}
		rec[name] = vals
	}
	if err := rows.Err(); err != nil {
		metrics.StoreOps.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("load settings for %q: %w", userID, err)
	}
	metrics.StoreOps.WithLabelValues("get", "ok").Inc()
	return rec, nil
}

// Put upserts every plugin sub-record in rec inside one transaction. Plugins
// absent from rec keep their existing rows.
func (s *SQLStore) Put(ctx context.Context, userID string, rec Record) error {
	userID = NormalizeUser(userID)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.StoreOps.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("begin settings write: %w", err)
	}
	for name, vals := range rec {
		if err := s.upsert(ctx, tx, userID, name, vals); err != nil {
			_ = tx.Rollback()
			metrics.StoreOps.WithLabelValues("put", "error").Inc()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		metrics.StoreOps.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("commit settings write: %w", err)
	}
	metrics.StoreOps.WithLabelValues("put", "ok").Inc()
	return nil
}

// PutPlugin upserts a single plugin's settings row.
func (s *SQLStore) PutPlugin(ctx context.Context, userID, pluginName string, values map[string]any) error {
	userID = NormalizeUser(userID)
	if err := s.upsert(ctx, s.db, userID, pluginName, values); err != nil {
		metrics.StoreOps.WithLabelValues("put_plugin", "error").Inc()
		return err
	}
	metrics.StoreOps.WithLabelValues("put_plugin", "ok").Inc()
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) upsert(ctx context.Context, db execer, userID, pluginName string, values map[string]any) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode settings for plugin %q: %w", pluginName, err)
	}
	q := s.bind(`
INSERT INTO plugin_settings(user_id, plugin, data, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(user_id, plugin) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if _, err := db.ExecContext(ctx, q, userID, pluginName, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("write settings for plugin %q: %w", pluginName, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) bind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var (
		b      strings.Builder
		argNum = 1
	)
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			fmt.Fprintf(&b, "$%d", argNum)
			argNum++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
