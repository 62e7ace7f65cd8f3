// Package graph provides the SQLite-backed property-graph store: ContextItem
// and File nodes joined by typed edges. The store is deliberately generic —
// it enforces no tree invariants of its own; those belong to the tree engine.
package graph

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/othala/internal/apperr"
)

// Edge kinds.
const (
	EdgeParentOf = "PARENT_OF"
	EdgeHasFile  = "HAS_FILE"
)

// RootID is the id of the bootstrap root node. It always exists.
const RootID = "root"

// RootName is the display name of the root node.
const RootName = "KnowledgeTree Root"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	is_folder      INTEGER NOT NULL DEFAULT 0,
	is_attached    INTEGER NOT NULL DEFAULT 0,
	read_only      INTEGER NOT NULL DEFAULT 0,
	content        TEXT NOT NULL DEFAULT '',
	content_format TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS edges (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	kind   TEXT NOT NULL,
	UNIQUE(source, target, kind)
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source, kind);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target, kind);

CREATE TABLE IF NOT EXISTS files (
	id                TEXT PRIMARY KEY,
	filename          TEXT NOT NULL,
	original_filename TEXT NOT NULL DEFAULT ''
);
`

// Store wraps a sql.DB with graph-specific operations.
type Store struct {
	conn *sql.DB
}

// Querier is the query surface shared by *sql.DB and *sql.Tx, so every
// record-level operation can run either standalone or inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (or creates) the SQLite graph database, applies the schema,
// and ensures the root node exists.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("graph: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("graph: ping: %w", apperr.ErrStorageUnavailable)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("graph: apply schema: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.ensureRoot(context.Background(), conn); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping reports whether the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("graph: ping: %w", apperr.ErrStorageUnavailable)
	}
	return nil
}

// DB returns the plain connection for read-only operations that do not
// need an explicit transaction scope.
func (s *Store) DB() Querier {
	return s.conn
}

// WithTx runs fn inside a single transaction. The connection is opened with
// _txlock=immediate, so the write lock is taken up front and every
// read-check-write sequence inside fn is atomic with respect to other
// callers. Rollback on any error path, commit otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("graph: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("graph: commit: %w", err)
	}
	return nil
}

// ensureRoot creates the bootstrap root folder if it is missing.
func (s *Store) ensureRoot(ctx context.Context, q Querier) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO nodes (id, name, is_folder, is_attached, read_only, content, content_format)
		VALUES (?, ?, 1, 0, 0, '# Welcome to KnowledgeTree', 'markdown')
	`, RootID, RootName)
	if err != nil {
		return fmt.Errorf("graph: ensure root: %w", err)
	}
	return nil
}

// Wipe deletes every node, edge, and file record, then recreates the root.
func (s *Store) Wipe(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM edges`,
			`DELETE FROM files`,
			`DELETE FROM nodes`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("graph: wipe: %w", err)
			}
		}
		return s.ensureRoot(ctx, tx)
	})
}
