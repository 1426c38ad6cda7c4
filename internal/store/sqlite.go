package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	doc        TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	PRIMARY KEY (collection, id)
)`

// SQLiteStore is a DocumentStore backed by a single sqlite database. It keeps
// whole documents as JSON, one row per (collection, id).
type SQLiteStore struct {
	db *sql.DB
}

var _ DocumentStore = (*SQLiteStore)(nil)

// OpenSQLite opens (and if needed initializes) the store at path. Use
// ":memory:" for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// A single connection serializes writers, which keeps MergeUpsert's
	// read-modify-write atomic without SQLITE_BUSY handling.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("initialize store schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the raw document at id or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var doc string

	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}

	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	return json.RawMessage(doc), nil
}

// Upsert stores the document at id, replacing any prior content whole.
func (s *SQLiteStore) Upsert(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET
			doc = excluded.doc,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		collection, id, string(data))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}

	return nil
}

// MergeUpsert runs the create-or-merge cycle inside one immediate transaction,
// so concurrent merges on the same id cannot interleave.
func (s *SQLiteStore) MergeUpsert(ctx context.Context, collection, id string, initial any, merge MergeFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge %s/%s: %w", collection, id, err)
	}
	defer tx.Rollback()

	var existing string

	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&existing)

	var next any

	switch {
	case errors.Is(err, sql.ErrNoRows):
		next = initial
	case err != nil:
		return fmt.Errorf("read for merge %s/%s: %w", collection, id, err)
	default:
		next, err = merge(json.RawMessage(existing))
		if err != nil {
			return fmt.Errorf("merge %s/%s: %w", collection, id, err)
		}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET
			doc = excluded.doc,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		collection, id, string(data))
	if err != nil {
		return fmt.Errorf("store merged %s/%s: %w", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge %s/%s: %w", collection, id, err)
	}

	return nil
}

// Count reports the number of documents in a collection. It exists for
// operational checks and tests; it is not part of the DocumentStore contract.
func (s *SQLiteStore) Count(ctx context.Context, collection string) (int, error) {
	var n int

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}

	return n, nil
}
