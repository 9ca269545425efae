// Package database persists the registered storage roots and the provider
// metadata consulted for size correction. It is backed by an embedded SQLite
// database so a restart restores the root set in registration order.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/stremer/stremerd"
)

const schema = `
CREATE TABLE IF NOT EXISTS storage_roots (
	name     TEXT PRIMARY KEY,
	path     TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS media_entries (
	root_name   TEXT NOT NULL,
	path        TEXT NOT NULL,
	size_bytes  INTEGER NOT NULL,
	modified_ms INTEGER NOT NULL,
	mime        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (root_name, path)
);
`

// DB wraps the embedded database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and applies the
// schema. Use ":memory:" for an ephemeral database in tests.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// SaveRoot appends a root to the persisted set. Returns ErrExists if the
// name is already registered.
func (d *DB) SaveRoot(ctx context.Context, root stremerd.StorageRoot) error {
	res, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO storage_roots (name, path, position)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM storage_roots))`,
		root.Name, root.Path,
	)
	if err != nil {
		return fmt.Errorf("save root: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save root: %w", err)
	}
	if n == 0 {
		return stremerd.ErrExists
	}
	return nil
}

// ListRoots returns every persisted root in registration order.
func (d *DB) ListRoots(ctx context.Context) ([]stremerd.StorageRoot, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name, path FROM storage_roots ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list roots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var roots []stremerd.StorageRoot
	for rows.Next() {
		var r stremerd.StorageRoot
		if err := rows.Scan(&r.Name, &r.Path); err != nil {
			return nil, fmt.Errorf("list roots: scan: %w", err)
		}
		roots = append(roots, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roots: %w", err)
	}
	return roots, nil
}

// DeleteRoot removes a persisted root and its recorded metadata. Returns
// ErrNotFound if the name is not registered.
func (d *DB) DeleteRoot(ctx context.Context, name string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM storage_roots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete root: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete root: %w", err)
	}
	if n == 0 {
		return stremerd.ErrNotFound
	}

	if _, err := d.db.ExecContext(ctx, `DELETE FROM media_entries WHERE root_name = ?`, name); err != nil {
		return fmt.Errorf("delete root entries: %w", err)
	}
	return nil
}

// Index returns the provider metadata view for one root, satisfying the
// scoped backend's size-correction contract.
func (d *DB) Index(rootName string) *RootIndex {
	return &RootIndex{db: d.db, root: rootName}
}

// RootIndex is the per-root provider metadata table view.
type RootIndex struct {
	db   *sql.DB
	root string
}

// SizeOf returns the recorded size column for a path.
func (i *RootIndex) SizeOf(ctx context.Context, vpath string) (int64, error) {
	var size int64
	err := i.db.QueryRowContext(ctx,
		`SELECT size_bytes FROM media_entries WHERE root_name = ? AND path = ?`,
		i.root, vpath,
	).Scan(&size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, stremerd.ErrNotFound
		}
		return 0, fmt.Errorf("size of: %w", err)
	}
	return size, nil
}

// Record upserts provider metadata for a path.
func (i *RootIndex) Record(ctx context.Context, vpath string, size, modifiedMs int64, mime string) error {
	_, err := i.db.ExecContext(ctx,
		`INSERT INTO media_entries (root_name, path, size_bytes, modified_ms, mime)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (root_name, path) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			modified_ms = excluded.modified_ms,
			mime = excluded.mime`,
		i.root, vpath, size, modifiedMs, mime,
	)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	return nil
}

// Forget drops recorded metadata for a path and everything below it.
func (i *RootIndex) Forget(ctx context.Context, vpath string) error {
	_, err := i.db.ExecContext(ctx,
		`DELETE FROM media_entries WHERE root_name = ? AND (path = ? OR path LIKE ? || '/%')`,
		i.root, vpath, vpath,
	)
	if err != nil {
		return fmt.Errorf("forget entry: %w", err)
	}
	return nil
}
