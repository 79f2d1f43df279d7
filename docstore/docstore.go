// Package docstore persists encoded canvas documents and exported
// assets in a local SQLite database.
//
// DB satisfies ink.BlobStore, so a Session can save and restore
// drawings through it directly:
//
//	db, err := docstore.Open("canvases.db")
//	// ...
//	sess := ink.NewSession(src, w, h, ink.WithBlobStore(db, "canvas-1"))
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/inklab/ink"
)

// ErrNotFound is returned when no row exists for the requested key.
var ErrNotFound = errors.New("docstore: not found")

const schema = `
CREATE TABLE IF NOT EXISTS canvas_document (
	canvas_id  TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS canvas_asset (
	id         TEXT PRIMARY KEY,
	canvas_id  TEXT NOT NULL,
	mime       TEXT NOT NULL,
	data       BLOB NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_canvas_asset_canvas ON canvas_asset(canvas_id);
`

// DB is a document store backed by a SQLite file. Safe for concurrent
// use; SQLite serializes writers internally.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. The path ":memory:" opens a private in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database exists per connection; a second pooled
	// connection would see an empty schema.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	ink.Logger().Info("document store opened", "path", path)
	return &DB{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// SaveDocument upserts the encoded document for a canvas. Together
// with LoadDocument this satisfies ink.BlobStore.
func (d *DB) SaveDocument(ctx context.Context, canvasID string, data []byte) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO canvas_document (canvas_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(canvas_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, canvasID, data, d.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save document %q: %w", canvasID, err)
	}
	ink.Logger().Debug("document saved", "canvas_id", canvasID, "bytes", len(data))
	return nil
}

// LoadDocument returns the encoded document for a canvas, or
// ErrNotFound when none was saved.
func (d *DB) LoadDocument(ctx context.Context, canvasID string) ([]byte, error) {
	var data []byte
	err := d.db.QueryRowContext(ctx,
		`SELECT data FROM canvas_document WHERE canvas_id = ?`, canvasID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %q: %w", canvasID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load document %q: %w", canvasID, err)
	}
	return data, nil
}

// DeleteDocument removes a canvas document and its stored assets.
// Deleting a missing document is not an error.
func (d *DB) DeleteDocument(ctx context.Context, canvasID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete document %q: %w", canvasID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM canvas_asset WHERE canvas_id = ?`, canvasID); err != nil {
		return fmt.Errorf("delete assets for %q: %w", canvasID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM canvas_document WHERE canvas_id = ?`, canvasID); err != nil {
		return fmt.Errorf("delete document %q: %w", canvasID, err)
	}
	return tx.Commit()
}

// DocumentInfo describes one stored canvas document.
type DocumentInfo struct {
	CanvasID  string
	Bytes     int
	UpdatedAt time.Time
}

// ListDocuments returns all stored documents, most recently updated
// first.
func (d *DB) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT canvas_id, length(data), updated_at
		FROM canvas_document
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		var updated int64
		if err := rows.Scan(&info.CanvasID, &info.Bytes, &updated); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		info.UpdatedAt = time.UnixMilli(updated)
		out = append(out, info)
	}
	return out, rows.Err()
}

// SaveAsset stores an exported artifact (PNG, PDF) for a canvas.
func (d *DB) SaveAsset(ctx context.Context, id, canvasID, mime string, data []byte) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO canvas_asset (id, canvas_id, mime, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET mime = excluded.mime, data = excluded.data
	`, id, canvasID, mime, data, d.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save asset %q: %w", id, err)
	}
	ink.Logger().Debug("asset saved", "asset_id", id, "canvas_id", canvasID, "mime", mime)
	return nil
}

// LoadAsset returns a stored asset's MIME type and bytes, or
// ErrNotFound.
func (d *DB) LoadAsset(ctx context.Context, id string) (mime string, data []byte, err error) {
	err = d.db.QueryRowContext(ctx,
		`SELECT mime, data FROM canvas_asset WHERE id = ?`, id).Scan(&mime, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("asset %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", nil, fmt.Errorf("load asset %q: %w", id, err)
	}
	return mime, data, nil
}
