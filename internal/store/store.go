// Package store persists the logical-session index: which caller-facing
// session ids exist, which external session they bound to last, and when
// they were last touched. The multiplexer writes it best-effort; the CLI
// reads it to list resumable sessions across process restarts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/devpane/workbench/internal/log"
)

// ErrNotFound is returned when a logical session id has no index entry.
var ErrNotFound = errors.New("session index entry not found")

// Record is one session index entry.
type Record struct {
	LogicalID  string
	ExternalID string
	Model      string
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Index is a sqlite-backed session index.
type Index struct {
	db *sql.DB
}

// Open opens (and migrates) the index database at path, creating parent
// directories as needed. Use ":memory:" for an ephemeral index.
func Open(ctx context.Context, path string) (*Index, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping index db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate index db: %w", err)
	}

	log.Debug(log.CatStore, "session index opened", "path", path)
	return &Index{db: db}, nil
}

// Close releases the database handle.
func (i *Index) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	return i.db.Close()
}

// RecordBinding upserts the entry for a logical session. CreatedAt is
// preserved on update; LastUsedAt always advances.
func (i *Index) RecordBinding(ctx context.Context, logicalID, externalID, model string) error {
	now := time.Now().UnixMilli()
	_, err := i.db.ExecContext(ctx,
		`INSERT INTO session_index (logical_id, external_id, model, created_at, last_used_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(logical_id) DO UPDATE SET
			external_id = excluded.external_id,
			model = excluded.model,
			last_used_at = excluded.last_used_at`,
		logicalID, externalID, model, now, now,
	)
	if err != nil {
		return fmt.Errorf("record session binding: %w", err)
	}
	return nil
}

// Touch advances LastUsedAt for a logical session.
// Returns ErrNotFound when the id has no entry.
func (i *Index) Touch(ctx context.Context, logicalID string) error {
	result, err := i.db.ExecContext(ctx,
		`UPDATE session_index SET last_used_at = ? WHERE logical_id = ?`,
		time.Now().UnixMilli(), logicalID,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch session rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the entry for a logical session id.
func (i *Index) Get(ctx context.Context, logicalID string) (*Record, error) {
	row := i.db.QueryRowContext(ctx,
		`SELECT logical_id, external_id, model, created_at, last_used_at
		 FROM session_index WHERE logical_id = ?`,
		logicalID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session index entry: %w", err)
	}
	return rec, nil
}

// List returns all entries, most recently used first.
func (i *Index) List(ctx context.Context) ([]Record, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT logical_id, external_id, model, created_at, last_used_at
		 FROM session_index ORDER BY last_used_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list session index: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session index row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session index rows: %w", err)
	}
	return records, nil
}

// Delete removes the entry for a logical session id. Deleting a missing
// entry is not an error.
func (i *Index) Delete(ctx context.Context, logicalID string) error {
	_, err := i.db.ExecContext(ctx,
		`DELETE FROM session_index WHERE logical_id = ?`, logicalID,
	)
	if err != nil {
		return fmt.Errorf("delete session index entry: %w", err)
	}
	return nil
}

func scanRecord(scanner interface{ Scan(...any) error }) (*Record, error) {
	var rec Record
	var createdAt, lastUsedAt int64
	err := scanner.Scan(&rec.LogicalID, &rec.ExternalID, &rec.Model, &createdAt, &lastUsedAt)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(createdAt)
	rec.LastUsedAt = time.UnixMilli(lastUsedAt)
	return &rec, nil
}
