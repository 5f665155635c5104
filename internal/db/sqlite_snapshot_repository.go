package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/udisondev/attrengine/internal/attribute"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS entity_attributes (
	entity_id  TEXT NOT NULL,
	attribute  TEXT NOT NULL,
	base_value REAL NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (entity_id, attribute)
)`

// SQLiteSnapshotRepository implements SnapshotRepository on an embedded SQLite file.
type SQLiteSnapshotRepository struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSnapshotRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating entity_attributes table: %w", err)
	}
	return &SQLiteSnapshotRepository{db: db}, nil
}

// Close closes the database.
func (r *SQLiteSnapshotRepository) Close() error {
	return r.db.Close()
}

// Load returns the stored base values of entityID.
func (r *SQLiteSnapshotRepository) Load(ctx context.Context, entityID string) (map[attribute.ID]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT attribute, base_value FROM entity_attributes WHERE entity_id = ? ORDER BY attribute`,
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying attributes for entity %q: %w", entityID, err)
	}
	defer func() { _ = rows.Close() }()

	var result []AttributeRow
	for rows.Next() {
		var row AttributeRow
		if err := rows.Scan(&row.Attribute, &row.BaseValue); err != nil {
			return nil, fmt.Errorf("scanning attribute row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attribute rows: %w", err)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("loading entity %q: %w", entityID, ErrNotFound)
	}
	return decodeSnapshot(entityID, result), nil
}

// Save replaces the snapshot of entityID in one transaction.
func (r *SQLiteSnapshotRepository) Save(ctx context.Context, entityID string, values map[attribute.ID]float64) (retErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for entity %q: %w", entityID, err)
	}
	defer func() {
		if retErr == nil {
			return
		}
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("snapshot rollback failed", "entityID", entityID, "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entity_attributes WHERE entity_id = ?`, entityID); err != nil {
		return fmt.Errorf("deleting old attributes for entity %q: %w", entityID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entity_attributes (entity_id, attribute, base_value, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, row := range encodeSnapshot(values) {
		if _, err := stmt.ExecContext(ctx, entityID, row.Attribute, row.BaseValue, now); err != nil {
			return fmt.Errorf("inserting attribute %s for entity %q: %w", row.Attribute, entityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot of entity %q: %w", entityID, err)
	}
	return nil
}

// Delete removes the snapshot of entityID.
func (r *SQLiteSnapshotRepository) Delete(ctx context.Context, entityID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM entity_attributes WHERE entity_id = ?`, entityID); err != nil {
		return fmt.Errorf("deleting attributes for entity %q: %w", entityID, err)
	}
	return nil
}

// EntityIDs lists every entity with a stored snapshot.
func (r *SQLiteSnapshotRepository) EntityIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT entity_id FROM entity_attributes ORDER BY entity_id`)
	if err != nil {
		return nil, fmt.Errorf("querying entity ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning entity id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity ids: %w", err)
	}
	return ids, nil
}
