package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/attrengine/internal/attribute"
)

// PostgresSnapshotRepository implements SnapshotRepository on the entity_attributes table.
type PostgresSnapshotRepository struct {
	db *pgxpool.Pool
}

// NewPostgresSnapshotRepository creates a new PostgresSnapshotRepository.
func NewPostgresSnapshotRepository(db *pgxpool.Pool) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Load returns the stored base values of entityID.
func (r *PostgresSnapshotRepository) Load(ctx context.Context, entityID string) (map[attribute.ID]float64, error) {
	query := `
		SELECT attribute, base_value
		FROM entity_attributes
		WHERE entity_id = $1
		ORDER BY attribute
	`

	rows, err := r.db.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("querying attributes for entity %q: %w", entityID, err)
	}
	defer rows.Close()

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

// SaveTx replaces the snapshot of entityID within an existing transaction.
func (r *PostgresSnapshotRepository) SaveTx(ctx context.Context, tx pgx.Tx, entityID string, values map[attribute.ID]float64) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM entity_attributes WHERE entity_id = $1`,
		entityID,
	); err != nil {
		return fmt.Errorf("deleting old attributes for entity %q: %w", entityID, err)
	}

	encoded := encodeSnapshot(values)
	if len(encoded) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(encoded))
	for _, row := range encoded {
		rows = append(rows, []any{entityID, row.Attribute, row.BaseValue})
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"entity_attributes"},
		[]string{"entity_id", "attribute", "base_value"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("inserting attributes for entity %q: %w", entityID, err)
	}

	return nil
}

// Save replaces the snapshot of entityID using a standalone transaction.
func (r *PostgresSnapshotRepository) Save(ctx context.Context, entityID string, values map[attribute.ID]float64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for entity %q: %w", entityID, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("snapshot rollback failed", "entityID", entityID, "error", err)
		}
	}()

	if err := r.SaveTx(ctx, tx, entityID, values); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot of entity %q: %w", entityID, err)
	}

	slog.Debug("saved entity attributes", "entityID", entityID, "attributes", len(values))
	return nil
}

// Delete removes the snapshot of entityID.
func (r *PostgresSnapshotRepository) Delete(ctx context.Context, entityID string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM entity_attributes WHERE entity_id = $1`,
		entityID,
	); err != nil {
		return fmt.Errorf("deleting attributes for entity %q: %w", entityID, err)
	}
	return nil
}

// EntityIDs lists every entity with a stored snapshot.
func (r *PostgresSnapshotRepository) EntityIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT entity_id FROM entity_attributes ORDER BY entity_id`)
	if err != nil {
		return nil, fmt.Errorf("querying entity ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting entity ids: %w", err)
	}
	return ids, nil
}
