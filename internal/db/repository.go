package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/udisondev/attrengine/internal/attribute"
)

// ErrNotFound is returned when no snapshot exists for an entity.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotRepository stores base-value snapshots keyed by entity id.
// Attributes are persisted by their stable catalog name.
type SnapshotRepository interface {
	// Load returns the stored snapshot or ErrNotFound.
	Load(ctx context.Context, entityID string) (map[attribute.ID]float64, error)
	// Save replaces the stored snapshot of entityID.
	Save(ctx context.Context, entityID string, values map[attribute.ID]float64) error
	// Delete removes the snapshot; deleting a missing snapshot is not an error.
	Delete(ctx context.Context, entityID string) error
	// EntityIDs lists every entity with a stored snapshot, in lexical order.
	EntityIDs(ctx context.Context) ([]string, error)
}

// AttributeRow is one persisted base value.
type AttributeRow struct {
	Attribute string
	BaseValue float64
}

// encodeSnapshot converts a snapshot into rows ordered by attribute id.
// Unknown ids are dropped.
func encodeSnapshot(values map[attribute.ID]float64) []AttributeRow {
	rows := make([]AttributeRow, 0, len(values))
	for _, id := range attribute.All() {
		v, ok := values[id]
		if !ok {
			continue
		}
		rows = append(rows, AttributeRow{Attribute: id.String(), BaseValue: v})
	}
	return rows
}

// decodeSnapshot converts rows back into a snapshot, skipping names no longer
// in the catalog.
func decodeSnapshot(entityID string, rows []AttributeRow) map[attribute.ID]float64 {
	values := make(map[attribute.ID]float64, len(rows))
	for _, row := range rows {
		id, ok := attribute.Lookup(row.Attribute)
		if !ok {
			slog.Warn("skipping unknown persisted attribute",
				"entityID", entityID,
				"attribute", row.Attribute)
			continue
		}
		values[id] = row.BaseValue
	}
	return values
}
