package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/attrengine/internal/attribute"
)

// SnapshotSource exposes base-value snapshots of live entities.
// *registry.Registry implements it.
type SnapshotSource interface {
	EntityIDs() []string
	Snapshot(entityID string) map[attribute.ID]float64
}

// SnapshotSink registers entities from stored snapshots.
// *registry.Registry implements it.
type SnapshotSink interface {
	RegisterFromSnapshot(entityID string, values map[attribute.ID]float64) *attribute.Collection
}

// SnapshotService moves snapshots between the registry and a repository.
//
// The registry is single-threaded, so snapshots are captured on the calling
// goroutine first; only repository writes run in parallel.
type SnapshotService struct {
	repo        SnapshotRepository
	concurrency int
}

// NewSnapshotService creates a new service. concurrency bounds parallel saves.
func NewSnapshotService(repo SnapshotRepository, concurrency int) *SnapshotService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SnapshotService{repo: repo, concurrency: concurrency}
}

// SaveEntity persists one entity.
func (s *SnapshotService) SaveEntity(ctx context.Context, src SnapshotSource, entityID string) error {
	values := src.Snapshot(entityID)
	if values == nil {
		return fmt.Errorf("saving entity %q: %w", entityID, ErrNotFound)
	}
	return s.repo.Save(ctx, entityID, values)
}

// SaveAll persists every entity of src and returns how many were saved.
func (s *SnapshotService) SaveAll(ctx context.Context, src SnapshotSource) (int, error) {
	ids := src.EntityIDs()
	snapshots := make([]map[attribute.ID]float64, len(ids))
	for i, id := range ids {
		snapshots[i] = src.Snapshot(id)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := s.repo.Save(gctx, id, snapshots[i]); err != nil {
				return fmt.Errorf("saving entity %q: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	slog.Info("entity snapshots saved", "entities", len(ids))
	return len(ids), nil
}

// LoadEntity registers entityID from its stored snapshot.
func (s *SnapshotService) LoadEntity(ctx context.Context, dst SnapshotSink, entityID string) (*attribute.Collection, error) {
	values, err := s.repo.Load(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return dst.RegisterFromSnapshot(entityID, values), nil
}

// LoadAll registers every stored entity into dst and returns how many were loaded.
func (s *SnapshotService) LoadAll(ctx context.Context, dst SnapshotSink) (int, error) {
	ids, err := s.repo.EntityIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing stored entities: %w", err)
	}

	loaded := 0
	for _, id := range ids {
		if _, err := s.LoadEntity(ctx, dst, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // deleted between listing and loading
			}
			return loaded, fmt.Errorf("loading entity %q: %w", id, err)
		}
		loaded++
	}

	slog.Info("entity snapshots loaded", "entities", loaded)
	return loaded, nil
}
