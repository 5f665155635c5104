package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/attrengine/internal/attribute"
	"github.com/udisondev/attrengine/internal/db"
	"github.com/udisondev/attrengine/internal/registry"
	"github.com/udisondev/attrengine/internal/testutil"
)

const defaultTimeout = 10 * time.Second

// failingRepository fails every call except the ones it delegates.
type failingRepository struct {
	db.SnapshotRepository
	failSave bool
	failList bool
}

func (r *failingRepository) Save(ctx context.Context, entityID string, values map[attribute.ID]float64) error {
	if r.failSave {
		return testutil.ErrSimulated
	}
	return r.SnapshotRepository.Save(ctx, entityID, values)
}

func (r *failingRepository) EntityIDs(ctx context.Context) ([]string, error) {
	if r.failList {
		return nil, testutil.ErrSimulated
	}
	return r.SnapshotRepository.EntityIDs(ctx)
}

func populatedRegistry() *registry.Registry {
	r := registry.New()
	r.RegisterFromSnapshot("warrior", testutil.WarriorSnapshot())
	r.RegisterFromSnapshot("mage", testutil.MageSnapshot())
	return r
}

func TestSnapshotService_SaveAllLoadAll(t *testing.T) {
	repo, _ := openTestSQLite(t)
	svc := db.NewSnapshotService(repo, 2)
	ctx := testutil.ContextWithTimeout(t, defaultTimeout)

	saved, err := svc.SaveAll(ctx, populatedRegistry())
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	restored := registry.New()
	loaded, err := svc.LoadAll(ctx, restored)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	assert.Equal(t, []string{"mage", "warrior"}, restored.EntityIDs())
	assert.Equal(t, testutil.WarriorSnapshot(), restored.Snapshot("warrior"))
	assert.Equal(t, testutil.MageSnapshot(), restored.Snapshot("mage"))
}

func TestSnapshotService_SaveEntity(t *testing.T) {
	repo, _ := openTestSQLite(t)
	svc := db.NewSnapshotService(repo, 1)
	ctx := testutil.ContextWithTimeout(t, defaultTimeout)
	src := populatedRegistry()

	require.NoError(t, svc.SaveEntity(ctx, src, "mage"))
	assert.ErrorIs(t, svc.SaveEntity(ctx, src, "ghost"), db.ErrNotFound)

	dst := registry.New()
	attrs, err := svc.LoadEntity(ctx, dst, "mage")
	require.NoError(t, err)
	assert.Equal(t, 340.0, attrs.Get(attribute.Qi))

	_, err = svc.LoadEntity(ctx, dst, "warrior")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSnapshotService_SaveAllError(t *testing.T) {
	repo, _ := openTestSQLite(t)
	svc := db.NewSnapshotService(&failingRepository{SnapshotRepository: repo, failSave: true}, 4)

	saved, err := svc.SaveAll(testutil.ContextWithTimeout(t, defaultTimeout), populatedRegistry())
	assert.ErrorIs(t, err, testutil.ErrSimulated)
	assert.Zero(t, saved)
}

func TestSnapshotService_LoadAllListError(t *testing.T) {
	repo, _ := openTestSQLite(t)
	svc := db.NewSnapshotService(&failingRepository{SnapshotRepository: repo, failList: true}, 1)

	_, err := svc.LoadAll(testutil.ContextWithTimeout(t, defaultTimeout), registry.New())
	assert.ErrorIs(t, err, testutil.ErrSimulated)
}

func TestSnapshotService_SaveAllEmptyRegistry(t *testing.T) {
	repo, _ := openTestSQLite(t)
	svc := db.NewSnapshotService(repo, 0)

	saved, err := svc.SaveAll(testutil.ContextWithTimeout(t, defaultTimeout), registry.New())
	require.NoError(t, err)
	assert.Zero(t, saved)
}
