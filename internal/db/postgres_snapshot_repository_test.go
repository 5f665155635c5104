package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/attrengine/internal/attribute"
	"github.com/udisondev/attrengine/internal/db"
	"github.com/udisondev/attrengine/internal/registry"
	"github.com/udisondev/attrengine/internal/testutil"
)

func TestPostgresSnapshotRepository(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := db.NewPostgresSnapshotRepository(pool)
	ctx := testutil.ContextWithTimeout(t, defaultTimeout)

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "warrior", testutil.WarriorSnapshot()))

		got, err := repo.Load(ctx, "warrior")
		require.NoError(t, err)
		assert.Equal(t, testutil.WarriorSnapshot(), got)
	})

	t.Run("save replaces", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "warrior", map[attribute.ID]float64{attribute.Attack: 70}))

		got, err := repo.Load(ctx, "warrior")
		require.NoError(t, err)
		assert.Equal(t, map[attribute.ID]float64{attribute.Attack: 70}, got)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.Load(ctx, "ghost")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("entity ids and delete", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "mage", testutil.MageSnapshot()))

		ids, err := repo.EntityIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"mage", "warrior"}, ids)

		require.NoError(t, repo.Delete(ctx, "mage"))
		ids, err = repo.EntityIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"warrior"}, ids)
	})

	t.Run("snapshot service", func(t *testing.T) {
		svc := db.NewSnapshotService(repo, 4)
		saved, err := svc.SaveAll(ctx, populatedRegistry())
		require.NoError(t, err)
		assert.Equal(t, 2, saved)

		restored := registry.New()
		loaded, err := svc.LoadAll(ctx, restored)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded)
		assert.Equal(t, testutil.MageSnapshot(), restored.Snapshot("mage"))
	})
}
