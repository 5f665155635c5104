package attribute_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/attrengine/internal/attribute"
)

func TestCatalog_EveryIDHasUniqueName(t *testing.T) {
	seen := make(map[string]attribute.ID)
	for _, id := range attribute.All() {
		meta := attribute.MetaFor(id)
		require.NotEmpty(t, meta.Name, "id %d has no name", id)
		require.NotEmpty(t, meta.DisplayName, "id %s has no display name", id)
		assert.NotEqual(t, attribute.CategoryNone, meta.Category, "id %s has no category", id)

		prev, dup := seen[meta.Name]
		require.False(t, dup, "name %q shared by %d and %d", meta.Name, prev, id)
		seen[meta.Name] = id

		got, ok := attribute.Lookup(meta.Name)
		require.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestCatalog_UnknownID(t *testing.T) {
	unknown := attribute.ID(9999)

	assert.False(t, unknown.Valid())
	assert.Equal(t, "unknown", unknown.String())
	assert.Equal(t, attribute.Meta{}, attribute.MetaFor(unknown))

	_, ok := attribute.Lookup("mana")
	assert.False(t, ok)
}

func TestCatalog_ResourcePairsAreSymmetric(t *testing.T) {
	pairs := attribute.ResourcePairs()
	require.Len(t, pairs, 3)

	for _, p := range pairs {
		cur := attribute.MetaFor(p.Current)
		maxMeta := attribute.MetaFor(p.Max)
		assert.True(t, cur.IsResourceCurrent(), "%s", p.Current)
		assert.True(t, maxMeta.IsResourceMax(), "%s", p.Max)
		assert.Equal(t, p.Current, maxMeta.Pair)
		assert.Equal(t, cur.Category, maxMeta.Category)
	}
	assert.Contains(t, pairs, attribute.ResourcePair{Current: attribute.HP, Max: attribute.HPMax})
}

func TestFlags_Has(t *testing.T) {
	meta := attribute.MetaFor(attribute.CombatPower)

	assert.True(t, meta.Flags.Has(attribute.Derived))
	assert.True(t, meta.Flags.Has(attribute.Hidden))
	assert.True(t, meta.Flags.Has(attribute.Derived|attribute.Hidden))
	assert.False(t, meta.Flags.Has(attribute.Percentage))
	assert.Equal(t, "special", meta.Category.String())
}
