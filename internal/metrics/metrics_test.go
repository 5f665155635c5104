package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Registered(1)
	m.Registered(2)
	m.Unregistered(1)
	m.Damaged(12.5)
	m.Damaged(-3)
	m.Healed(4)
	m.Died()
	m.OriginRemoved(3)
	m.OriginRemoved(0)
	m.Purged(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Registrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Entities))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.DamageDealt))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.HealingDone))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deaths))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OriginRemovals))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PurgedModifiers))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)
}

func TestEngine_NilIsNoop(t *testing.T) {
	var m *Engine
	assert.NotPanics(t, func() {
		m.Registered(1)
		m.Unregistered(0)
		m.Damaged(1)
		m.Healed(1)
		m.Died()
		m.OriginRemoved(1)
		m.Purged(1)
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
