package registry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/attrengine/internal/attribute"
	"github.com/udisondev/attrengine/internal/testutil"
)

func TestRunMaintenance_SweepsAndSaves(t *testing.T) {
	r, clock := newTestRegistry(t)
	attrs := r.Register("hero")
	attrs.Grant(attribute.Speed, attribute.Flat, 10, "haste", attribute.WithDuration(time.Second))
	clock.Advance(time.Minute)

	var saves atomic.Int32
	save := func(ctx context.Context) error {
		saves.Add(1)
		return ctx.Err()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.RunMaintenance(ctx, time.Millisecond, time.Millisecond, save)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, saves.Load(), int32(1))
	assert.Empty(t, attrs.Modifiers(attribute.Speed))
}

func TestRunMaintenance_FinalSaveError(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx, cancel := testutil.ContextWithCancel(t)
	cancel()

	err := r.RunMaintenance(ctx, time.Hour, time.Hour, func(context.Context) error {
		return testutil.ErrSimulated
	})
	assert.ErrorIs(t, err, testutil.ErrSimulated)
}

func TestRunMaintenance_NilSave(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := testutil.ContextWithTimeout(t, 10*time.Millisecond)

	assert.NoError(t, r.RunMaintenance(ctx, time.Millisecond, time.Millisecond, nil))
}

func TestRunMaintenance_InvalidIntervals(t *testing.T) {
	r, _ := newTestRegistry(t)
	assert.Error(t, r.RunMaintenance(context.Background(), 0, time.Second, nil))
	assert.Error(t, r.RunMaintenance(context.Background(), time.Second, -1, nil))
}
