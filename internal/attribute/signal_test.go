package attribute_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/attrengine/internal/attribute"
)

func TestSignal_SubscribeEmit(t *testing.T) {
	var s attribute.Signal[int]
	var got []int

	unsubscribe := s.Subscribe(func(v int) { got = append(got, v) })
	assert.Equal(t, 1, s.Len())

	s.Emit(1)
	s.Emit(2)
	unsubscribe()
	unsubscribe()
	s.Emit(3)

	assert.Equal(t, []int{1, 2}, got)
	assert.Zero(t, s.Len())
}

func TestSignal_UnsubscribeOtherDuringDispatch(t *testing.T) {
	var s attribute.Signal[string]
	var calls []string

	var second func()
	s.Subscribe(func(string) {
		calls = append(calls, "first")
		second()
	})
	second = s.Subscribe(func(string) { calls = append(calls, "second") })
	s.Subscribe(func(string) { calls = append(calls, "third") })

	s.Emit("x")

	assert.Equal(t, []string{"first", "third"}, calls)
	assert.Equal(t, 2, s.Len())
}

func TestSignal_SubscribeDuringDispatchWaitsForNextEmit(t *testing.T) {
	var s attribute.Signal[int]
	late := 0

	s.Subscribe(func(int) {
		if s.Len() == 1 {
			s.Subscribe(func(int) { late++ })
		}
	})

	s.Emit(1)
	assert.Zero(t, late)

	s.Emit(2)
	assert.Equal(t, 1, late)
}

func TestSignal_NilFuncAndNilSignal(t *testing.T) {
	var s attribute.Signal[int]
	unsubscribe := s.Subscribe(nil)
	unsubscribe()
	assert.Zero(t, s.Len())

	var nilSignal *attribute.Signal[int]
	nilSignal.Emit(1)
	assert.Zero(t, nilSignal.Len())
}
