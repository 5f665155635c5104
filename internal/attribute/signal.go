package attribute

import "slices"

// ChangeEvent is emitted once per committed mutation of an attribute.
type ChangeEvent struct {
	EntityID  string
	Attribute ID
	Old       float64
	New       float64
}

// OriginRemovedEvent summarizes a bulk removal by origin.
type OriginRemovedEvent struct {
	EntityID   string
	Origin     string
	Removed    int
	Attributes []ID
}

// Signal is a synchronous subscriber list.
//
// Emit delivers to a snapshot of the subscribers taken when dispatch starts,
// so handlers may subscribe, unsubscribe themselves or mutate the emitting
// collection. A subscriber removed during dispatch is not called afterwards.
//
// Not safe for concurrent use.
type Signal[T any] struct {
	subs []*subscription[T]
}

type subscription[T any] struct {
	fn     func(T)
	active bool
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	sub := &subscription[T]{fn: fn, active: true}
	s.subs = append(s.subs, sub)
	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		s.subs = slices.DeleteFunc(s.subs, func(x *subscription[T]) bool { return x == sub })
	}
}

// Emit calls every current subscriber with v.
func (s *Signal[T]) Emit(v T) {
	if s == nil || len(s.subs) == 0 {
		return
	}
	snapshot := slices.Clone(s.subs)
	for _, sub := range snapshot {
		if sub.active {
			sub.fn(v)
		}
	}
}

// Len returns the number of subscribers.
func (s *Signal[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.subs)
}
