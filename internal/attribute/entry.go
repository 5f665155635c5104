package attribute

import (
	"cmp"
	"log/slog"
	"math"
	"slices"
	"time"
)

// epsilon is the tolerance for base value changes and resource comparisons.
const epsilon = 1e-9

// entry holds one attribute's base value and modifiers and caches the folded result.
//
// Invariant: when dirty is false, cached equals the fold over base and the
// modifiers active at any instant in [computedAt, nextExpiry).
type entry struct {
	id   ID
	meta Meta

	base float64
	mods []*Modifier // insertion order

	cached     float64
	dirty      bool
	computedAt time.Time
	nextExpiry time.Time // earliest future expiry seen by the last fold; zero if none

	recomputes int
}

func newEntry(id ID, base float64) *entry {
	return &entry{
		id:    id,
		meta:  MetaFor(id),
		base:  base,
		dirty: true,
	}
}

// final returns the cached value, recomputing when dirty or when the cache
// window no longer covers now.
func (e *entry) final(now time.Time) float64 {
	if e.dirty || now.Before(e.computedAt) || (!e.nextExpiry.IsZero() && !now.Before(e.nextExpiry)) {
		e.cached, e.nextExpiry = e.compute(now)
		e.computedAt = now
		e.dirty = false
		e.recomputes++
	}
	return e.cached
}

// active returns the modifiers contributing at now in fold order and the
// earliest upcoming expiry among them. The result is a copy, so listeners
// mutating the entry later cannot affect a fold in progress.
func (e *entry) active(now time.Time) ([]*Modifier, time.Time) {
	active := make([]*Modifier, 0, len(e.mods))
	var next time.Time
	for _, m := range e.mods {
		if !m.Active(now) {
			continue
		}
		active = append(active, m)
		if !m.Permanent() {
			if exp := m.ExpiresAt(); next.IsZero() || exp.Before(next) {
				next = exp
			}
		}
	}
	slices.SortStableFunc(active, func(a, b *Modifier) int {
		return cmp.Compare(a.priority, b.priority)
	})
	return active, next
}

// compute folds the active modifiers over base in priority order, ties broken
// by insertion order.
func (e *entry) compute(now time.Time) (float64, time.Time) {
	active, next := e.active(now)
	value := e.base
	for _, m := range active {
		value = ApplyStep(value, m)
	}
	if !e.meta.Flags.Has(Derived) {
		value = math.Max(0, value)
	}
	return value, next
}

// baseFor returns the base value whose fold equals target at now.
// Before clamping the fold is affine in base: final = slope*base + offset.
// Reports false when the modifiers cancel the base out.
func (e *entry) baseFor(now time.Time, target float64) (float64, bool) {
	active, _ := e.active(now)
	slope, offset := 1.0, 0.0
	for _, m := range active {
		switch m.kind {
		case Flat:
			offset += m.value
		case PercentAdditive:
			k := 1 + m.value/100
			slope *= k
			offset *= k
		case Multiplier:
			slope *= m.value
			offset *= m.value
		}
	}
	if math.Abs(slope) <= epsilon {
		return 0, false
	}
	return (target - offset) / slope, true
}

func (e *entry) setBase(v float64) bool {
	if math.Abs(v-e.base) <= epsilon {
		return false
	}
	e.base = v
	e.dirty = true
	return true
}

func (e *entry) add(m *Modifier) bool {
	if m.target != e.id {
		slog.Warn("modifier target mismatch",
			"attribute", e.id,
			"target", m.target,
			"origin", m.origin)
		return false
	}
	e.mods = append(e.mods, m)
	e.dirty = true
	return true
}

func (e *entry) remove(m *Modifier) bool {
	i := slices.Index(e.mods, m)
	if i < 0 {
		return false
	}
	e.mods = slices.Delete(e.mods, i, i+1)
	e.dirty = true
	return true
}

func (e *entry) removeByOrigin(origin string) int {
	before := len(e.mods)
	e.mods = slices.DeleteFunc(e.mods, func(m *Modifier) bool { return m.origin == origin })
	removed := before - len(e.mods)
	if removed > 0 {
		e.dirty = true
	}
	return removed
}

// purgeExpired drops modifiers that no longer contribute at now.
func (e *entry) purgeExpired(now time.Time) int {
	before := len(e.mods)
	e.mods = slices.DeleteFunc(e.mods, func(m *Modifier) bool { return !m.Active(now) })
	removed := before - len(e.mods)
	if removed > 0 {
		e.dirty = true
	}
	return removed
}

func (e *entry) modifiers() []*Modifier {
	return slices.Clone(e.mods)
}
