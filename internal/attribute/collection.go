package attribute

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"time"
)

// Collection holds every attribute of one entity.
//
// Entries are seeded from the configured defaults and otherwise created with
// base 0 on first access. Invalid input (unknown attribute, nil modifier)
// is absorbed with a warning and never fails the caller.
//
// Not safe for concurrent use: all calls are expected on the game loop goroutine.
type Collection struct {
	ownerID string
	entries map[ID]*entry
	clock   Clock

	changed       Signal[ChangeEvent]
	originRemoved Signal[OriginRemovedEvent]

	// Registry-level signals that also receive this collection's events.
	changeSink  *Signal[ChangeEvent]
	removalSink *Signal[OriginRemovedEvent]
}

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// WithClock sets the time source used for expiration.
func WithClock(clock Clock) CollectionOption {
	return func(c *Collection) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithDefaults seeds entries with the given base values. Unknown ids are skipped.
func WithDefaults(bases map[ID]float64) CollectionOption {
	return func(c *Collection) {
		for id, v := range bases {
			if !id.Valid() {
				slog.Warn("skipping unknown default attribute", "owner", c.ownerID, "attribute", uint16(id))
				continue
			}
			c.entries[id] = newEntry(id, v)
		}
	}
}

// WithSinks forwards change and origin-removal events to additional signals.
func WithSinks(changes *Signal[ChangeEvent], removals *Signal[OriginRemovedEvent]) CollectionOption {
	return func(c *Collection) {
		c.changeSink = changes
		c.removalSink = removals
	}
}

// NewCollection creates the attribute collection of ownerID.
func NewCollection(ownerID string, opts ...CollectionOption) *Collection {
	c := &Collection{
		ownerID: ownerID,
		entries: make(map[ID]*entry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Detach stops forwarding events to the sinks given by WithSinks.
func (c *Collection) Detach() {
	c.changeSink = nil
	c.removalSink = nil
}

// OwnerID returns the entity id this collection belongs to.
func (c *Collection) OwnerID() string {
	return c.ownerID
}

// OnChange subscribes to attribute changes.
func (c *Collection) OnChange(fn func(ChangeEvent)) (unsubscribe func()) {
	return c.changed.Subscribe(fn)
}

// OnOriginRemoved subscribes to bulk removal summaries.
func (c *Collection) OnOriginRemoved(fn func(OriginRemovedEvent)) (unsubscribe func()) {
	return c.originRemoved.Subscribe(fn)
}

// Get returns the final value of id.
func (c *Collection) Get(id ID) float64 {
	e := c.entry(id)
	if e == nil {
		return 0
	}
	return e.final(c.clock())
}

// GetBase returns the base value of id.
func (c *Collection) GetBase(id ID) float64 {
	e := c.entry(id)
	if e == nil {
		return 0
	}
	return e.base
}

// Has reports whether an entry exists for id.
func (c *Collection) Has(id ID) bool {
	_, ok := c.entries[id]
	return ok
}

// IDs returns the ids that have entries, in catalog order.
func (c *Collection) IDs() []ID {
	return slices.Sorted(maps.Keys(c.entries))
}

// SetBase updates the base value of id. Changes within epsilon are ignored.
func (c *Collection) SetBase(id ID, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		slog.Warn("rejecting non-finite base value", "owner", c.ownerID, "attribute", id, "value", value)
		return
	}
	e := c.entry(id)
	if e == nil {
		return
	}
	c.mutate(e, func() bool { return e.setBase(value) })
}

// SetFinal adjusts the base of id so that its final value under the modifiers
// active now equals value. Returns false for unknown ids, non-finite values and
// when the modifiers cancel the base out (a zero multiplier).
func (c *Collection) SetFinal(id ID, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		slog.Warn("rejecting non-finite final value", "owner", c.ownerID, "attribute", id, "value", value)
		return false
	}
	e := c.entry(id)
	if e == nil {
		return false
	}
	base, ok := e.baseFor(c.clock(), value)
	if !ok {
		slog.Warn("final value does not depend on base", "owner", c.ownerID, "attribute", id)
		return false
	}
	c.mutate(e, func() bool { return e.setBase(base) })
	return true
}

// AddModifier routes m to the entry of its target attribute.
// Returns false for nil modifiers and unknown targets.
func (c *Collection) AddModifier(m *Modifier) bool {
	if m == nil {
		slog.Warn("ignoring nil modifier", "owner", c.ownerID)
		return false
	}
	e := c.entry(m.target)
	if e == nil {
		return false
	}
	return c.mutate(e, func() bool { return e.add(m) })
}

// Grant creates a modifier stamped with the collection clock and adds it.
func (c *Collection) Grant(id ID, kind Kind, value float64, origin string, opts ...ModifierOption) *Modifier {
	opts = append([]ModifierOption{WithAppliedAt(c.clock())}, opts...)
	m := NewModifier(id, kind, value, origin, opts...)
	if !c.AddModifier(m) {
		return nil
	}
	return m
}

// RemoveModifier removes exactly m. Returns whether it was present.
func (c *Collection) RemoveModifier(m *Modifier) bool {
	if m == nil {
		slog.Warn("ignoring nil modifier removal", "owner", c.ownerID)
		return false
	}
	e, ok := c.entries[m.target]
	if !ok {
		return false
	}
	return c.mutate(e, func() bool { return e.remove(m) })
}

// RemoveAllFromOrigin removes every modifier granted by origin across all
// attributes. Change events fire once per affected attribute after the whole
// batch, followed by a single OriginRemovedEvent.
func (c *Collection) RemoveAllFromOrigin(origin string) int {
	observed := c.observed()
	now := c.clock()

	type affected struct {
		e   *entry
		old float64
	}
	var hits []affected
	total := 0
	for _, id := range c.IDs() {
		e := c.entries[id]
		var old float64
		if observed {
			old = e.final(now)
		}
		if n := e.removeByOrigin(origin); n > 0 {
			total += n
			hits = append(hits, affected{e: e, old: old})
		}
	}
	if total == 0 {
		return 0
	}

	slog.Debug("removed modifiers by origin",
		"owner", c.ownerID,
		"origin", origin,
		"removed", total,
		"attributes", len(hits))

	if !observed {
		return total
	}
	ids := make([]ID, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.e.id)
		c.emitChange(ChangeEvent{EntityID: c.ownerID, Attribute: h.e.id, Old: h.old, New: h.e.final(now)})
	}
	ev := OriginRemovedEvent{EntityID: c.ownerID, Origin: origin, Removed: total, Attributes: ids}
	c.originRemoved.Emit(ev)
	c.removalSink.Emit(ev)
	return total
}

// Modifiers returns a copy of the modifiers stored on id, in insertion order.
// Expired modifiers are included until purged.
func (c *Collection) Modifiers(id ID) []*Modifier {
	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	return e.modifiers()
}

// PurgeExpired drops modifiers that no longer contribute. Final values are
// unaffected, so no change events fire.
func (c *Collection) PurgeExpired() int {
	now := c.clock()
	total := 0
	for _, e := range c.entries {
		total += e.purgeExpired(now)
	}
	return total
}

// ClampCurrentToMax lowers the final value of currentID to the final value of
// maxID when it exceeds it. Modifiers on currentID are accounted for, so the
// base may end up below max. Returns whether a correction happened.
func (c *Collection) ClampCurrentToMax(currentID, maxID ID) bool {
	maxValue := c.Get(maxID)
	if c.Get(currentID) <= maxValue+epsilon {
		return false
	}
	return c.SetFinal(currentID, maxValue)
}

// RestoreResource sets the base of currentID to fraction × final value of maxID.
// fraction is clamped to [0, 1].
func (c *Collection) RestoreResource(currentID, maxID ID, fraction float64) {
	if math.IsNaN(fraction) {
		slog.Warn("ignoring NaN restore fraction", "owner", c.ownerID, "attribute", currentID)
		return
	}
	fraction = math.Min(1, math.Max(0, fraction))
	c.SetBase(currentID, fraction*c.Get(maxID))
}

// ResourceRatio returns current/max clamped to [0, 1], or 0 when max is 0.
func (c *Collection) ResourceRatio(currentID, maxID ID) float64 {
	maxValue := c.Get(maxID)
	if maxValue <= epsilon {
		return 0
	}
	return math.Min(1, math.Max(0, c.Get(currentID)/maxValue))
}

// Validate reports whether every resource current lies within [0, max].
// It never corrects anything; see Problems for details.
func (c *Collection) Validate() bool {
	return len(c.Problems()) == 0
}

// Problems lists resource invariant violations.
func (c *Collection) Problems() []string {
	now := c.clock()
	var problems []string
	for _, pair := range ResourcePairs() {
		cur, ok := c.entries[pair.Current]
		if !ok {
			continue
		}
		current := cur.final(now)
		maxValue := 0.0
		if m, ok := c.entries[pair.Max]; ok {
			maxValue = m.final(now)
		}
		switch {
		case current < -epsilon:
			problems = append(problems, fmt.Sprintf("%s is negative (%g)", pair.Current, current))
		case current > maxValue+epsilon:
			problems = append(problems, fmt.Sprintf("%s (%g) exceeds %s (%g)", pair.Current, current, pair.Max, maxValue))
		}
	}
	return problems
}

// Snapshot returns the base value of every entry. Modifiers are not included.
func (c *Collection) Snapshot() map[ID]float64 {
	snap := make(map[ID]float64, len(c.entries))
	for id, e := range c.entries {
		snap[id] = e.base
	}
	return snap
}

// entry returns the entry of id, creating it with base 0 when missing.
// Unknown ids yield nil.
func (c *Collection) entry(id ID) *entry {
	if e, ok := c.entries[id]; ok {
		return e
	}
	if !id.Valid() {
		slog.Warn("unknown attribute", "owner", c.ownerID, "attribute", uint16(id))
		return nil
	}
	e := newEntry(id, 0)
	c.entries[id] = e
	return e
}

func (c *Collection) observed() bool {
	return c.changed.Len() > 0 || c.changeSink.Len() > 0 ||
		c.originRemoved.Len() > 0 || c.removalSink.Len() > 0
}

// mutate runs fn against e and emits one change event when it reports success.
// Old and new values are only computed when someone listens.
func (c *Collection) mutate(e *entry, fn func() bool) bool {
	observed := c.changed.Len() > 0 || c.changeSink.Len() > 0
	var old float64
	if observed {
		old = e.final(c.clock())
	}
	if !fn() {
		return false
	}
	if observed {
		c.emitChange(ChangeEvent{EntityID: c.ownerID, Attribute: e.id, Old: old, New: e.final(c.clock())})
	}
	return true
}

func (c *Collection) emitChange(ev ChangeEvent) {
	c.changed.Emit(ev)
	c.changeSink.Emit(ev)
}
