// Package registry keeps the attribute collections of every live entity and
// implements the cross-entity operations used by combat, UI and persistence.
package registry

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/udisondev/attrengine/internal/attribute"
	"github.com/udisondev/attrengine/internal/metrics"
)

const epsilon = 1e-9

// DeathEvent is emitted once when an entity's health reaches zero through Damage.
type DeathEvent struct {
	EntityID string
}

type entity struct {
	attrs *attribute.Collection
	dead  bool
}

// Registry maps entity ids to attribute collections. It is the only owner of
// that map; callers reach attributes through the returned collections.
//
// Not safe for concurrent use.
type Registry struct {
	entities map[string]*entity
	clock    attribute.Clock
	defaults map[attribute.ID]float64
	metrics  *metrics.Engine

	changed       attribute.Signal[attribute.ChangeEvent]
	originRemoved attribute.Signal[attribute.OriginRemovedEvent]
	died          attribute.Signal[DeathEvent]
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source passed to every collection.
func WithClock(clock attribute.Clock) Option {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithDefaults seeds every new collection with the given base values.
func WithDefaults(bases map[attribute.ID]float64) Option {
	return func(r *Registry) { r.defaults = maps.Clone(bases) }
}

// WithMetrics records registry activity.
func WithMetrics(m *metrics.Engine) Option {
	return func(r *Registry) { r.metrics = m }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entities: make(map[string]*entity),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnChange subscribes to attribute changes of every registered entity.
func (r *Registry) OnChange(fn func(attribute.ChangeEvent)) (unsubscribe func()) {
	return r.changed.Subscribe(fn)
}

// OnOriginRemoved subscribes to bulk removals of every registered entity.
func (r *Registry) OnOriginRemoved(fn func(attribute.OriginRemovedEvent)) (unsubscribe func()) {
	return r.originRemoved.Subscribe(fn)
}

// OnDeath subscribes to death signals.
func (r *Registry) OnDeath(fn func(DeathEvent)) (unsubscribe func()) {
	return r.died.Subscribe(fn)
}

// Register creates the collection of entityID. Registering an existing id
// returns the existing collection unchanged. Empty ids are rejected with nil.
func (r *Registry) Register(entityID string) *attribute.Collection {
	if entityID == "" {
		slog.Warn("rejecting registration with empty entity id")
		return nil
	}
	if e, ok := r.entities[entityID]; ok {
		slog.Warn("entity already registered", "entityID", entityID)
		return e.attrs
	}

	attrs := attribute.NewCollection(entityID,
		attribute.WithClock(r.clock),
		attribute.WithDefaults(r.defaults),
		attribute.WithSinks(&r.changed, &r.originRemoved),
	)
	r.entities[entityID] = &entity{attrs: attrs}
	r.metrics.Registered(len(r.entities))

	slog.Debug("entity registered", "entityID", entityID)
	return attrs
}

// RegisterFromSnapshot registers entityID and sets every base value from values.
func (r *Registry) RegisterFromSnapshot(entityID string, values map[attribute.ID]float64) *attribute.Collection {
	attrs := r.Register(entityID)
	if attrs == nil {
		return nil
	}
	for _, id := range slices.Sorted(maps.Keys(values)) {
		attrs.SetBase(id, values[id])
	}
	return attrs
}

// Unregister discards the collection of entityID with all its modifiers.
func (r *Registry) Unregister(entityID string) bool {
	e, ok := r.entities[entityID]
	if !ok {
		return false
	}
	e.attrs.Detach()
	delete(r.entities, entityID)
	r.metrics.Unregistered(len(r.entities))
	slog.Debug("entity unregistered", "entityID", entityID)
	return true
}

// Get returns the collection of entityID.
func (r *Registry) Get(entityID string) (*attribute.Collection, bool) {
	e, ok := r.entities[entityID]
	if !ok {
		return nil, false
	}
	return e.attrs, true
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.entities)
}

// EntityIDs returns the registered ids in lexical order.
func (r *Registry) EntityIDs() []string {
	return slices.Sorted(maps.Keys(r.entities))
}

// IsDead reports whether entityID died through Damage and has not been revived.
func (r *Registry) IsDead(entityID string) bool {
	e, ok := r.entities[entityID]
	return ok && e.dead
}

// Damage lowers the final value of current health by min(amount, current) and
// returns the amount applied. Modifiers on health are accounted for when the
// base is adjusted. The first hit that leaves health at or below zero emits a
// DeathEvent; dead entities absorb further damage and return 0.
func (r *Registry) Damage(entityID string, amount float64) float64 {
	e := r.lookup(entityID, "damage")
	if e == nil || e.dead || !(amount > 0) {
		return 0
	}

	current := e.attrs.Get(attribute.HP)
	actual := min(amount, current)
	if actual > 0 {
		if !e.attrs.SetFinal(attribute.HP, current-actual) {
			return 0
		}
		r.metrics.Damaged(actual)
	}

	if e.attrs.Get(attribute.HP) <= epsilon {
		e.dead = true
		r.metrics.Died()
		slog.Info("entity died", "entityID", entityID)
		r.died.Emit(DeathEvent{EntityID: entityID})
	}
	return actual
}

// Heal raises the final value of current health by min(amount, max - current)
// and returns the amount applied. Dead entities cannot be healed; use Revive.
func (r *Registry) Heal(entityID string, amount float64) float64 {
	e := r.lookup(entityID, "heal")
	if e == nil || e.dead || !(amount > 0) {
		return 0
	}

	current := e.attrs.Get(attribute.HP)
	actual := min(amount, e.attrs.Get(attribute.HPMax)-current)
	if actual <= 0 || !e.attrs.SetFinal(attribute.HP, current+actual) {
		return 0
	}
	r.metrics.Healed(actual)
	return actual
}

// Consume spends amount of a resource when enough is available.
// Returns false without changing anything otherwise.
func (r *Registry) Consume(entityID string, current attribute.ID, amount float64) bool {
	e := r.lookup(entityID, "consume")
	if e == nil || !(amount > 0) {
		return false
	}
	if !attribute.MetaFor(current).IsResourceCurrent() {
		slog.Warn("consume on non-resource attribute", "entityID", entityID, "attribute", current)
		return false
	}
	available := e.attrs.Get(current)
	if available+epsilon < amount {
		return false
	}
	return e.attrs.SetFinal(current, max(0, available-amount))
}

// Revive clears the dead flag of entityID and sets its health base to hp.
func (r *Registry) Revive(entityID string, hp float64) bool {
	e := r.lookup(entityID, "revive")
	if e == nil {
		return false
	}
	if !(hp > 0) {
		slog.Warn("revive with non-positive health", "entityID", entityID, "hp", hp)
		return false
	}
	e.dead = false
	e.attrs.SetBase(attribute.HP, hp)
	slog.Info("entity revived", "entityID", entityID, "hp", hp)
	return true
}

// RemoveOriginGlobally removes every modifier from origin on every entity
// and returns the total removed.
func (r *Registry) RemoveOriginGlobally(origin string) int {
	total := 0
	for _, id := range r.EntityIDs() {
		e, ok := r.entities[id]
		if !ok {
			continue // unregistered by a listener during this sweep
		}
		total += e.attrs.RemoveAllFromOrigin(origin)
	}
	r.metrics.OriginRemoved(total)
	if total > 0 {
		slog.Debug("removed origin globally", "origin", origin, "removed", total)
	}
	return total
}

// PurgeExpired drops expired modifiers from every collection.
func (r *Registry) PurgeExpired() int {
	total := 0
	for _, e := range r.entities {
		total += e.attrs.PurgeExpired()
	}
	r.metrics.Purged(total)
	if total > 0 {
		slog.Debug("purged expired modifiers", "removed", total, "entities", len(r.entities))
	}
	return total
}

// Snapshot exports the base values of entityID for persistence.
// Unknown entities yield nil.
func (r *Registry) Snapshot(entityID string) map[attribute.ID]float64 {
	e := r.lookup(entityID, "snapshot")
	if e == nil {
		return nil
	}
	return e.attrs.Snapshot()
}

func (r *Registry) lookup(entityID, op string) *entity {
	e, ok := r.entities[entityID]
	if !ok {
		slog.Warn("unknown entity", "entityID", entityID, "op", op)
		return nil
	}
	return e
}
