// Package metrics instruments the attribute registry with Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "attrengine"

// Engine groups the registry collectors. A nil *Engine is valid and records nothing.
type Engine struct {
	Registrations   prometheus.Counter
	Entities        prometheus.Gauge
	DamageDealt     prometheus.Counter
	HealingDone     prometheus.Counter
	Deaths          prometheus.Counter
	OriginRemovals  prometheus.Counter
	PurgedModifiers prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Engine {
	f := promauto.With(reg)
	return &Engine{
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Entities registered in the attribute registry.",
		}),
		Entities: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Entities currently registered.",
		}),
		DamageDealt: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "damage_total",
			Help:      "Actual damage applied to health.",
		}),
		HealingDone: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "healing_total",
			Help:      "Actual healing applied to health.",
		}),
		Deaths: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deaths_total",
			Help:      "Alive to dead transitions.",
		}),
		OriginRemovals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "origin_removed_modifiers_total",
			Help:      "Modifiers removed by origin across all entities.",
		}),
		PurgedModifiers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purged_modifiers_total",
			Help:      "Expired modifiers dropped by sweeps.",
		}),
	}
}

// Registered counts a registration and records the new entity count.
func (e *Engine) Registered(entities int) {
	if e == nil {
		return
	}
	e.Registrations.Inc()
	e.Entities.Set(float64(entities))
}

// Unregistered records the entity count after a removal.
func (e *Engine) Unregistered(entities int) {
	if e == nil {
		return
	}
	e.Entities.Set(float64(entities))
}

// Damaged adds applied damage. Non-positive amounts are ignored.
func (e *Engine) Damaged(amount float64) {
	if e == nil || amount <= 0 {
		return
	}
	e.DamageDealt.Add(amount)
}

// Healed adds applied healing. Non-positive amounts are ignored.
func (e *Engine) Healed(amount float64) {
	if e == nil || amount <= 0 {
		return
	}
	e.HealingDone.Add(amount)
}

// Died counts an alive to dead transition.
func (e *Engine) Died() {
	if e == nil {
		return
	}
	e.Deaths.Inc()
}

// OriginRemoved adds modifiers removed by a global origin removal.
func (e *Engine) OriginRemoved(n int) {
	if e == nil || n <= 0 {
		return
	}
	e.OriginRemovals.Add(float64(n))
}

// Purged adds expired modifiers dropped by a sweep.
func (e *Engine) Purged(n int) {
	if e == nil || n <= 0 {
		return
	}
	e.PurgedModifiers.Add(float64(n))
}
