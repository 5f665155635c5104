package attribute

import (
	"fmt"
	"time"
)

// Kind defines how a modifier combines with the running value.
type Kind uint8

const (
	Flat            Kind = iota // running + value
	PercentAdditive             // running × (1 + value/100)
	Multiplier                  // running × value
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Flat:
		return "flat"
	case PercentAdditive:
		return "percent"
	case Multiplier:
		return "multiplier"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Clock returns the current time. Collections and registries take one so
// expiration can be driven by game time in tests.
type Clock func() time.Time

// Modifier is an immutable adjustment to one attribute.
//
// Modifiers are compared by identity: two modifiers with equal fields are
// still distinct, and RemoveModifier only removes the exact pointer given.
// Bulk removal matches by Origin.
type Modifier struct {
	target    ID
	value     float64
	kind      Kind
	origin    string
	priority  int32
	appliedAt time.Time
	duration  time.Duration
}

// ModifierOption configures a Modifier at construction.
type ModifierOption func(*Modifier)

// WithPriority sets the fold priority. Lower priorities apply first.
func WithPriority(p int32) ModifierOption {
	return func(m *Modifier) { m.priority = p }
}

// WithDuration makes the modifier expire d after it was applied.
// A non-positive d leaves it permanent.
func WithDuration(d time.Duration) ModifierOption {
	return func(m *Modifier) {
		if d > 0 {
			m.duration = d
		}
	}
}

// WithAppliedAt overrides the application timestamp (defaults to time.Now).
func WithAppliedAt(t time.Time) ModifierOption {
	return func(m *Modifier) { m.appliedAt = t }
}

// NewModifier creates a modifier for target.
func NewModifier(target ID, kind Kind, value float64, origin string, opts ...ModifierOption) *Modifier {
	m := &Modifier{
		target: target,
		value:  value,
		kind:   kind,
		origin: origin,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.appliedAt.IsZero() {
		m.appliedAt = time.Now()
	}
	return m
}

// Target returns the attribute the modifier applies to.
func (m *Modifier) Target() ID {
	return m.target
}

// Value returns the magnitude interpreted according to Kind.
func (m *Modifier) Value() float64 {
	return m.value
}

// Kind returns how the modifier combines with the running value.
func (m *Modifier) Kind() Kind {
	return m.kind
}

// Origin returns the tag used for bulk removal.
func (m *Modifier) Origin() string {
	return m.origin
}

// Priority returns the fold priority. Lower priorities apply first.
func (m *Modifier) Priority() int32 {
	return m.priority
}

// AppliedAt returns the instant expiration is measured from.
func (m *Modifier) AppliedAt() time.Time {
	return m.appliedAt
}

// Duration returns the lifetime, or 0 for permanent modifiers.
func (m *Modifier) Duration() time.Duration {
	return m.duration
}

// Permanent reports whether the modifier never expires.
func (m *Modifier) Permanent() bool {
	return m.duration == 0
}

// ExpiresAt returns the instant the modifier stops contributing.
// Zero for permanent modifiers.
func (m *Modifier) ExpiresAt() time.Time {
	if m.Permanent() {
		return time.Time{}
	}
	return m.appliedAt.Add(m.duration)
}

// Active reports whether the modifier contributes at now:
// permanent, or now - appliedAt < duration.
func (m *Modifier) Active(now time.Time) bool {
	if m.Permanent() {
		return true
	}
	return now.Sub(m.appliedAt) < m.duration
}

// Remaining returns how long the modifier stays active after now.
// Zero for expired and permanent modifiers.
func (m *Modifier) Remaining(now time.Time) time.Duration {
	if m.Permanent() {
		return 0
	}
	left := m.duration - now.Sub(m.appliedAt)
	if left < 0 {
		return 0
	}
	return left
}

// String formats the modifier for logs.
func (m *Modifier) String() string {
	return fmt.Sprintf("%s %s %g from %q (priority %d)", m.target, m.kind, m.value, m.origin, m.priority)
}

// ApplyStep folds one modifier into the running value.
func ApplyStep(running float64, m *Modifier) float64 {
	switch m.kind {
	case Flat:
		return running + m.value
	case PercentAdditive:
		return running * (1 + m.value/100)
	case Multiplier:
		return running * m.value
	default:
		return running
	}
}
