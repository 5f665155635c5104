package attribute

// ID identifies a character attribute. The set is closed and defined once
// for the whole process; metadata for each ID lives in the catalog table below.
type ID uint16

const (
	// Survival
	HP ID = iota
	HPMax
	HPRegen
	Stamina
	StaminaMax

	// Cultivation
	Qi
	QiMax
	QiRegen
	CultivationSpeed
	Comprehension

	// Combat
	Attack
	Defense
	MagicAttack
	MagicDefense
	CritRate
	CritDamage
	Speed
	AttackSpeed
	Accuracy
	Evasion

	// Special
	Luck
	Karma
	CombatPower

	// Extended
	LifeSteal
	DamageReduction
	CooldownReduction

	idCount
)

// Category groups attributes for display and balancing.
type Category uint8

const (
	CategoryNone Category = iota
	CategorySurvival
	CategoryCultivation
	CategoryCombat
	CategorySpecial
	CategoryExtended
)

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case CategorySurvival:
		return "survival"
	case CategoryCultivation:
		return "cultivation"
	case CategoryCombat:
		return "combat"
	case CategorySpecial:
		return "special"
	case CategoryExtended:
		return "extended"
	default:
		return "none"
	}
}

// Flags is a bitset of display and evaluation traits.
type Flags uint8

const (
	ResourceMax     Flags = 1 << iota // upper bound of a resource pair (HPMax)
	ResourceCurrent                   // current value of a resource pair (HP)
	Percentage                        // shown as a percentage
	Derived                           // computed-only; final value is not clamped at zero
	Hidden                            // not shown in UI
)

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// Meta is the static metadata record of an attribute.
type Meta struct {
	Name        string // stable key used by config and persistence
	DisplayName string
	Category    Category
	Flags       Flags

	// Pair links a resource current to its maximum and back.
	// Meaningful only when Flags has ResourceCurrent or ResourceMax.
	Pair ID
}

// IsResourceCurrent reports whether the attribute is the current side of a resource pair.
func (m Meta) IsResourceCurrent() bool { return m.Flags.Has(ResourceCurrent) }

// IsResourceMax reports whether the attribute is the maximum side of a resource pair.
func (m Meta) IsResourceMax() bool { return m.Flags.Has(ResourceMax) }

var catalog = [idCount]Meta{
	HP:         {Name: "hp", DisplayName: "Health", Category: CategorySurvival, Flags: ResourceCurrent, Pair: HPMax},
	HPMax:      {Name: "hp_max", DisplayName: "Max Health", Category: CategorySurvival, Flags: ResourceMax, Pair: HP},
	HPRegen:    {Name: "hp_regen", DisplayName: "Health Regen", Category: CategorySurvival},
	Stamina:    {Name: "stamina", DisplayName: "Stamina", Category: CategorySurvival, Flags: ResourceCurrent, Pair: StaminaMax},
	StaminaMax: {Name: "stamina_max", DisplayName: "Max Stamina", Category: CategorySurvival, Flags: ResourceMax, Pair: Stamina},

	Qi:               {Name: "qi", DisplayName: "Qi", Category: CategoryCultivation, Flags: ResourceCurrent, Pair: QiMax},
	QiMax:            {Name: "qi_max", DisplayName: "Max Qi", Category: CategoryCultivation, Flags: ResourceMax, Pair: Qi},
	QiRegen:          {Name: "qi_regen", DisplayName: "Qi Regen", Category: CategoryCultivation},
	CultivationSpeed: {Name: "cultivation_speed", DisplayName: "Cultivation Speed", Category: CategoryCultivation, Flags: Percentage},
	Comprehension:    {Name: "comprehension", DisplayName: "Comprehension", Category: CategoryCultivation},

	Attack:       {Name: "attack", DisplayName: "Attack", Category: CategoryCombat},
	Defense:      {Name: "defense", DisplayName: "Defense", Category: CategoryCombat},
	MagicAttack:  {Name: "magic_attack", DisplayName: "Magic Attack", Category: CategoryCombat},
	MagicDefense: {Name: "magic_defense", DisplayName: "Magic Defense", Category: CategoryCombat},
	CritRate:     {Name: "crit_rate", DisplayName: "Critical Rate", Category: CategoryCombat, Flags: Percentage},
	CritDamage:   {Name: "crit_damage", DisplayName: "Critical Damage", Category: CategoryCombat, Flags: Percentage},
	Speed:        {Name: "speed", DisplayName: "Speed", Category: CategoryCombat},
	AttackSpeed:  {Name: "attack_speed", DisplayName: "Attack Speed", Category: CategoryCombat},
	Accuracy:     {Name: "accuracy", DisplayName: "Accuracy", Category: CategoryCombat, Flags: Percentage},
	Evasion:      {Name: "evasion", DisplayName: "Evasion", Category: CategoryCombat, Flags: Percentage},

	Luck:        {Name: "luck", DisplayName: "Luck", Category: CategorySpecial},
	Karma:       {Name: "karma", DisplayName: "Karma", Category: CategorySpecial, Flags: Derived},
	CombatPower: {Name: "combat_power", DisplayName: "Combat Power", Category: CategorySpecial, Flags: Derived | Hidden},

	LifeSteal:         {Name: "life_steal", DisplayName: "Life Steal", Category: CategoryExtended, Flags: Percentage},
	DamageReduction:   {Name: "damage_reduction", DisplayName: "Damage Reduction", Category: CategoryExtended, Flags: Percentage},
	CooldownReduction: {Name: "cooldown_reduction", DisplayName: "Cooldown Reduction", Category: CategoryExtended, Flags: Percentage | Hidden},
}

var byName = func() map[string]ID {
	m := make(map[string]ID, idCount)
	for id := ID(0); id < idCount; id++ {
		m[catalog[id].Name] = id
	}
	return m
}()

// Valid reports whether id belongs to the catalog.
func (id ID) Valid() bool {
	return id < idCount
}

// String returns the attribute's stable name, or "unknown" for ids outside the catalog.
func (id ID) String() string {
	if !id.Valid() {
		return "unknown"
	}
	return catalog[id].Name
}

// MetaFor returns the metadata for id. Unknown ids get an empty record.
func MetaFor(id ID) Meta {
	if !id.Valid() {
		return Meta{}
	}
	return catalog[id]
}

// Lookup resolves a stable attribute name.
func Lookup(name string) (ID, bool) {
	id, ok := byName[name]
	return id, ok
}

// All returns every catalog id in declaration order.
func All() []ID {
	ids := make([]ID, idCount)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// ResourcePair is a (current, maximum) attribute pairing.
type ResourcePair struct {
	Current ID
	Max     ID
}

// ResourcePairs returns every resource pair declared in the catalog.
func ResourcePairs() []ResourcePair {
	var pairs []ResourcePair
	for id := ID(0); id < idCount; id++ {
		if catalog[id].IsResourceCurrent() {
			pairs = append(pairs, ResourcePair{Current: id, Max: catalog[id].Pair})
		}
	}
	return pairs
}
