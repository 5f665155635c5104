package testutil

import "github.com/udisondev/attrengine/internal/attribute"

// WarriorSnapshot returns the base values of a mid-level melee character.
func WarriorSnapshot() map[attribute.ID]float64 {
	return map[attribute.ID]float64{
		attribute.HP:         420,
		attribute.HPMax:      500,
		attribute.Stamina:    80,
		attribute.StaminaMax: 120,
		attribute.Attack:     64,
		attribute.Defense:    38,
		attribute.CritRate:   7.5,
		attribute.CritDamage: 160,
		attribute.Speed:      105,
		attribute.Karma:      -12,
	}
}

// MageSnapshot returns the base values of a mid-level caster.
func MageSnapshot() map[attribute.ID]float64 {
	return map[attribute.ID]float64{
		attribute.HP:            260,
		attribute.HPMax:         300,
		attribute.Qi:            340,
		attribute.QiMax:         400,
		attribute.MagicAttack:   88,
		attribute.MagicDefense:  42,
		attribute.Comprehension: 31,
	}
}
