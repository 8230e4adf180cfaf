// Package equipment aggregates the passive modifiers contributed by equipped
// items and exposes the damage, cost and regeneration adjustments they imply.
package equipment

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// Kind identifies what a passive descriptor modifies.
type Kind string

const (
	DamageBonus         Kind = "damage_bonus"
	CriticalDamageBonus Kind = "critical_damage_bonus"
	ElementalDamage     Kind = "elemental_damage"
	DamageReduction     Kind = "damage_reduction"
	ElementalResistance Kind = "elemental_resistance"
	HPRegen             Kind = "hp_regen"
	ManaRegen           Kind = "mana_regen"
	StaminaRegen        Kind = "stamina_regen"
	SpellCostReduction  Kind = "spell_cost_reduction"
	SkillCostReduction  Kind = "skill_cost_reduction"
	Evasion             Kind = "evasion"
	BlockChance         Kind = "block_chance"
	Penetration         Kind = "penetration"
	Lifesteal           Kind = "lifesteal"
	Execute             Kind = "execute"
	WeaponDOT           Kind = "weapon_dot"
)

var validKinds = map[Kind]bool{
	DamageBonus: true, CriticalDamageBonus: true, ElementalDamage: true,
	DamageReduction: true, ElementalResistance: true,
	HPRegen: true, ManaRegen: true, StaminaRegen: true,
	SpellCostReduction: true, SkillCostReduction: true,
	Evasion: true, BlockChance: true, Penetration: true,
	Lifesteal: true, Execute: true, WeaponDOT: true,
}

// Descriptor is one passive effect copied from an item definition at equip time.
//
// Value is a fraction for multiplicative kinds (0.2 = 20%), a percent for
// Penetration (0-100), and a flat amount for ElementalDamage and the regen kinds.
type Descriptor struct {
	Kind  Kind    `yaml:"type"`
	Value float64 `yaml:"value"`
	// Target restricts DamageBonus (defender tag) and DamageReduction
	// (attacker tag). Empty or "all" matches every tag.
	Target string `yaml:"target"`
	// Element restricts ElementalResistance and Penetration to one damage type.
	Element string          `yaml:"element"`
	DOT     *effect.DOTSpec `yaml:"dot"`
}

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if !validKinds[d.Kind] {
		return fmt.Errorf("equipment: unknown descriptor type %q", d.Kind)
	}
	if d.Kind == WeaponDOT {
		if d.DOT == nil {
			return errors.New("equipment: weapon_dot descriptor requires a dot block")
		}
		if d.DOT.Duration < 1 || d.DOT.DamagePerTurn < 0 {
			return fmt.Errorf("equipment: weapon_dot %q must have duration >= 1 and damage >= 0", d.DOT.Subtype)
		}
		return nil
	}
	if d.Value < 0 {
		return fmt.Errorf("equipment: %s value must be >= 0, got %v", d.Kind, d.Value)
	}
	if d.Kind == ElementalResistance && d.Element == "" {
		return errors.New("equipment: elemental_resistance requires an element")
	}
	return nil
}

func matchesTag(filter, tag string) bool {
	return filter == "" || filter == "all" || filter == tag
}
