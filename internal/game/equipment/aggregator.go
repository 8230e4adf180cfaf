package equipment

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// Aggregator folds the descriptors of every equipped slot.
// It never mutates the descriptors handed to OnEquip; each slot stores a copy.
// It is not safe for concurrent use.
type Aggregator struct {
	slots          map[string][]Descriptor
	order          []string
	lastRegenRound int
}

// NewAggregator returns an Aggregator with nothing equipped.
func NewAggregator() *Aggregator {
	return &Aggregator{slots: make(map[string][]Descriptor)}
}

// OnEquip records the contribution of the item equipped in slot, replacing
// any previous contribution for that slot.
//
// Postcondition: the stored slice is a copy of effects.
func (a *Aggregator) OnEquip(slot string, effects []Descriptor) {
	if _, ok := a.slots[slot]; !ok {
		a.order = append(a.order, slot)
	}
	cp := make([]Descriptor, len(effects))
	copy(cp, effects)
	a.slots[slot] = cp
}

// OnUnequip removes slot's contribution. Unknown slots are a no-op.
func (a *Aggregator) OnUnequip(slot string) {
	if _, ok := a.slots[slot]; !ok {
		return
	}
	delete(a.slots, slot)
	for i, s := range a.order {
		if s == slot {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// Slots returns the equipped slot names in equip order.
func (a *Aggregator) Slots() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

func (a *Aggregator) each(fn func(Descriptor)) {
	for _, slot := range a.order {
		for _, d := range a.slots[slot] {
			fn(d)
		}
	}
}

func (a *Aggregator) sum(k Kind) float64 {
	total := 0.0
	a.each(func(d Descriptor) {
		if d.Kind == k {
			total += d.Value
		}
	})
	return total
}

// DamageContext is the input to AdjustDamage.
type DamageContext struct {
	AttackerIsPlayer bool
	TargetIsPlayer   bool
	RawDamage        int
	DamageType       string
	// TargetTag is the defender's category tag, matched by DamageBonus.
	TargetTag string
	// AttackerTag is the attacker's category tag, matched by DamageReduction.
	AttackerTag string
	IsCritical  bool
}

// AdjustDamage applies the equipment fold in fixed order: attacker-side
// bonuses (damage_bonus by tag, critical_damage_bonus, flat elemental_damage)
// when the attacker is the player, then defender-side reductions
// (damage_reduction, elemental_resistance) when the target is the player.
// Dodge, block, resistance and variance are not applied here.
//
// Postcondition: returns floor of the folded value, never negative.
func (a *Aggregator) AdjustDamage(in DamageContext) int {
	dmg := float64(in.RawDamage)
	if in.AttackerIsPlayer {
		a.each(func(d Descriptor) {
			if d.Kind == DamageBonus && matchesTag(d.Target, in.TargetTag) {
				dmg *= 1 + d.Value
			}
		})
		if in.IsCritical {
			a.each(func(d Descriptor) {
				if d.Kind == CriticalDamageBonus {
					dmg *= 1 + d.Value
				}
			})
		}
		dmg += a.sum(ElementalDamage)
	}
	if in.TargetIsPlayer {
		a.each(func(d Descriptor) {
			if d.Kind == DamageReduction && matchesTag(d.Target, in.AttackerTag) {
				dmg *= math.Max(0, 1-d.Value)
			}
		})
		a.each(func(d Descriptor) {
			if d.Kind == ElementalResistance && d.Element == in.DamageType {
				dmg *= math.Max(0, 1-d.Value)
			}
		})
	}
	if dmg < 0 {
		return 0
	}
	return int(math.Floor(dmg))
}

// Cost is a skill's resource cost.
type Cost struct {
	Mana    int
	Stamina int
}

// AdjustSkillCost applies spell_cost_reduction to mana and
// skill_cost_reduction to stamina.
//
// Postcondition: each component is rounded up; a nonzero input cost never
// becomes zero.
func (a *Aggregator) AdjustSkillCost(c Cost) Cost {
	return Cost{
		Mana:    reduceCost(c.Mana, a.sum(SpellCostReduction)),
		Stamina: reduceCost(c.Stamina, a.sum(SkillCostReduction)),
	}
}

func reduceCost(cost int, reduction float64) int {
	if cost <= 0 {
		return cost
	}
	reduction = math.Min(math.Max(reduction, 0), 1)
	out := int(math.Ceil(float64(cost) * (1 - reduction)))
	if out < 1 {
		return 1
	}
	return out
}

// Regenerable is a combatant that can receive regeneration.
type Regenerable interface {
	DisplayName() string
	// Each Restore method clamps at the resource max and returns the amount actually restored.
	RestoreHP(amount int) int
	RestoreMana(amount int) int
	RestoreStamina(amount int) int
}

// RegenTotals returns the summed hp, mana and stamina regeneration per round.
func (a *Aggregator) RegenTotals() (hp, mana, stamina int) {
	return int(a.sum(HPRegen)), int(a.sum(ManaRegen)), int(a.sum(StaminaRegen))
}

// ResetRound forgets the last regenerated round. Call it when a new encounter begins.
func (a *Aggregator) ResetRound() {
	a.lastRegenRound = 0
}

// ApplyRegen applies RegenTotals to target for round.
//
// Postcondition: regeneration is applied at most once per round number;
// a repeated call with the same round returns nil without effect. The
// returned messages cover only non-zero amounts actually restored.
func (a *Aggregator) ApplyRegen(target Regenerable, round int) []string {
	if round <= a.lastRegenRound {
		return nil
	}
	a.lastRegenRound = round
	hp, mana, stamina := a.RegenTotals()
	var msgs []string
	if n := target.RestoreHP(hp); n > 0 {
		msgs = append(msgs, fmt.Sprintf("%s regenerates %d HP.", target.DisplayName(), n))
	}
	if n := target.RestoreMana(mana); n > 0 {
		msgs = append(msgs, fmt.Sprintf("%s regenerates %d mana.", target.DisplayName(), n))
	}
	if n := target.RestoreStamina(stamina); n > 0 {
		msgs = append(msgs, fmt.Sprintf("%s regenerates %d stamina.", target.DisplayName(), n))
	}
	return msgs
}

// EvasionBonus returns the summed evasion fraction.
func (a *Aggregator) EvasionBonus() float64 { return a.sum(Evasion) }

// BlockChance returns the summed block probability, clamped to [0, 1].
func (a *Aggregator) BlockChance() float64 {
	return math.Min(a.sum(BlockChance), 1)
}

// Penetration returns the summed penetration percent for damageType.
// Descriptors without an element apply to every type.
func (a *Aggregator) Penetration(damageType string) float64 {
	total := 0.0
	a.each(func(d Descriptor) {
		if d.Kind == Penetration && (d.Element == "" || d.Element == damageType) {
			total += d.Value
		}
	})
	return total
}

// LifestealPercent returns the summed lifesteal fraction.
func (a *Aggregator) LifestealPercent() float64 { return a.sum(Lifesteal) }

// ExecuteThreshold returns the largest execute threshold among all sources.
func (a *Aggregator) ExecuteThreshold() float64 {
	best := 0.0
	a.each(func(d Descriptor) {
		if d.Kind == Execute && d.Value > best {
			best = d.Value
		}
	})
	return best
}

// WeaponDOTs returns the DOT descriptors contributed by equipped items.
func (a *Aggregator) WeaponDOTs() []effect.DOTSpec {
	var out []effect.DOTSpec
	a.each(func(d Descriptor) {
		if d.Kind == WeaponDOT && d.DOT != nil {
			out = append(out, *d.DOT)
		}
	})
	return out
}
