package combat

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/equipment"
)

// Attack describes one hit to resolve.
type Attack struct {
	Attacker *Combatant
	Defender *Combatant
	// Skill selects the skill damage formula and damage type; nil is a basic attack.
	Skill *Skill
	// CritBonus is added to the attacker's critical chance (percent).
	CritBonus float64
}

// HitResult holds the outcome of a single hit.
type HitResult struct {
	Damage    int
	Executed  bool
	Dodged    bool
	Blocked   bool
	Critical  bool
	Killed    bool
	Lifesteal int
	// DOTs lists the subtypes of weapon DOTs applied by this hit.
	DOTs     []string
	Messages []string
}

// Landed reports whether the hit connected (not dodged or blocked).
func (r HitResult) Landed() bool { return !r.Dodged && !r.Blocked }

// Resolver runs the per-hit damage pipeline. Equipment modifiers in gear
// belong to the player; enemies carry no equipment.
type Resolver struct {
	src    Source
	gear   *equipment.Aggregator
	logger *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: src and logger must be non-nil; gear may be nil (nothing equipped).
func NewResolver(src Source, gear *equipment.Aggregator, logger *zap.Logger) *Resolver {
	if gear == nil {
		gear = equipment.NewAggregator()
	}
	return &Resolver{src: src, gear: gear, logger: logger}
}

// Gear returns the player's equipment aggregator.
func (r *Resolver) Gear() *equipment.Aggregator { return r.gear }

// Source returns the random source used for every roll.
func (r *Resolver) Source() Source { return r.src }

// ResolveHit runs the damage pipeline in fixed stage order:
// execute, dodge, block, base damage, critical, attacker equipment,
// variance, resistance, defender equipment, defending stance, hp
// application with lifesteal, weapon DOT rolls.
//
// Precondition: a.Attacker and a.Defender are non-nil and alive.
// Postcondition: a.Defender.HP reflects the hit; the result describes every stage that fired.
func (r *Resolver) ResolveHit(a Attack) HitResult {
	atk, def := a.Attacker, a.Defender
	var res HitResult
	verb := "attacks"
	damageType := Physical
	if a.Skill != nil {
		verb = "uses " + a.Skill.Name + " on"
		if a.Skill.DamageType != "" {
			damageType = a.Skill.DamageType
		}
	}

	if atk.IsPlayer() {
		if threshold := r.gear.ExecuteThreshold(); threshold > 0 && def.HPFraction() <= threshold {
			def.HP = 0
			res.Executed, res.Killed = true, true
			res.Messages = append(res.Messages, fmt.Sprintf("%s executes %s!", atk.Name, def.Name))
			return res
		}
	}

	hitBonus := 0.0
	if a.Skill != nil {
		hitBonus = a.Skill.HitBonus
	}
	evasion := 0.0
	if def.IsPlayer() {
		evasion = r.gear.EvasionBonus()
	}
	dodge := DodgeChance(def.Mobility(), atk.Mobility(), hitBonus, evasion)
	if RollDodge(r.src, dodge) {
		res.Dodged = true
		res.Messages = append(res.Messages, fmt.Sprintf("%s %s %s, but %s dodges.", atk.Name, verb, def.Name, def.Name))
		return res
	}

	if def.IsPlayer() {
		if block := r.gear.BlockChance(); block > 0 && RollBlock(r.src, block) {
			res.Blocked = true
			res.Messages = append(res.Messages, fmt.Sprintf("%s %s %s, but %s blocks.", atk.Name, verb, def.Name, def.Name))
			return res
		}
	}

	var dmg int
	if a.Skill != nil {
		dmg = SkillDamage(a.Skill.BaseDamage, atk.Stats.Attack, atk.Power(damageType))
	} else {
		dmg = BasicDamage(atk.Stats.Attack, atk.Stats.PhysicalPower)
	}
	base := dmg

	if RollCritical(r.src, atk.Stats.CriticalChance, a.CritBonus) {
		res.Critical = true
		dmg = int(math.Floor(float64(dmg) * CriticalMultiplier))
	}

	if atk.IsPlayer() {
		dmg = r.gear.AdjustDamage(equipment.DamageContext{
			AttackerIsPlayer: true,
			RawDamage:        dmg,
			DamageType:       damageType,
			TargetTag:        def.Tag,
			IsCritical:       res.Critical,
		})
	}

	dmg = ApplyVariance(r.src, dmg)

	penetration := 0.0
	if atk.IsPlayer() {
		penetration = r.gear.Penetration(damageType)
	}
	dmg = ApplyResistance(dmg, float64(def.Resistance(damageType)), penetration)

	if def.IsPlayer() {
		dmg = r.gear.AdjustDamage(equipment.DamageContext{
			TargetIsPlayer: true,
			RawDamage:      dmg,
			DamageType:     damageType,
			AttackerTag:    atk.Tag,
		})
		if def.Defending {
			dmg /= 2
			def.Defending = false
		}
	}

	res.Damage = def.TakeDamage(dmg)
	res.Killed = !def.Alive()
	crit := ""
	if res.Critical {
		crit = " Critical hit!"
	}
	res.Messages = append(res.Messages, fmt.Sprintf("%s %s %s for %d damage.%s", atk.Name, verb, def.Name, res.Damage, crit))

	if atk.IsPlayer() && res.Damage > 0 {
		if ls := r.gear.LifestealPercent(); ls > 0 {
			res.Lifesteal = atk.RestoreHP(int(math.Floor(ls * float64(res.Damage))))
			if res.Lifesteal > 0 {
				res.Messages = append(res.Messages, fmt.Sprintf("%s drains %d HP.", atk.Name, res.Lifesteal))
			}
		}
	}
	if res.Killed {
		res.Messages = append(res.Messages, fmt.Sprintf("%s is defeated.", def.Name))
	}

	if atk.IsPlayer() && def.Alive() {
		for _, dot := range r.gear.WeaponDOTs() {
			if chance(r.src, "weapon dot "+dot.Subtype, dot.Chance) && def.Effects().ApplyDOT(dot, atk.ID) {
				res.DOTs = append(res.DOTs, dot.Subtype)
				res.Messages = append(res.Messages, fmt.Sprintf("%s is afflicted with %s.", def.Name, dot.Subtype))
			}
		}
	}

	r.logger.Debug("hit resolved",
		zap.String("attacker", atk.Name),
		zap.String("defender", def.Name),
		zap.String("damage_type", damageType),
		zap.Int("base", base),
		zap.Int("damage", res.Damage),
		zap.Bool("critical", res.Critical),
		zap.Float64("dodge_chance", dodge),
	)
	return res
}

// ApplySkillEffect rolls skill's special effect onto its target (or the
// caster for self effects) and returns log messages for any effect applied.
func (r *Resolver) ApplySkillEffect(caster, target *Combatant, skill *Skill) []string {
	if skill == nil || skill.Effect == nil {
		return nil
	}
	se := skill.Effect
	if se.Self {
		target = caster
	}
	if !target.Alive() {
		return nil
	}
	set := target.Effects()
	var applied bool
	var label string
	switch {
	case se.DOT != nil:
		applied, label = set.ApplyDOT(*se.DOT, skill.ID), se.DOT.Subtype
	case se.CC != nil:
		applied, label = set.ApplyCC(*se.CC, skill.ID, r.src), string(se.CC.Subtype)
	case se.Mark != nil:
		applied, label = set.ApplyMark(*se.Mark, skill.ID), "mark"
	case se.Reflect != nil:
		applied, label = set.ApplyReflect(*se.Reflect, skill.ID), "reflect"
	}
	if !applied {
		return nil
	}
	return []string{fmt.Sprintf("%s is affected by %s.", target.Name, label)}
}

var _ effect.Target = (*Combatant)(nil)
