package combat

import "math"

// Formula constants.
const (
	CriticalMultiplier = 1.5
	MaxResistance      = 75.0
	baseDodgeChance    = 30.0
	maxDodgeChance     = 90.0
	baseEscapeChance   = 30.0
	minEscapeChance    = 10.0
	maxEscapeChance    = 90.0
	varianceLow        = 0.9
	varianceSpread     = 0.2
)

// Source is the subset of dice.Source used by the resolver.
// Using a local interface keeps the math free of the dice package.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// LabelledSource is a Source that logs named probability draws.
// dice.Roller implements it; draws made through a plain Source go unlogged.
type LabelledSource interface {
	Source
	// Percent draws a uniform value in [0, 100).
	Percent(label string) float64
	// Chance reports whether a uniform [0, 1) draw falls below p.
	Chance(label string, p float64) bool
}

// percent draws one uniform [0, 100) value, labelled when src supports it.
func percent(src Source, label string) float64 {
	if l, ok := src.(LabelledSource); ok {
		return l.Percent(label)
	}
	return src.Float64() * 100
}

// chance draws one uniform [0, 1) value and reports whether it is below p.
func chance(src Source, label string, p float64) bool {
	if l, ok := src.(LabelledSource); ok {
		return l.Chance(label, p)
	}
	return src.Float64() < p
}

// fraction draws one uniform [0, 1) value.
func fraction(src Source, label string) float64 {
	if l, ok := src.(LabelledSource); ok {
		return l.Percent(label) / 100
	}
	return src.Float64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// BasicDamage is the basic-attack base damage: floor(attack * (0.6 + physicalPower/100)).
func BasicDamage(attack, physicalPower int) int {
	return int(math.Floor(float64(attack) * (0.6 + float64(physicalPower)/100)))
}

// SkillDamage is the skill base damage:
// floor((skillBase + attack*0.5) * (power/100 + 0.8)).
func SkillDamage(skillBase, attack, power int) int {
	return int(math.Floor((float64(skillBase) + float64(attack)*0.5) * (float64(power)/100 + 0.8)))
}

// RollCritical draws a uniform [0, 100) value and reports whether it is below
// critChance + critBonus. The caller applies CriticalMultiplier.
func RollCritical(src Source, critChance, critBonus float64) bool {
	return percent(src, "critical") < critChance+critBonus
}

// ApplyVariance multiplies dmg by a uniform value in [0.9, 1.1) and floors.
func ApplyVariance(src Source, dmg int) int {
	return int(math.Floor(float64(dmg) * (varianceLow + varianceSpread*fraction(src, "variance"))))
}

// EffectiveResistance clamps resistance to [0, 75] and reduces it by
// penetration percent, itself clamped to [0, 100].
//
// Postcondition: result is in [0, 75].
func EffectiveResistance(resistance, penetration float64) float64 {
	r := clamp(resistance, 0, MaxResistance)
	p := clamp(penetration, 0, 100)
	return r * (1 - p/100)
}

// ApplyResistance reduces incoming damage by the effective resistance.
//
// Postcondition: a positive incoming value yields at least 1; zero or
// negative incoming yields 0.
func ApplyResistance(incoming int, resistance, penetration float64) int {
	if incoming <= 0 {
		return 0
	}
	eff := EffectiveResistance(resistance, penetration)
	out := int(math.Floor(float64(incoming) * (1 - eff/100)))
	if out < 1 {
		return 1
	}
	return out
}

// Mobility is agility - weight/2.
func Mobility(agility, weight int) float64 {
	return float64(agility) - float64(weight)/2
}

// DodgeChance is clamp(30 + (defender-attacker)*2 - hitBonus + evasion*100, 0, 90).
func DodgeChance(defenderMobility, attackerMobility, hitBonus, evasionBonus float64) float64 {
	return clamp(baseDodgeChance+(defenderMobility-attackerMobility)*2-hitBonus+evasionBonus*100, 0, maxDodgeChance)
}

// RollDodge draws a uniform [0, 100) value and reports whether it is below dodgeChance.
func RollDodge(src Source, dodgeChance float64) bool {
	return percent(src, "dodge") < dodgeChance
}

// RollBlock draws a uniform [0, 1) value and reports whether it is below blockChance.
func RollBlock(src Source, blockChance float64) bool {
	return chance(src, "block", blockChance)
}

// EscapeChance is clamp(30 + (player-avgEnemy)*5, 10, 90).
func EscapeChance(playerMobility, avgEnemyMobility float64) float64 {
	return clamp(baseEscapeChance+(playerMobility-avgEnemyMobility)*5, minEscapeChance, maxEscapeChance)
}

// AverageMobility returns the mean mobility of the living combatants in cs,
// or 0 when none are alive.
func AverageMobility(cs []*Combatant) float64 {
	total, n := 0.0, 0
	for _, c := range cs {
		if !c.Alive() {
			continue
		}
		total += c.Mobility()
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// RollEscape computes the escape chance for player against the living enemies
// and draws a uniform [0, 100) value against it.
//
// Postcondition: returns the success flag and the chance used.
func RollEscape(src Source, player *Combatant, enemies []*Combatant) (bool, float64) {
	c := EscapeChance(player.Mobility(), AverageMobility(enemies))
	return percent(src, "escape") < c, c
}
