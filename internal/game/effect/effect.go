// Package effect implements the status effect ledger: timed damage-over-time,
// crowd-control, mark and reflect effects owned by a single combatant.
package effect

import "fmt"

// Kind identifies one of the closed set of effect variants.
type Kind int

const (
	KindDamageOverTime Kind = iota
	KindCrowdControl
	KindMark
	KindReflect
)

// String returns the lower-case label for k.
func (k Kind) String() string {
	switch k {
	case KindDamageOverTime:
		return "dot"
	case KindCrowdControl:
		return "cc"
	case KindMark:
		return "mark"
	case KindReflect:
		return "reflect"
	default:
		return "unknown"
	}
}

// ParseKind maps a content label ("dot", "cc", "mark", "reflect") to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "dot":
		return KindDamageOverTime, nil
	case "cc":
		return KindCrowdControl, nil
	case "mark":
		return KindMark, nil
	case "reflect":
		return KindReflect, nil
	}
	return 0, fmt.Errorf("effect: unknown kind %q", s)
}

// CCType is the crowd-control subtype.
type CCType string

const (
	Stun   CCType = "stun"
	Freeze CCType = "freeze"
	Slow   CCType = "slow"
)

// Valid reports whether c is one of stun, freeze or slow.
func (c CCType) Valid() bool {
	return c == Stun || c == Freeze || c == Slow
}

// Effect is one active timed effect. The interface is sealed: only the
// variants declared in this package satisfy it.
type Effect interface {
	Kind() Kind
	// Remaining is the number of ticks left before the effect is removed.
	Remaining() int
	// SourceID identifies the skill, item or actor that applied the effect.
	SourceID() string
	decrement() int
}

type timed struct {
	remainingTurns int
	sourceID       string
}

func (t *timed) Remaining() int   { return t.remainingTurns }
func (t *timed) SourceID() string { return t.sourceID }

func (t *timed) decrement() int {
	t.remainingTurns--
	return t.remainingTurns
}

// DamageOverTime deals DamagePerTurn at every tick.
type DamageOverTime struct {
	timed
	Subtype       string
	DamagePerTurn int
}

// Kind implements Effect.
func (*DamageOverTime) Kind() Kind { return KindDamageOverTime }

// CrowdControl restricts (stun, freeze) or degrades (slow) its owner.
type CrowdControl struct {
	timed
	Subtype CCType
}

// Kind implements Effect.
func (*CrowdControl) Kind() Kind { return KindCrowdControl }

// Mark increases the damage its owner receives by DamageBonus (a fraction).
type Mark struct {
	timed
	DamageBonus float64
}

// Kind implements Effect.
func (*Mark) Kind() Kind { return KindMark }

// Reflect returns Percent (a fraction) of incoming damage to the attacker.
type Reflect struct {
	timed
	Percent float64
}

// Kind implements Effect.
func (*Reflect) Kind() Kind { return KindReflect }

// DOTSpec describes a damage-over-time effect to apply. Chance is only
// consulted by callers that roll a trigger (weapon descriptors, skills).
type DOTSpec struct {
	Subtype       string  `yaml:"subtype"`
	DamagePerTurn int     `yaml:"damage"`
	Duration      int     `yaml:"duration"`
	Chance        float64 `yaml:"chance"`
}

// CCSpec describes a crowd-control effect; Chance is the trigger probability in [0, 1].
type CCSpec struct {
	Subtype  CCType  `yaml:"subtype"`
	Duration int     `yaml:"duration"`
	Chance   float64 `yaml:"chance"`
}

// MarkSpec describes a mark effect.
type MarkSpec struct {
	DamageBonus float64 `yaml:"damage_bonus"`
	Duration    int     `yaml:"duration"`
}

// ReflectSpec describes a reflect effect.
type ReflectSpec struct {
	Percent  float64 `yaml:"percent"`
	Duration int     `yaml:"duration"`
}
