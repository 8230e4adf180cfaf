package combat

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// SkillEffect is the special effect a skill rolls onto its target.
// Exactly one of the spec pointers matching Kind is set.
type SkillEffect struct {
	Kind    string              `yaml:"kind"` // dot | cc | mark | reflect
	DOT     *effect.DOTSpec     `yaml:"dot"`
	CC      *effect.CCSpec      `yaml:"cc"`
	Mark    *effect.MarkSpec    `yaml:"mark"`
	Reflect *effect.ReflectSpec `yaml:"reflect"`
	// Self applies the effect to the caster instead of the target (reflect shields).
	Self bool `yaml:"self"`
}

// Skill is a damaging ability usable by the player or an enemy AI.
type Skill struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	BaseDamage  int          `yaml:"base_damage"`
	DamageType  string       `yaml:"damage_type"`
	ManaCost    int          `yaml:"mana_cost"`
	StaminaCost int          `yaml:"stamina_cost"`
	Cooldown    int          `yaml:"cooldown"`
	HitBonus    float64      `yaml:"hit_bonus"`
	Effect      *SkillEffect `yaml:"effect"`
}

// Validate checks the skill invariants.
func (s Skill) Validate() error {
	if s.ID == "" {
		return errors.New("skill: id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("skill %q: name must not be empty", s.ID)
	}
	if s.BaseDamage < 0 || s.ManaCost < 0 || s.StaminaCost < 0 || s.Cooldown < 0 {
		return fmt.Errorf("skill %q: damage, costs and cooldown must be >= 0", s.ID)
	}
	if s.Effect != nil {
		if err := s.Effect.Validate(); err != nil {
			return fmt.Errorf("skill %q: %w", s.ID, err)
		}
	}
	return nil
}

// Validate checks that the spec matching Kind is present.
func (e SkillEffect) Validate() error {
	k, err := effect.ParseKind(e.Kind)
	if err != nil {
		return err
	}
	switch k {
	case effect.KindDamageOverTime:
		if e.DOT == nil {
			return errors.New("dot effect requires a dot block")
		}
	case effect.KindCrowdControl:
		if e.CC == nil || !e.CC.Subtype.Valid() {
			return errors.New("cc effect requires a cc block with subtype stun, freeze or slow")
		}
	case effect.KindMark:
		if e.Mark == nil {
			return errors.New("mark effect requires a mark block")
		}
	case effect.KindReflect:
		if e.Reflect == nil {
			return errors.New("reflect effect requires a reflect block")
		}
	}
	return nil
}
