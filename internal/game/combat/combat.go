// Package combat implements the turn-based combat resolution engine: damage
// math, the per-hit pipeline, and the encounter state machine.
package combat

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// Kind distinguishes the player combatant from enemy combatants.
type Kind int

const (
	KindPlayer Kind = iota
	KindEnemy
)

// PlayerTag is the category tag carried by the player snapshot.
const PlayerTag = "player"

// Damage types. Any type other than Physical (an element such as "fire")
// scales with magic power and is reduced by magic resistance.
const (
	Physical = "physical"
	Magic    = "magic"
)

// IsPhysical reports whether damageType is physical. The empty type is physical.
func IsPhysical(damageType string) bool {
	return damageType == "" || damageType == Physical
}

// Stats holds the combat statistics of a snapshot.
type Stats struct {
	Attack             int     `yaml:"attack"`
	PhysicalPower      int     `yaml:"physical_power"`
	MagicPower         int     `yaml:"magic_power"`
	PhysicalResistance int     `yaml:"physical_resistance"`
	MagicResistance    int     `yaml:"magic_resistance"`
	Agility            int     `yaml:"agility"`
	Weight             int     `yaml:"weight"`
	CriticalChance     float64 `yaml:"critical_chance"`
}

// Combatant is a mutable per-encounter copy of a fighter's stats. It is
// independent of any persistent record and is owned by one encounter.
//
// Invariant: 0 <= HP <= MaxHP, 0 <= Mana <= MaxMana, 0 <= Stamina <= MaxStamina
// after every mutation made through its methods.
type Combatant struct {
	ID    string
	Kind  Kind
	Name  string
	Tag   string
	Level int

	HP         int
	MaxHP      int
	Mana       int
	MaxMana    int
	Stamina    int
	MaxStamina int

	Stats Stats

	// Defending halves the next incoming hit, then clears.
	Defending bool

	// Enemy-only data.
	AISkills         []Skill
	DropTable        []DropEntry
	ExperienceReward int

	effects *effect.Set
}

// IsPlayer reports whether this combatant is the player.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// Alive reports whether HP is above zero.
func (c *Combatant) Alive() bool { return c.HP > 0 }

// DisplayName returns the name shown in the battle log.
func (c *Combatant) DisplayName() string { return c.Name }

// Effects returns the combatant's status effect set, creating it on first use.
func (c *Combatant) Effects() *effect.Set {
	if c.effects == nil {
		c.effects = effect.NewSet()
	}
	return c.effects
}

// HPFraction returns HP/MaxHP, or 0 when MaxHP is not positive.
func (c *Combatant) HPFraction() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP)
}

// TakeDamage reduces HP by amount, flooring at zero.
//
// Postcondition: returns the HP actually lost; HP >= 0.
func (c *Combatant) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > c.HP {
		amount = c.HP
	}
	c.HP -= amount
	return amount
}

// RestoreHP heals up to MaxHP and returns the HP actually restored.
func (c *Combatant) RestoreHP(amount int) int { return restore(&c.HP, c.MaxHP, amount) }

// RestoreMana restores up to MaxMana and returns the amount actually restored.
func (c *Combatant) RestoreMana(amount int) int { return restore(&c.Mana, c.MaxMana, amount) }

// RestoreStamina restores up to MaxStamina and returns the amount actually restored.
func (c *Combatant) RestoreStamina(amount int) int {
	return restore(&c.Stamina, c.MaxStamina, amount)
}

func restore(cur *int, max, amount int) int {
	if amount <= 0 || *cur >= max {
		return 0
	}
	if *cur+amount > max {
		amount = max - *cur
	}
	*cur += amount
	return amount
}

// Spend deducts mana and stamina together.
//
// Postcondition: returns false and changes nothing when either pool is short.
func (c *Combatant) Spend(mana, stamina int) bool {
	if mana > c.Mana || stamina > c.Stamina {
		return false
	}
	c.Mana -= max(mana, 0)
	c.Stamina -= max(stamina, 0)
	return true
}

// Power returns the stat a skill of damageType scales with.
func (c *Combatant) Power(damageType string) int {
	if IsPhysical(damageType) {
		return c.Stats.PhysicalPower
	}
	return c.Stats.MagicPower
}

// Resistance returns the raw resistance against damageType.
func (c *Combatant) Resistance(damageType string) int {
	if IsPhysical(damageType) {
		return c.Stats.PhysicalResistance
	}
	return c.Stats.MagicResistance
}

// Mobility returns agility - weight/2.
func (c *Combatant) Mobility() float64 {
	return Mobility(c.Stats.Agility, c.Stats.Weight)
}

// Normalize clamps current resources into [0, max] and max values to >= 0.
func (c *Combatant) Normalize() {
	clampPool(&c.HP, &c.MaxHP)
	clampPool(&c.Mana, &c.MaxMana)
	clampPool(&c.Stamina, &c.MaxStamina)
}

func clampPool(cur, max *int) {
	if *max < 0 {
		*max = 0
	}
	*cur = int(math.Min(math.Max(float64(*cur), 0), float64(*max)))
}

// Validate reports whether the snapshot is usable in an encounter.
func (c *Combatant) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if c.Level < 1 {
		errs = append(errs, fmt.Errorf("level must be >= 1, got %d", c.Level))
	}
	if c.MaxHP < 1 {
		errs = append(errs, fmt.Errorf("max hp must be >= 1, got %d", c.MaxHP))
	}
	if c.Stats.Attack < 0 || c.Stats.PhysicalPower < 0 || c.Stats.MagicPower < 0 {
		errs = append(errs, errors.New("attack and power stats must be >= 0"))
	}
	for i, d := range c.DropTable {
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("drop[%d]: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("combatant %q: %w", c.Name, errors.Join(errs...))
	}
	return nil
}

// FallbackEnemy builds a minimal enemy whose stats derive from level alone.
// It substitutes for enemy descriptors that could not be provisioned.
//
// Postcondition: the returned snapshot passes Validate.
func FallbackEnemy(id string, level int) *Combatant {
	if level < 1 {
		level = 1
	}
	hp := 20 + level*10
	return &Combatant{
		ID:         id,
		Kind:       KindEnemy,
		Name:       fmt.Sprintf("Wandering Shade (Lv%d)", level),
		Tag:        "shade",
		Level:      level,
		HP:         hp,
		MaxHP:      hp,
		Stamina:    10,
		MaxStamina: 10,
		Stats: Stats{
			Attack:         5 + level*2,
			PhysicalPower:  10,
			MagicPower:     10,
			Agility:        5,
			Weight:         10,
			CriticalChance: 5,
		},
		ExperienceReward: level * 25,
	}
}
