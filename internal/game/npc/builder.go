package npc

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// SkillCatalog resolves skill ids referenced by templates.
type SkillCatalog interface {
	Skill(id string) (combat.Skill, bool)
}

// Build produces a fresh enemy snapshot from tmpl at level. Every field is
// set explicitly from the template plus (level - tmpl.Level) growth steps;
// the snapshot shares no mutable state with tmpl.
//
// Precondition: tmpl must be valid; skills may be nil.
// Postcondition: the snapshot is at full HP, mana and stamina and passes
// Combatant.Validate. Unknown ai_skills are returned in missing.
func Build(tmpl *Template, id string, level int, skills SkillCatalog) (c *combat.Combatant, missing []string) {
	if level < 1 {
		level = tmpl.Level
	}
	steps := level - tmpl.Level
	g := tmpl.Growth

	maxHP := atLeast(tmpl.MaxHP+steps*g.HP, 1)
	maxMana := atLeast(tmpl.MaxMana+steps*g.Mana, 0)
	maxStamina := atLeast(tmpl.MaxStamina+steps*g.Stamina, 0)

	name := tmpl.Name
	if level != tmpl.Level {
		name = fmt.Sprintf("%s (Lv%d)", tmpl.Name, level)
	}
	tag := tmpl.Tag
	if tag == "" {
		tag = tmpl.Category
	}

	c = &combat.Combatant{
		ID:         id,
		Kind:       combat.KindEnemy,
		Name:       name,
		Tag:        tag,
		Level:      level,
		HP:         maxHP,
		MaxHP:      maxHP,
		Mana:       maxMana,
		MaxMana:    maxMana,
		Stamina:    maxStamina,
		MaxStamina: maxStamina,
		Stats: combat.Stats{
			Attack:             atLeast(tmpl.Stats.Attack+steps*g.Attack, 0),
			PhysicalPower:      atLeast(tmpl.Stats.PhysicalPower+steps*g.PhysicalPower, 0),
			MagicPower:         atLeast(tmpl.Stats.MagicPower+steps*g.MagicPower, 0),
			PhysicalResistance: atLeast(tmpl.Stats.PhysicalResistance+steps*g.PhysicalResistance, 0),
			MagicResistance:    atLeast(tmpl.Stats.MagicResistance+steps*g.MagicResistance, 0),
			Agility:            atLeast(tmpl.Stats.Agility+steps*g.Agility, 0),
			Weight:             tmpl.Stats.Weight,
			CriticalChance:     tmpl.Stats.CriticalChance,
		},
		DropTable:        tmpl.Loot.DropEntries(),
		ExperienceReward: atLeast(tmpl.Experience+steps*g.Experience, 0),
	}
	for _, sid := range tmpl.AISkills {
		if skills == nil {
			missing = append(missing, sid)
			continue
		}
		s, ok := skills.Skill(sid)
		if !ok {
			missing = append(missing, sid)
			continue
		}
		c.AISkills = append(c.AISkills, s)
	}
	return c, missing
}

func atLeast(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
