// Package npc provides enemy template definitions and builds per-encounter
// enemy snapshots from them.
package npc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Growth holds the per-level increments applied when an enemy is provisioned
// above or below its template level.
type Growth struct {
	HP                 int `yaml:"hp"`
	Mana               int `yaml:"mana"`
	Stamina            int `yaml:"stamina"`
	Attack             int `yaml:"attack"`
	PhysicalPower      int `yaml:"physical_power"`
	MagicPower         int `yaml:"magic_power"`
	PhysicalResistance int `yaml:"physical_resistance"`
	MagicResistance    int `yaml:"magic_resistance"`
	Agility            int `yaml:"agility"`
	Experience         int `yaml:"experience"`
}

// Template defines a reusable enemy archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Category groups templates for random selection (e.g. "beast", "undead").
	Category string `yaml:"category"`
	// Species is matched against EnemyRequest.Species; empty defaults to ID.
	Species    string       `yaml:"species"`
	Tag        string       `yaml:"tag"`
	Level      int          `yaml:"level"`
	MaxHP      int          `yaml:"max_hp"`
	MaxMana    int          `yaml:"max_mana"`
	MaxStamina int          `yaml:"max_stamina"`
	Stats      combat.Stats `yaml:"stats"`
	Growth     Growth       `yaml:"growth"`
	// AISkills lists skill catalog ids the enemy may use instead of a basic attack.
	AISkills   []string   `yaml:"ai_skills"`
	Experience int        `yaml:"experience"`
	Loot       *LootTable `yaml:"loot"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// MaxHP >= 1, no pool or stat is negative, and the loot table is valid.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("npc template %q: level must be >= 1", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("npc template %q: max_hp must be >= 1", t.ID)
	}
	if t.MaxMana < 0 || t.MaxStamina < 0 {
		return fmt.Errorf("npc template %q: max_mana and max_stamina must be >= 0", t.ID)
	}
	s := t.Stats
	if s.Attack < 0 || s.PhysicalPower < 0 || s.MagicPower < 0 || s.Agility < 0 || s.Weight < 0 {
		return fmt.Errorf("npc template %q: stats must be >= 0", t.ID)
	}
	if s.CriticalChance < 0 || s.CriticalChance > 100 {
		return fmt.Errorf("npc template %q: critical_chance must be in [0, 100], got %f", t.ID, s.CriticalChance)
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			return fmt.Errorf("npc template %q: %w", t.ID, err)
		}
	}
	return nil
}

// SpeciesKey returns Species, or ID when Species is empty.
func (t *Template) SpeciesKey() string {
	if t.Species != "" {
		return t.Species
	}
	return t.ID
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
// Unknown fields are rejected.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
