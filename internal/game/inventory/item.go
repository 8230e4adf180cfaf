// Package inventory holds item definitions, the player's backpack, and the
// equipped loadout that feeds the equipment aggregator.
package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/equipment"
)

// Kind constants for ItemDef.Kind.
const (
	KindConsumable = "consumable"
	KindEquipment  = "equipment"
	KindMaterial   = "material"
)

// validKinds is the set of valid ItemDef kinds.
var validKinds = map[string]bool{
	KindConsumable: true,
	KindEquipment:  true,
	KindMaterial:   true,
}

// Use effect types for consumables.
const (
	UseHeal           = "heal"
	UseRestoreMana    = "restore_mana"
	UseRestoreStamina = "restore_stamina"
	UseBuff           = "buff"
)

// Buffable stats for UseBuff.
const (
	StatAttack         = "attack"
	StatPhysicalPower  = "physical_power"
	StatMagicPower     = "magic_power"
	StatAgility        = "agility"
	StatCriticalChance = "critical_chance"
)

var validBuffStats = map[string]bool{
	StatAttack: true, StatPhysicalPower: true, StatMagicPower: true,
	StatAgility: true, StatCriticalChance: true,
}

// UseEffect is what a consumable does when used in battle.
type UseEffect struct {
	Type string `yaml:"type"`
	// Amount is a flat integer ("30") or a dice expression ("2d6+10").
	Amount string `yaml:"amount"`
	// Stat names the snapshot stat raised by a buff.
	Stat string `yaml:"stat"`
}

// Validate checks the use effect.
func (u *UseEffect) Validate() error {
	switch u.Type {
	case UseHeal, UseRestoreMana, UseRestoreStamina:
	case UseBuff:
		if !validBuffStats[u.Stat] {
			return fmt.Errorf("buff stat %q is not one of attack, physical_power, magic_power, agility, critical_chance", u.Stat)
		}
	default:
		return fmt.Errorf("use type %q is not one of heal, restore_mana, restore_stamina, buff", u.Type)
	}
	if _, err := dice.Parse(u.Amount); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	return nil
}

// ItemDef defines the static properties of an inventory item loaded from YAML.
type ItemDef struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Kind        string  `yaml:"kind"`
	Weight      float64 `yaml:"weight"`
	Stackable   bool    `yaml:"stackable"`
	MaxStack    int     `yaml:"max_stack"`
	Value       int     `yaml:"value"`
	// Use is required for consumables.
	Use *UseEffect `yaml:"use"`
	// Slot and Passives are required for equipment.
	Slot     string                 `yaml:"slot"`
	Passives []equipment.Descriptor `yaml:"passives"`
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid; otherwise every
// violation is reported.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("kind must be one of consumable, equipment, material; got %q", d.Kind))
	}
	if d.MaxStack < 1 {
		errs = append(errs, errors.New("max_stack must be >= 1"))
	}
	if d.Weight < 0 {
		errs = append(errs, errors.New("weight must be >= 0"))
	}
	if d.Kind == KindConsumable {
		if d.Use == nil {
			errs = append(errs, errors.New("use is required when kind is consumable"))
		} else if err := d.Use.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.Kind == KindEquipment {
		if d.Slot == "" {
			errs = append(errs, errors.New("slot is required when kind is equipment"))
		}
		for i, p := range d.Passives {
			if err := p.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("passives[%d]: %w", i, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// LoadItems reads all *.yaml and *.yml files from dir, parses each as an
// ItemDef, validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		d, err := ParseItem(data)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: %q: %w", path, err)
		}
		items = append(items, d)
	}
	return items, nil
}

// ParseItem decodes and validates a single ItemDef. Unknown fields are rejected.
func ParseItem(data []byte) (*ItemDef, error) {
	var d ItemDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("cannot parse item: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
