package npc

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Quantity is a drop quantity written either as a fixed integer or as a
// two-element [min, max] range.
type Quantity struct {
	Min int
	Max int
}

// UnmarshalYAML accepts `3` or `[1, 4]`.
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var n int
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		q.Min, q.Max = n, n
		return nil
	case yaml.SequenceNode:
		var r []int
		if err := node.Decode(&r); err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		if len(r) != 2 {
			return fmt.Errorf("quantity: range must have exactly two elements, got %d", len(r))
		}
		q.Min, q.Max = r[0], r[1]
		return nil
	}
	return fmt.Errorf("quantity: expected an integer or [min, max] at line %d", node.Line)
}

// ItemDrop defines a single item entry in a loot table with a drop chance.
type ItemDrop struct {
	ItemID   string   `yaml:"item"`
	Chance   float64  `yaml:"chance"`
	Quantity Quantity `yaml:"quantity"`
}

// LootTable defines the possible loot drops for an enemy template.
type LootTable struct {
	Items []ItemDrop `yaml:"items"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff every entry converts to a valid
// combat.DropEntry; an empty loot table is valid.
func (lt *LootTable) Validate() error {
	for i, e := range lt.DropEntries() {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("loot table: item[%d]: %w", i, err)
		}
	}
	return nil
}

// DropEntries converts the table into the engine's drop table form.
//
// Postcondition: Returns nil for an empty table.
func (lt *LootTable) DropEntries() []combat.DropEntry {
	if lt == nil || len(lt.Items) == 0 {
		return nil
	}
	out := make([]combat.DropEntry, 0, len(lt.Items))
	for _, it := range lt.Items {
		out = append(out, combat.DropEntry{
			ItemID: it.ItemID,
			Chance: it.Chance,
			MinQty: it.Quantity.Min,
			MaxQty: it.Quantity.Max,
		})
	}
	return out
}
