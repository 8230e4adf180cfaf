package combat

import (
	"fmt"

	"github.com/google/uuid"
)

// OutcomeKind is how an encounter ended.
type OutcomeKind int

const (
	OutcomeVictory OutcomeKind = iota
	OutcomeDefeat
	OutcomeEscape
)

// String returns a human-readable outcome label.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	case OutcomeEscape:
		return "escape"
	default:
		return "unknown"
	}
}

// Outcome is emitted once when an encounter resolves.
type Outcome struct {
	EncounterID string
	PlayerID    string
	Kind        OutcomeKind
	Experience  int
	Loot        []LootItem
	// HPLoss is the pre-battle player HP minus the final player HP.
	HPLoss      int
	FinalHP     int
	Rounds      int
	Log         []LogEntry
}

// DropEntry is one line of an enemy drop table.
type DropEntry struct {
	ItemID string
	// Chance is the drop probability in (0, 1].
	Chance float64
	MinQty int
	MaxQty int
}

// Validate checks the entry invariants.
func (d DropEntry) Validate() error {
	if d.ItemID == "" {
		return fmt.Errorf("drop entry must have a non-empty item id")
	}
	if d.Chance <= 0 || d.Chance > 1.0 {
		return fmt.Errorf("drop %q chance must be in (0, 1.0], got %f", d.ItemID, d.Chance)
	}
	if d.MinQty < 1 || d.MinQty > d.MaxQty {
		return fmt.Errorf("drop %q quantity range [%d, %d] is invalid", d.ItemID, d.MinQty, d.MaxQty)
	}
	return nil
}

// DefaultDropTable is rolled for enemies without a drop table of their own.
var DefaultDropTable = []DropEntry{
	{ItemID: "铜币", Chance: 0.7, MinQty: 1, MaxQty: 10},
	{ItemID: "草药", Chance: 0.3, MinQty: 1, MaxQty: 2},
	{ItemID: "兽皮", Chance: 0.2, MinQty: 1, MaxQty: 1},
}

// LootItem is a rolled drop.
type LootItem struct {
	ItemID     string `json:"item_id"`
	InstanceID string `json:"instance_id"`
	Quantity   int    `json:"quantity"`
}

// RollLoot rolls every entry of table independently.
//
// Postcondition: each returned Quantity is in [MinQty, MaxQty] of its entry.
func RollLoot(src Source, table []DropEntry) []LootItem {
	var out []LootItem
	for _, d := range table {
		if !chance(src, "loot "+d.ItemID, d.Chance) {
			continue
		}
		qty := d.MinQty
		if spread := d.MaxQty - d.MinQty; spread > 0 {
			qty += src.Intn(spread + 1)
		}
		out = append(out, LootItem{ItemID: d.ItemID, InstanceID: uuid.New().String(), Quantity: qty})
	}
	return out
}

// mergeLoot sums quantities of the same item, preserving first-seen order.
func mergeLoot(items []LootItem) []LootItem {
	idx := make(map[string]int, len(items))
	var out []LootItem
	for _, it := range items {
		if i, ok := idx[it.ItemID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.ItemID] = len(out)
		out = append(out, it)
	}
	return out
}

// resolveLoot rolls each enemy's table, or DefaultDropTable when it has none.
func resolveLoot(src Source, enemies []*Combatant) []LootItem {
	var all []LootItem
	for _, e := range enemies {
		table := e.DropTable
		if len(table) == 0 {
			table = DefaultDropTable
		}
		all = append(all, RollLoot(src, table)...)
	}
	return mergeLoot(all)
}

// experienceFor is sum(level * perLevel) over enemies.
func experienceFor(enemies []*Combatant, perLevel int) int {
	total := 0
	for _, e := range enemies {
		total += e.Level * perLevel
	}
	return total
}
