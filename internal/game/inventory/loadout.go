package inventory

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/equipment"
)

// Loadout tracks the player's equipped items and keeps the equipment
// aggregator in step with them.
// Invariant: each slot holds at most one item, and gear carries exactly the
// passives of the equipped items.
type Loadout struct {
	reg   *Registry
	gear  *equipment.Aggregator
	slots map[string]*ItemDef
}

// NewLoadout returns an empty Loadout driving gear.
//
// Precondition: reg and gear must not be nil.
// Postcondition: all slots are empty.
func NewLoadout(reg *Registry, gear *equipment.Aggregator) *Loadout {
	return &Loadout{reg: reg, gear: gear, slots: make(map[string]*ItemDef)}
}

// Equip places the item into its declared slot, replacing whatever was there.
//
// Precondition: itemID must be a registered equipment item.
// Postcondition: on success Equipped(def.Slot) returns def and the previous
// occupant's passives are gone from gear.
func (l *Loadout) Equip(itemID string) error {
	def, ok := l.reg.Item(itemID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	if def.Kind != KindEquipment {
		return fmt.Errorf("inventory: Loadout.Equip: %q is not equipment", itemID)
	}
	l.slots[def.Slot] = def
	l.gear.OnEquip(def.Slot, def.Passives)
	return nil
}

// Unequip removes the item from slot.
//
// Postcondition: Equipped(slot) == nil.
func (l *Loadout) Unequip(slot string) {
	delete(l.slots, slot)
	l.gear.OnUnequip(slot)
}

// Equipped returns the item in slot, or nil if empty.
func (l *Loadout) Equipped(slot string) *ItemDef {
	return l.slots[slot]
}

// Slots returns the occupied slot names, sorted.
func (l *Loadout) Slots() []string {
	out := make([]string, 0, len(l.slots))
	for s := range l.slots {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
