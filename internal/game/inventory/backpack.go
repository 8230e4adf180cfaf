package inventory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sentinel errors for backpack operations.
var (
	ErrUnknownItem = errors.New("inventory: unknown item")
	ErrOutOfStock  = errors.New("inventory: none left")
	ErrNoRoom      = errors.New("inventory: backpack is full")
)

// ItemInstance is one stack of an item in a backpack.
type ItemInstance struct {
	InstanceID string
	ItemDefID  string
	Quantity   int
}

// Backpack is a container with slot and weight limits. It is safe for
// concurrent use.
type Backpack struct {
	MaxSlots  int
	MaxWeight float64

	reg   *Registry
	mu    sync.Mutex
	items []ItemInstance
}

// NewBackpack creates a Backpack over reg with the given limits.
//
// Precondition: reg must not be nil; maxSlots >= 0 and maxWeight >= 0.
// Postcondition: returned Backpack has zero items and the specified limits.
func NewBackpack(reg *Registry, maxSlots int, maxWeight float64) *Backpack {
	return &Backpack{MaxSlots: maxSlots, MaxWeight: maxWeight, reg: reg}
}

// Add places quantity units of the given item into the backpack, filling
// existing stacks before opening new ones. It is atomic: if limits would be
// exceeded, no state is modified.
//
// Precondition: quantity > 0.
// Postcondition: returns ErrUnknownItem for an unregistered id and ErrNoRoom
// when the slot or weight limit would be exceeded.
func (b *Backpack) Add(itemDefID string, quantity int) error {
	def, ok := b.reg.Item(itemDefID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, itemDefID)
	}
	if quantity <= 0 {
		return fmt.Errorf("backpack: quantity must be > 0")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	added := float64(quantity) * def.Weight
	if current := b.weightLocked(); current+added > b.MaxWeight {
		return fmt.Errorf("%w: adding %d of %q would exceed weight limit (%.2f + %.2f > %.2f)",
			ErrNoRoom, quantity, itemDefID, current, added, b.MaxWeight)
	}

	stack := 1
	if def.Stackable {
		stack = def.MaxStack
	}

	// Room left in existing stacks, then how many new stacks the rest needs.
	remaining := quantity
	for i := range b.items {
		if b.items[i].ItemDefID == def.ID {
			remaining -= min(remaining, stack-b.items[i].Quantity)
		}
	}
	newSlots := (remaining + stack - 1) / stack
	if len(b.items)+newSlots > b.MaxSlots {
		return fmt.Errorf("%w: %d more slots needed for %q", ErrNoRoom, newSlots, itemDefID)
	}

	remaining = quantity
	for i := range b.items {
		if remaining == 0 {
			break
		}
		if b.items[i].ItemDefID == def.ID {
			take := min(remaining, stack-b.items[i].Quantity)
			b.items[i].Quantity += take
			remaining -= take
		}
	}
	for remaining > 0 {
		q := min(remaining, stack)
		b.items = append(b.items, ItemInstance{
			InstanceID: uuid.New().String(),
			ItemDefID:  def.ID,
			Quantity:   q,
		})
		remaining -= q
	}
	return nil
}

// Consume removes one unit of itemDefID, taking it from the last stack.
//
// Postcondition: returns ErrOutOfStock when the backpack holds none.
func (b *Backpack) Consume(itemDefID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.items) - 1; i >= 0; i-- {
		if b.items[i].ItemDefID != itemDefID {
			continue
		}
		b.items[i].Quantity--
		if b.items[i].Quantity == 0 {
			b.items = append(b.items[:i], b.items[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrOutOfStock, itemDefID)
}

// Quantity returns the total units of itemDefID across all stacks.
func (b *Backpack) Quantity(itemDefID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, inst := range b.items {
		if inst.ItemDefID == itemDefID {
			n += inst.Quantity
		}
	}
	return n
}

// Items returns a snapshot copy of all items in the backpack.
//
// Postcondition: returned slice is a copy; mutations do not affect the backpack.
func (b *Backpack) Items() []ItemInstance {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ItemInstance, len(b.items))
	copy(out, b.items)
	return out
}

// UsedSlots returns the number of occupied slots.
func (b *Backpack) UsedSlots() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// TotalWeight returns the sum of quantity*weight for all items.
//
// Postcondition: result >= 0.
func (b *Backpack) TotalWeight() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.weightLocked()
}

func (b *Backpack) weightLocked() float64 {
	var total float64
	for _, inst := range b.items {
		if def, ok := b.reg.Item(inst.ItemDefID); ok {
			total += float64(inst.Quantity) * def.Weight
		}
	}
	return total
}
