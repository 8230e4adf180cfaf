package inventory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// ErrNotUsable is returned when a non-consumable item is used.
var ErrNotUsable = errors.New("inventory: item cannot be used")

// Pack resolves consumables from a Backpack against the in-battle player
// snapshot. It implements combat.Inventory.
type Pack struct {
	bag    *Backpack
	reg    *Registry
	roller *dice.Roller
	logger *zap.Logger
}

// NewPack creates a Pack.
//
// Precondition: all arguments must be non-nil.
func NewPack(bag *Backpack, reg *Registry, roller *dice.Roller, logger *zap.Logger) *Pack {
	return &Pack{bag: bag, reg: reg, roller: roller, logger: logger}
}

// Backpack returns the underlying backpack.
func (p *Pack) Backpack() *Backpack { return p.bag }

// UseItem applies one unit of itemID to target and consumes it.
//
// Postcondition: on error the backpack and target are unchanged. Errors wrap
// ErrUnknownItem, ErrNotUsable or ErrOutOfStock.
func (p *Pack) UseItem(ctx context.Context, itemID string, target *combat.Combatant) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	def, ok := p.reg.Item(itemID)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	if def.Kind != KindConsumable || def.Use == nil {
		return "", fmt.Errorf("%w: %q", ErrNotUsable, itemID)
	}
	if p.bag.Quantity(itemID) == 0 {
		return "", fmt.Errorf("%w: %q", ErrOutOfStock, itemID)
	}
	roll, err := p.roller.RollExpr(def.Use.Amount)
	if err != nil {
		return "", fmt.Errorf("rolling %q amount: %w", itemID, err)
	}
	if err := p.bag.Consume(itemID); err != nil {
		return "", err
	}
	amount := max(roll.Total(), 0)

	var msg string
	switch def.Use.Type {
	case UseHeal:
		msg = fmt.Sprintf("%s uses %s and recovers %d HP.", target.Name, def.Name, target.RestoreHP(amount))
	case UseRestoreMana:
		msg = fmt.Sprintf("%s uses %s and recovers %d mana.", target.Name, def.Name, target.RestoreMana(amount))
	case UseRestoreStamina:
		msg = fmt.Sprintf("%s uses %s and recovers %d stamina.", target.Name, def.Name, target.RestoreStamina(amount))
	case UseBuff:
		applyBuff(&target.Stats, def.Use.Stat, amount)
		msg = fmt.Sprintf("%s uses %s: %s +%d for this battle.", target.Name, def.Name, def.Use.Stat, amount)
	}
	p.logger.Debug("item used",
		zap.String("item", itemID),
		zap.String("type", def.Use.Type),
		zap.Int("amount", amount),
	)
	return msg, nil
}

// applyBuff raises one snapshot stat. The snapshot is discarded when the
// encounter resolves, so the buff never reaches persistent state.
func applyBuff(s *combat.Stats, stat string, amount int) {
	switch stat {
	case StatAttack:
		s.Attack += amount
	case StatPhysicalPower:
		s.PhysicalPower += amount
	case StatMagicPower:
		s.MagicPower += amount
	case StatAgility:
		s.Agility += amount
	case StatCriticalChance:
		s.CriticalChance += float64(amount)
	}
}

// AddLoot stores every rolled drop. Items the registry does not know are
// skipped and returned.
//
// Postcondition: returns the first ErrNoRoom encountered alongside the
// skipped ids.
func (p *Pack) AddLoot(loot []combat.LootItem) (skipped []string, err error) {
	for _, it := range loot {
		addErr := p.bag.Add(it.ItemID, it.Quantity)
		switch {
		case addErr == nil:
		case errors.Is(addErr, ErrUnknownItem):
			skipped = append(skipped, it.ItemID)
		default:
			if err == nil {
				err = addErr
			}
			skipped = append(skipped, it.ItemID)
		}
	}
	if len(skipped) > 0 {
		p.logger.Warn("loot not stored", zap.Strings("items", skipped), zap.Error(err))
	}
	return skipped, err
}

var _ combat.Inventory = (*Pack)(nil)
