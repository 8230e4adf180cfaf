package special

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// battleHost exposes one BattleState to a hook call. Index 0 is the player
// and 1..n are the enemies in encounter order.
type battleHost struct {
	st       *combat.BattleState
	src      combat.Source
	sourceID string
	messages []string
}

func (h *battleHost) at(idx int) (*combat.Combatant, error) {
	if idx == 0 {
		return h.st.Player, nil
	}
	if idx < 1 || idx > len(h.st.Enemies) {
		return nil, fmt.Errorf("no combatant at index %d", idx)
	}
	return h.st.Enemies[idx-1], nil
}

func (h *battleHost) Combatant(idx int) (scripting.CombatantInfo, bool) {
	c, err := h.at(idx)
	if err != nil {
		return scripting.CombatantInfo{}, false
	}
	return scripting.CombatantInfo{
		Index:      idx,
		Name:       c.Name,
		Tag:        c.Tag,
		Player:     c.IsPlayer(),
		Alive:      c.Alive(),
		HP:         c.HP,
		MaxHP:      c.MaxHP,
		Mana:       c.Mana,
		MaxMana:    c.MaxMana,
		Stamina:    c.Stamina,
		MaxStamina: c.MaxStamina,
	}, true
}

func (h *battleHost) Damage(idx, amount int) (int, error) {
	c, err := h.at(idx)
	if err != nil {
		return 0, err
	}
	if amount < 0 {
		return 0, fmt.Errorf("damage must be >= 0, got %d", amount)
	}
	return c.TakeDamage(amount), nil
}

func (h *battleHost) ApplyDOT(idx int, subtype string, damage, turns int) (bool, error) {
	c, err := h.at(idx)
	if err != nil {
		return false, err
	}
	spec := effect.DOTSpec{Subtype: subtype, DamagePerTurn: damage, Duration: turns}
	return c.Effects().ApplyDOT(spec, h.sourceID), nil
}

func (h *battleHost) ApplyCC(idx int, subtype string, turns int, chance float64) (bool, error) {
	c, err := h.at(idx)
	if err != nil {
		return false, err
	}
	cc := effect.CCType(subtype)
	if !cc.Valid() {
		return false, fmt.Errorf("unknown crowd control %q", subtype)
	}
	spec := effect.CCSpec{Subtype: cc, Duration: turns, Chance: chance}
	return c.Effects().ApplyCC(spec, h.sourceID, h.src), nil
}

func (h *battleHost) ApplyMark(idx int, bonus float64, turns int) (bool, error) {
	c, err := h.at(idx)
	if err != nil {
		return false, err
	}
	return c.Effects().ApplyMark(effect.MarkSpec{DamageBonus: bonus, Duration: turns}, h.sourceID), nil
}

func (h *battleHost) ApplyReflect(idx int, percent float64, turns int) (bool, error) {
	c, err := h.at(idx)
	if err != nil {
		return false, err
	}
	return c.Effects().ApplyReflect(effect.ReflectSpec{Percent: percent, Duration: turns}, h.sourceID), nil
}

func (h *battleHost) DamageBonus(idx int) float64 {
	c, err := h.at(idx)
	if err != nil {
		return 0
	}
	return c.Effects().DamageBonus()
}

func (h *battleHost) ReflectPercent(idx int) float64 {
	c, err := h.at(idx)
	if err != nil {
		return 0
	}
	return c.Effects().ReflectPercent()
}

func (h *battleHost) Log(msg string) {
	h.messages = append(h.messages, msg)
}
