package special

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/equipment"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// Executor implements combat.SpecialAttackExecutor by calling the attack's
// Lua hook with the target's script index (enemy index + 1).
//
// A hook returns a message string on success, or false/nil (optionally with
// messages logged through engine.combat.message) when the attack fizzles.
// Costs are paid only when the hook succeeds; state changes a failing hook
// already made are kept.
type Executor struct {
	catalog  *Catalog
	scripts  *scripting.Manager
	resolver *combat.Resolver
	logger   *zap.Logger
}

// NewExecutor creates an Executor.
//
// Precondition: every argument must be non-nil.
func NewExecutor(catalog *Catalog, scripts *scripting.Manager, resolver *combat.Resolver, logger *zap.Logger) *Executor {
	return &Executor{catalog: catalog, scripts: scripts, resolver: resolver, logger: logger}
}

var _ combat.SpecialAttackExecutor = (*Executor)(nil)

// ExecuteSpecialAttack runs attackID against the enemy at targetIndex.
//
// Postcondition: Success is true only when the hook returned a message; the
// player's mana and stamina are unchanged on failure.
func (e *Executor) ExecuteSpecialAttack(ctx context.Context, st *combat.BattleState, attackID string, targetIndex int) combat.Report {
	atk, ok := e.catalog.Attack(attackID)
	if !ok || !e.scripts.HasHook(atk.Hook()) {
		return combat.Report{Message: fmt.Sprintf("You do not know the technique %q.", attackID)}
	}
	if _, err := st.Target(targetIndex); err != nil {
		return combat.Report{Message: "That target is not available."}
	}
	player := st.Player
	cost := e.resolver.Gear().AdjustSkillCost(equipment.Cost{Mana: atk.ManaCost, Stamina: atk.StaminaCost})
	if player.Mana < cost.Mana || player.Stamina < cost.Stamina {
		return combat.Report{Message: fmt.Sprintf("Not enough resources for %s (needs %d mana, %d stamina).", atk.Name, cost.Mana, cost.Stamina)}
	}

	host := &battleHost{st: st, src: e.resolver.Source(), sourceID: atk.ID}
	ret, err := e.scripts.CallHook(ctx, host, atk.Hook(), lua.LNumber(targetIndex+1))
	if err != nil {
		e.logger.Warn("special attack failed",
			zap.String("attack", atk.ID),
			zap.Error(err),
		)
		msg := fmt.Sprintf("%s falters.", atk.Name)
		if ctx.Err() != nil {
			msg = fmt.Sprintf("%s is interrupted.", atk.Name)
		}
		return combat.Report{Message: join(host.messages, msg)}
	}

	text, ok := ret.(lua.LString)
	if !ok {
		return combat.Report{Message: join(host.messages, fmt.Sprintf("%s has no effect.", atk.Name))}
	}
	player.Spend(cost.Mana, cost.Stamina)
	e.logger.Debug("special attack",
		zap.String("attack", atk.ID),
		zap.Int("target", targetIndex),
		zap.Int("mana", cost.Mana),
		zap.Int("stamina", cost.Stamina),
	)
	return combat.Report{Success: true, Message: join(host.messages, string(text))}
}

func join(lines []string, last string) string {
	if last != "" {
		lines = append(lines, last)
	}
	return strings.Join(lines, " ")
}
