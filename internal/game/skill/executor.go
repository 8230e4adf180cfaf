package skill

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/equipment"
)

// Executor runs player skills through the hit pipeline and tracks cooldowns.
// It implements combat.SkillExecutor and combat.CooldownTicker.
type Executor struct {
	catalog  *Catalog
	resolver *combat.Resolver
	logger   *zap.Logger

	mu        sync.Mutex
	learned   map[string]bool
	cooldowns map[string]int
	encounter string
}

// NewExecutor creates an Executor. A nil or empty learned list allows every
// catalog skill.
//
// Precondition: catalog, resolver and logger must be non-nil.
func NewExecutor(catalog *Catalog, resolver *combat.Resolver, learned []string, logger *zap.Logger) *Executor {
	e := &Executor{
		catalog:   catalog,
		resolver:  resolver,
		logger:    logger,
		cooldowns: make(map[string]int),
	}
	if len(learned) > 0 {
		e.learned = make(map[string]bool, len(learned))
		for _, id := range learned {
			e.learned[id] = true
		}
	}
	return e
}

// Cooldown returns the rounds remaining before skillID can be used again.
func (e *Executor) Cooldown(skillID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cooldowns[skillID]
}

// ExecuteSkill validates and pays for skillID, resolves the hit on the enemy
// at targetIndex, and rolls the skill's special effect when the hit lands.
//
// Postcondition: a failed validation returns Success == false and leaves the
// player's resources and cooldowns untouched.
func (e *Executor) ExecuteSkill(_ context.Context, st *combat.BattleState, skillID string, targetIndex int) combat.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syncEncounter(st)

	sk, ok := e.catalog.Skill(skillID)
	if !ok || (e.learned != nil && !e.learned[skillID]) {
		return combat.Report{Message: fmt.Sprintf("You do not know %q.", skillID)}
	}
	if cd := e.cooldowns[skillID]; cd > 0 {
		return combat.Report{Message: fmt.Sprintf("%s is on cooldown for %d more rounds.", sk.Name, cd)}
	}
	target, err := st.Target(targetIndex)
	if err != nil {
		return combat.Report{Message: "That target is not available."}
	}
	player := st.Player
	cost := e.resolver.Gear().AdjustSkillCost(equipment.Cost{Mana: sk.ManaCost, Stamina: sk.StaminaCost})
	if !player.Spend(cost.Mana, cost.Stamina) {
		return combat.Report{Message: fmt.Sprintf("Not enough resources for %s (needs %d mana, %d stamina).", sk.Name, cost.Mana, cost.Stamina)}
	}

	res := e.resolver.ResolveHit(combat.Attack{Attacker: player, Defender: target, Skill: &sk})
	msgs := res.Messages
	if res.Landed() {
		msgs = append(msgs, e.resolver.ApplySkillEffect(player, target, &sk)...)
	}
	if sk.Cooldown > 0 {
		e.cooldowns[skillID] = sk.Cooldown
	}
	e.logger.Debug("skill executed",
		zap.String("skill", skillID),
		zap.String("target", target.Name),
		zap.Int("mana", cost.Mana),
		zap.Int("stamina", cost.Stamina),
		zap.Int("damage", res.Damage),
	)
	return combat.Report{Success: true, Message: strings.Join(msgs, " ")}
}

// TickCooldowns decrements every running cooldown by one round.
//
// Postcondition: no cooldown drops below zero; cooldowns from a previous
// encounter are cleared.
func (e *Executor) TickCooldowns(st *combat.BattleState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syncEncounter(st)
	for id, cd := range e.cooldowns {
		if cd <= 1 {
			delete(e.cooldowns, id)
			continue
		}
		e.cooldowns[id] = cd - 1
	}
}

func (e *Executor) syncEncounter(st *combat.BattleState) {
	if st.ID != e.encounter {
		e.encounter = st.ID
		clear(e.cooldowns)
	}
}

var (
	_ combat.SkillExecutor  = (*Executor)(nil)
	_ combat.CooldownTicker = (*Executor)(nil)
)
