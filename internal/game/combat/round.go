package combat

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// runEnemyPhase resolves every living enemy's action in original order and
// then closes the round.
//
// Postcondition: returns (outcome, true) when the phase resolved the
// encounter; otherwise the round counter is incremented and the turn is
// handed back to the player.
func (e *Engine) runEnemyPhase(ctx context.Context) (Outcome, bool) {
	st := e.state
	player := st.Player

	for _, enemy := range st.Enemies {
		if !enemy.Alive() {
			continue
		}
		if !player.Alive() {
			break
		}
		if enemy.Effects().IsControlled() {
			st.Append(enemy.Name, fmt.Sprintf("%s is unable to act.", enemy.Name))
			continue
		}
		skill := e.chooseEnemySkill(enemy)
		res := e.deps.Resolver.ResolveHit(Attack{Attacker: enemy, Defender: player, Skill: skill})
		st.Append(enemy.Name, res.Messages...)
		if skill != nil && res.Landed() {
			st.Append(enemy.Name, e.deps.Resolver.ApplySkillEffect(enemy, player, skill)...)
		}
	}
	if !player.Alive() {
		return e.resolve(ctx, OutcomeDefeat), true
	}

	if e.deps.Cooldowns != nil {
		e.deps.Cooldowns.TickCooldowns(st)
	}
	targets := make([]effect.Target, 0, len(st.Enemies)+1)
	for _, c := range st.Combatants() {
		targets = append(targets, c)
	}
	st.Append("system", effect.Tick(targets)...)

	if st.AllEnemiesDead() {
		return e.resolve(ctx, OutcomeVictory), true
	}
	if !player.Alive() {
		return e.resolve(ctx, OutcomeDefeat), true
	}

	st.Append(player.Name, e.deps.Resolver.Gear().ApplyRegen(player, st.Round)...)
	st.Round++
	st.Turn = TurnPlayer
	e.deps.Notifier.StateChanged(st)
	return Outcome{}, false
}

// chooseEnemySkill picks a uniformly random AI skill with probability
// EnemySkillChance, or nil for a basic attack.
func (e *Engine) chooseEnemySkill(enemy *Combatant) *Skill {
	if len(enemy.AISkills) == 0 {
		return nil
	}
	src := e.deps.Resolver.Source()
	if !chance(src, "enemy skill", e.deps.Settings.EnemySkillChance) {
		return nil
	}
	s := enemy.AISkills[src.Intn(len(enemy.AISkills))]
	return &s
}
