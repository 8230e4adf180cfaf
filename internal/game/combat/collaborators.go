package combat

import "context"

// PlayerStats is the computed player state used to build the player snapshot.
type PlayerStats struct {
	ID         string
	Name       string
	Level      int
	HP         int
	MaxHP      int
	Mana       int
	MaxMana    int
	Stamina    int
	MaxStamina int
	Stats      Stats
	Skills     []string
}

// PlayerProvider supplies the player's stats and receives the outcome of a battle.
// The engine never touches persistent player state except through ApplyBattleOutcome.
type PlayerProvider interface {
	PlayerStats(ctx context.Context) (PlayerStats, error)
	ApplyBattleOutcome(ctx context.Context, o Outcome) error
}

// EnemyRequest identifies one enemy to provision.
type EnemyRequest struct {
	Level    int
	Category string
	Species  string
}

// EnemyProvider turns a request into a ready snapshot. The result is treated as opaque data.
type EnemyProvider interface {
	ProvisionEnemy(ctx context.Context, req EnemyRequest) (*Combatant, error)
}

// Report is the result of a delegated action. Message is already formatted
// for the battle log.
type Report struct {
	Success bool
	Message string
}

// SkillExecutor runs a player skill against the enemy at targetIndex.
type SkillExecutor interface {
	ExecuteSkill(ctx context.Context, st *BattleState, skillID string, targetIndex int) Report
}

// SpecialAttackExecutor runs a weapon special attack against the enemy at targetIndex.
type SpecialAttackExecutor interface {
	ExecuteSpecialAttack(ctx context.Context, st *BattleState, attackID string, targetIndex int) Report
}

// CooldownTicker decrements skill cooldowns once per round.
type CooldownTicker interface {
	TickCooldowns(st *BattleState)
}

// Inventory resolves a consumable against the in-battle player snapshot and
// consumes one unit. Unknown items and empty stacks return an error.
type Inventory interface {
	UseItem(ctx context.Context, itemID string, target *Combatant) (string, error)
}

// Notifier receives display signals.
type Notifier interface {
	EncounterReady(st *BattleState)
	EncounterShown(st *BattleState)
	StateChanged(st *BattleState)
	EncounterHidden(st *BattleState)
	EncounterResolved(o Outcome)
}

// NopNotifier ignores every signal.
type NopNotifier struct{}

func (NopNotifier) EncounterReady(*BattleState)  {}
func (NopNotifier) EncounterShown(*BattleState)  {}
func (NopNotifier) StateChanged(*BattleState)    {}
func (NopNotifier) EncounterHidden(*BattleState) {}
func (NopNotifier) EncounterResolved(Outcome)    {}
