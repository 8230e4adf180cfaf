package combat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/equipment"
)

// Sentinel errors carried in ActionResult.Err.
var (
	ErrNoEncounter         = errors.New("combat: no prepared encounter")
	ErrEncounterInProgress = errors.New("combat: an encounter is already in progress")
	ErrNotActive           = errors.New("combat: encounter is not active")
	ErrNotYourTurn         = errors.New("combat: not the player's turn")
	ErrBusy                = errors.New("combat: an action is already being resolved")
	ErrInvalidTarget       = errors.New("combat: invalid target")
	ErrUnknownAction       = errors.New("combat: unknown action")
	ErrMissingCollaborator = errors.New("combat: collaborator unavailable")
)

// Settings holds the tunable engine constants.
type Settings struct {
	// EnemySkillChance is the probability an enemy with AI skills uses one.
	EnemySkillChance float64
	// ExperiencePerLevel is multiplied by each defeated enemy's level.
	ExperiencePerLevel int
}

// DefaultSettings returns the standard rule set.
func DefaultSettings() Settings {
	return Settings{EnemySkillChance: 0.3, ExperiencePerLevel: 25}
}

// Deps are the collaborators injected into an Engine. Player and Resolver
// are required; any other nil collaborator degrades its actions to failure
// results.
type Deps struct {
	Player    PlayerProvider
	Enemies   EnemyProvider
	Skills    SkillExecutor
	Specials  SpecialAttackExecutor
	Cooldowns CooldownTicker
	Inventory Inventory
	Notifier  Notifier
	Resolver  *Resolver
	Settings  Settings
	Logger    *zap.Logger
}

// PrepareRequest describes the encounter to build.
type PrepareRequest struct {
	Enemies     []EnemyRequest
	Environment string
	Conditions  []string
}

// Step is returned by Advance: the state after the enemy phase, and the
// Outcome when that phase resolved the encounter.
type Step struct {
	State   *BattleState
	Outcome *Outcome
	Err     error
}

// Engine drives one encounter at a time through Preparing, Active and Resolved.
//
// All methods are safe to call from multiple goroutines; mu serialises every
// mutation and processing rejects a player action while another is resolving.
type Engine struct {
	deps Deps

	mu         sync.Mutex
	processing atomic.Bool
	phase      Phase
	state      *BattleState
	preHP      int
	warned     map[string]bool
	last       *Outcome
}

// NewEngine creates an Engine.
//
// Precondition: deps.Player and deps.Resolver must be non-nil.
// Postcondition: Returns an idle Engine (PhaseNone).
func NewEngine(deps Deps) *Engine {
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Settings == (Settings{}) {
		deps.Settings = DefaultSettings()
	}
	return &Engine{deps: deps, warned: make(map[string]bool)}
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// State returns the live BattleState, or nil outside Preparing/Active.
// The caller must not mutate it.
func (e *Engine) State() *BattleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastOutcome returns the Outcome of the most recently resolved encounter.
func (e *Engine) LastOutcome() (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return Outcome{}, false
	}
	return *e.last, true
}

// Gear returns the player's equipment aggregator.
func (e *Engine) Gear() *equipment.Aggregator { return e.deps.Resolver.Gear() }

// Prepare snapshots the player, provisions each enemy and builds a
// BattleState in the Preparing phase. Enemies that cannot be provisioned
// are replaced by FallbackEnemy.
//
// Postcondition: on success Phase() == PhasePreparing and EncounterReady has fired.
func (e *Engine) Prepare(ctx context.Context, req PrepareRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhasePreparing || e.phase == PhaseActive {
		return ErrEncounterInProgress
	}
	if len(req.Enemies) == 0 {
		return fmt.Errorf("combat: prepare requires at least one enemy")
	}

	ps, err := e.deps.Player.PlayerStats(ctx)
	if err != nil {
		return fmt.Errorf("combat: loading player stats: %w", err)
	}
	player := &Combatant{
		ID:         ps.ID,
		Kind:       KindPlayer,
		Name:       ps.Name,
		Tag:        PlayerTag,
		Level:      ps.Level,
		HP:         ps.HP,
		MaxHP:      ps.MaxHP,
		Mana:       ps.Mana,
		MaxMana:    ps.MaxMana,
		Stamina:    ps.Stamina,
		MaxStamina: ps.MaxStamina,
		Stats:      ps.Stats,
	}
	player.Normalize()
	if !player.Alive() {
		return fmt.Errorf("combat: player %q has no HP left", ps.Name)
	}

	st := &BattleState{
		ID:          uuid.New().String(),
		Player:      player,
		Environment: req.Environment,
		Conditions:  append([]string(nil), req.Conditions...),
		Turn:        TurnPlayer,
		Round:       1,
	}
	for i, r := range req.Enemies {
		st.Enemies = append(st.Enemies, e.provision(ctx, i, r))
	}

	e.state = st
	e.preHP = player.HP
	e.phase = PhasePreparing
	e.deps.Logger.Info("encounter prepared",
		zap.String("encounter", st.ID),
		zap.Int("enemies", len(st.Enemies)),
		zap.String("environment", st.Environment),
	)
	e.deps.Notifier.EncounterReady(st)
	return nil
}

func (e *Engine) provision(ctx context.Context, i int, r EnemyRequest) *Combatant {
	id := fmt.Sprintf("enemy-%d", i)
	if e.deps.Enemies == nil {
		e.warnOnce("enemy provider")
		return FallbackEnemy(id, r.Level)
	}
	c, err := e.callEnemyProvider(ctx, r)
	if err == nil && c != nil {
		err = c.Validate()
	}
	if err != nil || c == nil {
		e.deps.Logger.Warn("substituting fallback enemy",
			zap.Int("index", i),
			zap.String("category", r.Category),
			zap.String("species", r.Species),
			zap.Error(err),
		)
		return FallbackEnemy(id, r.Level)
	}
	if c.ID == "" {
		c.ID = id
	}
	c.Kind = KindEnemy
	c.Normalize()
	return c
}

func (e *Engine) callEnemyProvider(ctx context.Context, r EnemyRequest) (c *Combatant, err error) {
	defer func() {
		if p := recover(); p != nil {
			c, err = nil, fmt.Errorf("enemy provider panicked: %v", p)
		}
	}()
	return e.deps.Enemies.ProvisionEnemy(ctx, r)
}

// Launch promotes a prepared encounter to Active.
//
// Postcondition: returns ErrNoEncounter unless Phase() was PhasePreparing.
func (e *Engine) Launch() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhasePreparing || e.state == nil {
		return ErrNoEncounter
	}
	e.phase = PhaseActive
	e.state.Active = true
	e.state.Append("system", fmt.Sprintf("Battle begins in %s!", orDefault(e.state.Environment, "the wilds")))
	e.deps.Resolver.Gear().ResetRound()
	e.deps.Notifier.EncounterShown(e.state)
	e.deps.Notifier.StateChanged(e.state)
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Act performs one player action.
//
// Precondition: the encounter is Active and it is the player's turn.
// Postcondition: never panics; failures return Success == false with Err set.
// A second call while one is resolving returns ErrBusy.
func (e *Engine) Act(ctx context.Context, a Action) ActionResult {
	if !e.processing.CompareAndSwap(false, true) {
		return failure(ErrBusy, "Still resolving the previous action.")
	}
	defer e.processing.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseActive || e.state == nil || !e.state.Active {
		return failure(ErrNotActive, "There is no battle in progress.")
	}
	st := e.state
	if st.Turn != TurnPlayer {
		return failure(ErrNotYourTurn, "Wait for the enemies to act.")
	}
	player := st.Player

	if player.Effects().IsControlled() {
		msg := fmt.Sprintf("%s is unable to act.", player.Name)
		st.Append(player.Name, msg)
		return e.endPlayerTurn(ctx, ActionResult{Success: true, Message: msg})
	}

	switch a.Type {
	case ActionAttack:
		target, err := st.Target(a.TargetIndex)
		if err != nil {
			return failure(err, "That target is not available.")
		}
		res := e.deps.Resolver.ResolveHit(Attack{Attacker: player, Defender: target})
		st.Append(player.Name, res.Messages...)
		return e.endPlayerTurn(ctx, ActionResult{Success: true, Message: joinMessages(res.Messages)})

	case ActionSkill, ActionSpecialAttack:
		if _, err := st.Target(a.TargetIndex); err != nil {
			return failure(err, "That target is not available.")
		}
		rep, err := e.delegate(ctx, a)
		if err != nil {
			return failure(err, rep.Message)
		}
		if !rep.Success {
			// A failing collaborator may still have changed the state.
			if rep.Message != "" {
				st.Append(player.Name, rep.Message)
			}
			if st.AllEnemiesDead() {
				o := e.resolve(ctx, OutcomeVictory)
				return ActionResult{Message: rep.Message, TurnEnded: true, Outcome: &o}
			}
			e.deps.Notifier.StateChanged(st)
			return ActionResult{Message: rep.Message}
		}
		st.Append(player.Name, rep.Message)
		return e.endPlayerTurn(ctx, ActionResult{Success: true, Message: rep.Message})

	case ActionDefend:
		player.Defending = true
		msg := fmt.Sprintf("%s takes a defensive stance.", player.Name)
		st.Append(player.Name, msg)
		return e.endPlayerTurn(ctx, ActionResult{Success: true, Message: msg})

	case ActionUseItem:
		if e.deps.Inventory == nil {
			e.warnOnce("inventory")
			return failure(ErrMissingCollaborator, "Your pack cannot be reached right now.")
		}
		msg, err := e.useItem(ctx, a.ID, player)
		if err != nil {
			return failure(err, fmt.Sprintf("Cannot use %s: %v", a.ID, err))
		}
		st.Append(player.Name, msg)
		e.deps.Notifier.StateChanged(st)
		return ActionResult{Success: true, Message: msg}

	case ActionFinishItems:
		return e.endPlayerTurn(ctx, ActionResult{Success: true})

	case ActionFlee:
		ok, escape := RollEscape(e.deps.Resolver.Source(), player, st.Enemies)
		if ok {
			msg := fmt.Sprintf("%s escapes!", player.Name)
			st.Append(player.Name, msg)
			o := e.resolve(ctx, OutcomeEscape)
			return ActionResult{Success: true, Message: msg, TurnEnded: true, Outcome: &o}
		}
		msg := fmt.Sprintf("%s fails to escape (%.0f%% chance).", player.Name, escape)
		st.Append(player.Name, msg)
		return e.endPlayerTurn(ctx, ActionResult{Success: true, Message: msg})
	}
	return failure(ErrUnknownAction, fmt.Sprintf("Unknown action %q.", a.Type))
}

func (e *Engine) delegate(ctx context.Context, a Action) (rep Report, err error) {
	var name string
	var call func() Report
	switch a.Type {
	case ActionSkill:
		name = "skill executor"
		if e.deps.Skills != nil {
			call = func() Report { return e.deps.Skills.ExecuteSkill(ctx, e.state, a.ID, a.TargetIndex) }
		}
	default:
		name = "special attack executor"
		if e.deps.Specials != nil {
			call = func() Report { return e.deps.Specials.ExecuteSpecialAttack(ctx, e.state, a.ID, a.TargetIndex) }
		}
	}
	if call == nil {
		e.warnOnce(name)
		return Report{Message: "That ability cannot be used right now."}, ErrMissingCollaborator
	}
	defer func() {
		if p := recover(); p != nil {
			e.deps.Logger.Error("collaborator panicked", zap.String("collaborator", name), zap.Any("panic", p))
			rep, err = Report{Message: "Something went wrong."}, fmt.Errorf("%s panicked: %v", name, p)
		}
	}()
	return call(), nil
}

func (e *Engine) useItem(ctx context.Context, itemID string, player *Combatant) (msg string, err error) {
	defer func() {
		if p := recover(); p != nil {
			msg, err = "", fmt.Errorf("inventory panicked: %v", p)
		}
	}()
	return e.deps.Inventory.UseItem(ctx, itemID, player)
}

// endPlayerTurn checks for victory before handing the turn to the enemies.
func (e *Engine) endPlayerTurn(ctx context.Context, res ActionResult) ActionResult {
	res.TurnEnded = true
	if e.state.AllEnemiesDead() {
		o := e.resolve(ctx, OutcomeVictory)
		res.Outcome = &o
		return res
	}
	e.state.Turn = TurnEnemy
	e.deps.Notifier.StateChanged(e.state)
	return res
}

// Advance runs the pending enemy phase: enemy actions, cooldown and effect
// ticks, the victory re-check, regeneration, and the round increment.
//
// Postcondition: a no-op Step with Err set when it is not the enemies' turn.
func (e *Engine) Advance(ctx context.Context) Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseActive || e.state == nil {
		return Step{Err: ErrNotActive}
	}
	if e.state.Turn != TurnEnemy {
		return Step{State: e.state, Err: ErrNotYourTurn}
	}
	st := e.state
	if o, done := e.runEnemyPhase(ctx); done {
		return Step{State: st, Outcome: &o}
	}
	return Step{State: st}
}

// resolve tears the encounter down and emits the Outcome.
func (e *Engine) resolve(ctx context.Context, kind OutcomeKind) Outcome {
	st := e.state
	o := Outcome{
		EncounterID: st.ID,
		PlayerID:    st.Player.ID,
		Kind:        kind,
		HPLoss:      e.preHP - st.Player.HP,
		FinalHP:     st.Player.HP,
		Rounds:      st.Round,
	}
	if kind == OutcomeVictory {
		o.Experience = experienceFor(st.Enemies, e.deps.Settings.ExperiencePerLevel)
		o.Loot = resolveLoot(e.deps.Resolver.Source(), st.Enemies)
	}
	st.Append("system", fmt.Sprintf("The battle ends in %s.", kind))
	o.Log = append([]LogEntry(nil), st.Log...)

	st.Active = false
	e.phase = PhaseResolved
	for _, c := range st.Combatants() {
		c.Effects().Clear()
	}
	e.deps.Notifier.EncounterHidden(st)
	if err := e.deps.Player.ApplyBattleOutcome(ctx, o); err != nil {
		e.deps.Logger.Error("applying battle outcome", zap.String("encounter", st.ID), zap.Error(err))
	}
	e.deps.Logger.Info("encounter resolved",
		zap.String("encounter", st.ID),
		zap.String("outcome", kind.String()),
		zap.Int("experience", o.Experience),
		zap.Int("loot", len(o.Loot)),
		zap.Int("rounds", o.Rounds),
	)
	e.deps.Notifier.EncounterResolved(o)
	e.state = nil
	e.last = &o
	return o
}

func (e *Engine) warnOnce(name string) {
	if e.warned[name] {
		return
	}
	e.warned[name] = true
	e.deps.Logger.Warn("collaborator unavailable", zap.String("collaborator", name))
}

func joinMessages(msgs []string) string {
	out := ""
	for i, m := range msgs {
		if i > 0 {
			out += " "
		}
		out += m
	}
	return out
}
