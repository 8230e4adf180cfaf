package combat_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/equipment"
)

type fakePlayer struct {
	stats    combat.PlayerStats
	outcomes []combat.Outcome
}

func (f *fakePlayer) PlayerStats(context.Context) (combat.PlayerStats, error) { return f.stats, nil }

func (f *fakePlayer) ApplyBattleOutcome(_ context.Context, o combat.Outcome) error {
	f.outcomes = append(f.outcomes, o)
	return nil
}

type fakeEnemies struct {
	build func(req combat.EnemyRequest) (*combat.Combatant, error)
}

func (f fakeEnemies) ProvisionEnemy(_ context.Context, req combat.EnemyRequest) (*combat.Combatant, error) {
	return f.build(req)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) add(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, s)
}

func (n *recordingNotifier) EncounterReady(*combat.BattleState)  { n.add("ready") }
func (n *recordingNotifier) EncounterShown(*combat.BattleState)  { n.add("shown") }
func (n *recordingNotifier) StateChanged(*combat.BattleState)    { n.add("changed") }
func (n *recordingNotifier) EncounterHidden(*combat.BattleState) { n.add("hidden") }
func (n *recordingNotifier) EncounterResolved(combat.Outcome)    { n.add("resolved") }

type panickingSkills struct{}

func (panickingSkills) ExecuteSkill(context.Context, *combat.BattleState, string, int) combat.Report {
	panic("boom")
}

// slayingAbility zeroes the target's hp and reports success or failure.
type slayingAbility struct {
	success bool
	message string
}

func (s slayingAbility) slay(st *combat.BattleState, target int) combat.Report {
	st.Enemies[target].HP = 0
	return combat.Report{Success: s.success, Message: s.message}
}

func (s slayingAbility) ExecuteSkill(_ context.Context, st *combat.BattleState, _ string, target int) combat.Report {
	return s.slay(st, target)
}

func (s slayingAbility) ExecuteSpecialAttack(_ context.Context, st *combat.BattleState, _ string, target int) combat.Report {
	return s.slay(st, target)
}

type fizzlingAbility struct{}

func (fizzlingAbility) ExecuteSkill(context.Context, *combat.BattleState, string, int) combat.Report {
	return combat.Report{Message: "Not enough resources for Fireball."}
}

func lastLog(entries []combat.LogEntry) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1].Message
}

type blockingInventory struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingInventory) UseItem(_ context.Context, itemID string, target *combat.Combatant) (string, error) {
	close(b.entered)
	<-b.release
	target.RestoreHP(10)
	return target.Name + " uses " + itemID + ".", nil
}

type harness struct {
	engine   *combat.Engine
	player   *fakePlayer
	notifier *recordingNotifier
	src      *scripted
	gear     *equipment.Aggregator
}

func defaultPlayerStats() combat.PlayerStats {
	return combat.PlayerStats{
		ID: "p1", Name: "Lin", Level: 3,
		HP: 100, MaxHP: 100, Mana: 30, MaxMana: 30, Stamina: 30, MaxStamina: 30,
		Stats: combat.Stats{Attack: 50, PhysicalPower: 50},
	}
}

// newHarness builds an engine whose enemies come from enemies, in order.
func newHarness(t *testing.T, deps combat.Deps, enemies ...*combat.Combatant) *harness {
	t.Helper()
	h := &harness{
		player:   &fakePlayer{stats: defaultPlayerStats()},
		notifier: &recordingNotifier{},
		src:      &scripted{},
		gear:     equipment.NewAggregator(),
	}
	next := 0
	if deps.Enemies == nil {
		deps.Enemies = fakeEnemies{build: func(combat.EnemyRequest) (*combat.Combatant, error) {
			c := enemies[next]
			next++
			return c, nil
		}}
	}
	deps.Player = h.player
	deps.Notifier = h.notifier
	deps.Resolver = combat.NewResolver(h.src, h.gear, zap.NewNop())
	h.engine = combat.NewEngine(deps)
	return h
}

func (h *harness) start(t *testing.T, n int) *combat.BattleState {
	t.Helper()
	reqs := make([]combat.EnemyRequest, n)
	for i := range reqs {
		reqs[i] = combat.EnemyRequest{Level: 2, Category: "beast", Species: "wolf"}
	}
	require.NoError(t, h.engine.Prepare(context.Background(), combat.PrepareRequest{Enemies: reqs, Environment: "forest"}))
	require.NoError(t, h.engine.Launch())
	return h.engine.State()
}

func TestEngine_ActWithoutEncounter_NotActive(t *testing.T) {
	h := newHarness(t, combat.Deps{})
	res := h.engine.Act(context.Background(), combat.Action{Type: combat.ActionAttack})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, combat.ErrNotActive)
}

func TestEngine_LaunchWithoutPrepare(t *testing.T) {
	h := newHarness(t, combat.Deps{})
	assert.ErrorIs(t, h.engine.Launch(), combat.ErrNoEncounter)
}

func TestEngine_PrepareTwice_Rejected(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 50, combat.Stats{}), newEnemy("e2", 50, combat.Stats{}))
	h.start(t, 1)
	err := h.engine.Prepare(context.Background(), combat.PrepareRequest{Enemies: []combat.EnemyRequest{{Level: 1}}})
	assert.ErrorIs(t, err, combat.ErrEncounterInProgress)
}

func TestEngine_LifecycleSignals(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 50, combat.Stats{}))
	st := h.start(t, 1)

	assert.Equal(t, combat.PhaseActive, h.engine.Phase())
	assert.Equal(t, 1, st.Round)
	assert.Equal(t, combat.TurnPlayer, st.Turn)
	assert.Equal(t, []string{"ready", "shown", "changed"}, h.notifier.events)
}

func TestEngine_TurnAlternation(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 500, combat.Stats{Attack: 5}))
	st := h.start(t, 1)
	ctx := context.Background()

	res := h.engine.Act(ctx, combat.Action{Type: combat.ActionAttack, TargetIndex: 0})
	require.True(t, res.Success)
	assert.True(t, res.TurnEnded)
	assert.Equal(t, combat.TurnEnemy, st.Turn)

	again := h.engine.Act(ctx, combat.Action{Type: combat.ActionAttack, TargetIndex: 0})
	assert.ErrorIs(t, again.Err, combat.ErrNotYourTurn)

	step := h.engine.Advance(ctx)
	require.NoError(t, step.Err)
	assert.Nil(t, step.Outcome)
	assert.Equal(t, 2, st.Round)
	assert.Equal(t, combat.TurnPlayer, st.Turn)

	assert.ErrorIs(t, h.engine.Advance(ctx).Err, combat.ErrNotYourTurn)
}

func TestEngine_InvalidTarget(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 50, combat.Stats{}))
	st := h.start(t, 1)
	res := h.engine.Act(context.Background(), combat.Action{Type: combat.ActionAttack, TargetIndex: 3})
	assert.ErrorIs(t, res.Err, combat.ErrInvalidTarget)
	assert.Equal(t, combat.TurnPlayer, st.Turn)
}

func TestEngine_BusyWhileResolving(t *testing.T) {
	inv := &blockingInventory{entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, combat.Deps{Inventory: inv}, newEnemy("e1", 50, combat.Stats{}))
	h.start(t, 1)
	ctx := context.Background()

	done := make(chan combat.ActionResult)
	go func() {
		done <- h.engine.Act(ctx, combat.Action{Type: combat.ActionUseItem, ID: "herb"})
	}()
	<-inv.entered

	busy := h.engine.Act(ctx, combat.Action{Type: combat.ActionAttack})
	assert.ErrorIs(t, busy.Err, combat.ErrBusy)

	close(inv.release)
	first := <-done
	assert.True(t, first.Success)
	assert.False(t, first.TurnEnded, "using an item keeps the turn")
}

func TestEngine_MissingSkillExecutor_TurnKept(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := newHarness(t, combat.Deps{Logger: zap.New(core)}, newEnemy("e1", 50, combat.Stats{}))
	st := h.start(t, 1)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res := h.engine.Act(ctx, combat.Action{Type: combat.ActionSkill, ID: "fireball"})
		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Err, combat.ErrMissingCollaborator)
	}
	assert.Equal(t, combat.TurnPlayer, st.Turn)
	assert.Equal(t, 1, logs.FilterMessage("collaborator unavailable").Len(), "warning is logged once")
}

func TestEngine_PanickingSkillExecutor_Recovered(t *testing.T) {
	h := newHarness(t, combat.Deps{Skills: panickingSkills{}}, newEnemy("e1", 50, combat.Stats{}))
	st := h.start(t, 1)

	var res combat.ActionResult
	require.NotPanics(t, func() {
		res = h.engine.Act(context.Background(), combat.Action{Type: combat.ActionSkill, ID: "fireball"})
	})
	assert.False(t, res.Success)
	assert.Error(t, res.Err)
	assert.Equal(t, combat.TurnPlayer, st.Turn)
}

func TestEngine_ControlledPlayerSkipsTurn(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 50, combat.Stats{}))
	st := h.start(t, 1)
	st.Player.Effects().ApplyCC(effect.CCSpec{Subtype: effect.Freeze, Duration: 1, Chance: 1}, "ice", h.src)

	res := h.engine.Act(context.Background(), combat.Action{Type: combat.ActionAttack, TargetIndex: 0})

	assert.True(t, res.Success)
	assert.True(t, res.TurnEnded)
	assert.Equal(t, 50, st.Enemies[0].HP)
	assert.Equal(t, combat.TurnEnemy, st.Turn)
}

func TestEngine_ControlledEnemySkipsAction(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 500, combat.Stats{Attack: 40}))
	st := h.start(t, 1)
	ctx := context.Background()
	st.Enemies[0].Effects().ApplyCC(effect.CCSpec{Subtype: effect.Stun, Duration: 1, Chance: 1}, "mace", h.src)

	h.engine.Act(ctx, combat.Action{Type: combat.ActionDefend})
	h.engine.Advance(ctx)

	assert.Equal(t, 100, st.Player.HP)
	assert.False(t, st.Enemies[0].Effects().IsControlled(), "stun expires after one round")
}

// All enemies die to a DOT tick during the enemy phase.
func TestEngine_DOTTickVictory(t *testing.T) {
	h := newHarness(t, combat.Deps{},
		newEnemy("e1", 5, combat.Stats{Attack: 1}),
		newEnemy("e2", 5, combat.Stats{Attack: 1}),
	)
	st := h.start(t, 2)
	ctx := context.Background()
	for _, e := range st.Enemies {
		e.Effects().ApplyDOT(effect.DOTSpec{Subtype: "burn", DamagePerTurn: 10, Duration: 3}, "torch")
	}

	res := h.engine.Act(ctx, combat.Action{Type: combat.ActionDefend})
	require.Nil(t, res.Outcome)
	step := h.engine.Advance(ctx)

	require.NotNil(t, step.Outcome)
	assert.Equal(t, combat.OutcomeVictory, step.Outcome.Kind)
	assert.Equal(t, 100, step.Outcome.Experience)
	assert.Equal(t, 1, step.Outcome.Rounds)
	assert.Equal(t, combat.PhaseResolved, h.engine.Phase())
	assert.Nil(t, h.engine.State())
	assert.ErrorIs(t, h.engine.Advance(ctx).Err, combat.ErrNotActive)
	require.Len(t, h.player.outcomes, 1)
}

func TestEngine_FleeSuccess(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 50, combat.Stats{}))
	h.start(t, 1)
	h.src.floats = []float64{0}

	res := h.engine.Act(context.Background(), combat.Action{Type: combat.ActionFlee})

	require.NotNil(t, res.Outcome)
	assert.Equal(t, combat.OutcomeEscape, res.Outcome.Kind)
	assert.Zero(t, res.Outcome.Experience)
	assert.Empty(t, res.Outcome.Loot)
	assert.Equal(t, "resolved", h.notifier.events[len(h.notifier.events)-1])
}

func TestEngine_FleeFailure_EndsTurn(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 50, combat.Stats{}))
	st := h.start(t, 1)
	h.src.floats = []float64{0.99}

	res := h.engine.Act(context.Background(), combat.Action{Type: combat.ActionFlee})

	assert.True(t, res.Success)
	assert.Nil(t, res.Outcome)
	assert.Equal(t, combat.TurnEnemy, st.Turn)
}

func TestEngine_VictoryRollsEnemyDropTable(t *testing.T) {
	wolf := newEnemy("e1", 1, combat.Stats{})
	wolf.DropTable = []combat.DropEntry{{ItemID: "铜币", Chance: 1.0, MinQty: 1, MaxQty: 1}}
	h := newHarness(t, combat.Deps{}, wolf)
	h.start(t, 1)

	res := h.engine.Act(context.Background(), combat.Action{Type: combat.ActionAttack, TargetIndex: 0})

	require.NotNil(t, res.Outcome)
	assert.Equal(t, combat.OutcomeVictory, res.Outcome.Kind)
	require.Len(t, res.Outcome.Loot, 1)
	assert.Equal(t, "铜币", res.Outcome.Loot[0].ItemID)
	assert.Equal(t, 1, res.Outcome.Loot[0].Quantity)
	assert.NotEmpty(t, res.Outcome.Loot[0].InstanceID)
}

func TestEngine_Defeat(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 50, combat.Stats{Attack: 500}))
	h.player.stats.HP = 10
	h.start(t, 1)
	ctx := context.Background()

	h.engine.Act(ctx, combat.Action{Type: combat.ActionDefend})
	step := h.engine.Advance(ctx)

	require.NotNil(t, step.Outcome)
	assert.Equal(t, combat.OutcomeDefeat, step.Outcome.Kind)
	assert.Equal(t, 10, step.Outcome.HPLoss)
	assert.Zero(t, step.Outcome.FinalHP)
	assert.Empty(t, step.Outcome.Loot)
}

func TestEngine_FallbackEnemyOnProviderError(t *testing.T) {
	enemies := fakeEnemies{build: func(combat.EnemyRequest) (*combat.Combatant, error) {
		return nil, errors.New("no such species")
	}}
	h := newHarness(t, combat.Deps{Enemies: enemies})
	st := h.start(t, 1)

	require.Len(t, st.Enemies, 1)
	assert.Equal(t, "Wandering Shade (Lv2)", st.Enemies[0].Name)
	assert.Equal(t, 40, st.Enemies[0].MaxHP)
}

func TestEngine_RegenOncePerRound(t *testing.T) {
	h := newHarness(t, combat.Deps{}, newEnemy("e1", 500, combat.Stats{}))
	h.gear.OnEquip("ring", []equipment.Descriptor{{Kind: equipment.ManaRegen, Value: 4}})
	h.player.stats.Mana = 10
	st := h.start(t, 1)
	ctx := context.Background()

	h.engine.Act(ctx, combat.Action{Type: combat.ActionDefend})
	h.engine.Advance(ctx)

	assert.Equal(t, 14, st.Player.Mana)
	assert.Empty(t, h.gear.ApplyRegen(st.Player, 1), "round 1 already regenerated")
}

func TestEngine_EnemySkillChoice(t *testing.T) {
	wolf := newEnemy("e1", 500, combat.Stats{Attack: 10})
	wolf.AISkills = []combat.Skill{{ID: "howl", Name: "Howl", BaseDamage: 0, Effect: &combat.SkillEffect{
		Kind: "cc", CC: &effect.CCSpec{Subtype: effect.Slow, Duration: 2, Chance: 1},
	}}}
	h := newHarness(t, combat.Deps{}, wolf)
	st := h.start(t, 1)
	ctx := context.Background()

	h.engine.Act(ctx, combat.Action{Type: combat.ActionDefend})
	// skill roll, dodge, crit, variance, cc roll
	h.src.floats = []float64{0.1, 0.99, 0.99, 0.5, 0.5}
	h.engine.Advance(ctx)

	assert.True(t, st.Player.Effects().IsSlowed())
}

func TestEngine_LethalSkillResolvesBeforeEnemyTurn(t *testing.T) {
	skills := slayingAbility{success: true, message: "Lin casts Fireball on Wolf e1."}
	h := newHarness(t, combat.Deps{Skills: skills}, newEnemy("e1", 50, combat.Stats{Attack: 500}))
	h.start(t, 1)
	ctx := context.Background()

	res := h.engine.Act(ctx, combat.Action{Type: combat.ActionSkill, ID: "fireball"})

	require.NotNil(t, res.Outcome)
	assert.True(t, res.Success)
	assert.True(t, res.TurnEnded)
	assert.Equal(t, combat.OutcomeVictory, res.Outcome.Kind)
	assert.Zero(t, res.Outcome.HPLoss, "no enemy acted")
	assert.ErrorIs(t, h.engine.Advance(ctx).Err, combat.ErrNotActive)
	require.Len(t, h.player.outcomes, 1)
}

func TestEngine_FailedSpecialThatKillsStillResolves(t *testing.T) {
	specials := slayingAbility{message: "Wolf e1 is caught by the swing. The cleave falters."}
	h := newHarness(t, combat.Deps{Specials: specials}, newEnemy("e1", 50, combat.Stats{Attack: 500}))
	h.start(t, 1)
	ctx := context.Background()

	res := h.engine.Act(ctx, combat.Action{Type: combat.ActionSpecialAttack, ID: "cleave"})

	assert.False(t, res.Success)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, combat.OutcomeVictory, res.Outcome.Kind)
	assert.Equal(t, combat.PhaseResolved, h.engine.Phase())
	var logged bool
	for _, entry := range res.Outcome.Log {
		logged = logged || entry.Message == specials.message
	}
	assert.True(t, logged, "the failed special's message is in the battle log")
	assert.ErrorIs(t, h.engine.Advance(ctx).Err, combat.ErrNotActive)
}

func TestEngine_FailedSkillKeepsTurnAndLogs(t *testing.T) {
	h := newHarness(t, combat.Deps{Skills: fizzlingAbility{}}, newEnemy("e1", 50, combat.Stats{}))
	st := h.start(t, 1)

	res := h.engine.Act(context.Background(), combat.Action{Type: combat.ActionSkill, ID: "fireball"})

	assert.False(t, res.Success)
	assert.False(t, res.TurnEnded)
	assert.Nil(t, res.Outcome)
	assert.Equal(t, combat.TurnPlayer, st.Turn)
	assert.Equal(t, "Not enough resources for Fireball.", lastLog(st.Log))
}

func TestEngine_DefeatSkipsRemainingEnemies(t *testing.T) {
	h := newHarness(t, combat.Deps{},
		newEnemy("e1", 50, combat.Stats{Attack: 500}),
		newEnemy("e2", 50, combat.Stats{Attack: 500}),
	)
	h.player.stats.HP = 10
	h.start(t, 2)
	ctx := context.Background()

	h.engine.Act(ctx, combat.Action{Type: combat.ActionDefend})
	step := h.engine.Advance(ctx)

	require.NotNil(t, step.Outcome)
	assert.Equal(t, combat.OutcomeDefeat, step.Outcome.Kind)
	var actors []string
	for _, entry := range step.Outcome.Log {
		actors = append(actors, entry.Actor)
	}
	assert.Contains(t, actors, "Wolf e1")
	assert.NotContains(t, actors, "Wolf e2")
}

func TestEngine_RoundIncrementsOncePerCycle(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cycles := rapid.IntRange(1, 8).Draw(rt, "cycles")
		h := newHarness(t, combat.Deps{}, newEnemy("e1", 10000, combat.Stats{}))
		st := h.start(t, 1)
		ctx := context.Background()

		for i := range cycles {
			if st.Round != i+1 {
				rt.Fatalf("round %d before cycle %d", st.Round, i+1)
			}
			res := h.engine.Act(ctx, combat.Action{Type: combat.ActionDefend})
			if !res.TurnEnded || st.Turn != combat.TurnEnemy {
				rt.Fatalf("cycle %d: turn did not pass to the enemies", i+1)
			}
			if step := h.engine.Advance(ctx); step.Err != nil || step.Outcome != nil {
				rt.Fatalf("cycle %d: unexpected step %+v", i+1, step)
			}
			if st.Turn != combat.TurnPlayer {
				rt.Fatalf("cycle %d: turn did not return to the player", i+1)
			}
		}
		if st.Round != cycles+1 {
			rt.Fatalf("round = %d after %d cycles, want %d", st.Round, cycles, cycles+1)
		}
	})
}
