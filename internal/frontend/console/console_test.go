package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/frontend/console"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/equipment"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/player"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
)

// steady never dodges, blocks, crits or escapes.
type steady struct{}

func (steady) Intn(int) int     { return 0 }
func (steady) Float64() float64 { return 0.99 }

type dummies struct{}

func (dummies) ProvisionEnemy(_ context.Context, req combat.EnemyRequest) (*combat.Combatant, error) {
	return &combat.Combatant{Name: "Training Dummy", Tag: "construct", Level: req.Level, HP: 1, MaxHP: 1}, nil
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recordingSink struct {
	loot []combat.LootItem
	err  error
}

func (r *recordingSink) AddLoot(loot []combat.LootItem) ([]string, error) {
	r.loot = append(r.loot, loot...)
	if r.err != nil {
		return []string{loot[0].ItemID}, r.err
	}
	return nil, nil
}

type harness struct {
	session *console.Session
	out     *safeBuffer
	store   *player.MemoryStore
	engine  *combat.Engine
	gear    *equipment.Aggregator
	bag     *inventory.Backpack
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ring := &inventory.ItemDef{ID: "iron_ring", Name: "Iron Ring", Kind: inventory.KindEquipment, Slot: "ring", MaxStack: 1,
		Passives: []equipment.Descriptor{{Kind: equipment.Lifesteal, Value: 0.1}}}
	reg, err := inventory.NewRegistryFromItems([]*inventory.ItemDef{ring})
	require.NoError(t, err)
	gear := equipment.NewAggregator()
	bag := inventory.NewBackpack(reg, 10, 100)
	skills, err := skill.NewCatalog([]combat.Skill{{ID: "fireball", Name: "Fireball", BaseDamage: 10, DamageType: "fire", ManaCost: 5}})
	require.NoError(t, err)

	store := player.NewMemoryStore(player.Profile{
		ID: "p1", Name: "Aria", Level: 2, HP: 100, MaxHP: 100, Mana: 20, MaxMana: 20, Stamina: 10, MaxStamina: 10,
		Stats: combat.Stats{Attack: 30, PhysicalPower: 30, Agility: 10, Weight: 10},
	})
	out := &safeBuffer{}
	display := console.NewDisplay(out, false, &recordingSink{}, zap.NewNop())
	resolver := combat.NewResolver(steady{}, gear, zap.NewNop())
	engine := combat.NewEngine(combat.Deps{
		Player:   store,
		Enemies:  dummies{},
		Notifier: display,
		Resolver: resolver,
		Logger:   zap.NewNop(),
	})
	s := console.NewSession(console.Game{
		Engine:  engine,
		Player:  store,
		Items:   reg,
		Bag:     bag,
		Loadout: inventory.NewLoadout(reg, gear),
		Skills:  skills,
		History: store,
	}, display, 0, zap.NewNop())
	return &harness{session: s, out: out, store: store, engine: engine, gear: gear, bag: bag}
}

func TestSession_FightAndWin(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	assert.False(t, h.session.Handle(ctx, "fight dummy 1 3"))
	require.Equal(t, combat.PhaseActive, h.engine.Phase())
	assert.Contains(t, h.out.String(), "Enemies approach: Training Dummy")
	assert.Contains(t, h.out.String(), "== Round 1 ==")
	assert.Contains(t, h.out.String(), "1) Training Dummy Lv3")

	h.session.Handle(ctx, "attack 1")
	assert.Equal(t, combat.PhaseResolved, h.engine.Phase())
	out := h.out.String()
	assert.Contains(t, out, "Training Dummy is defeated.")
	assert.Contains(t, out, "Victory!")

	outcomes := h.store.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, combat.OutcomeVictory, outcomes[0].Kind)
}

func TestSession_History(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	h.session.Handle(ctx, "history")
	assert.Contains(t, h.out.String(), "You have not fought any battles yet.")

	h.session.Handle(ctx, "fight")
	h.session.Handle(ctx, "attack")
	h.session.Handle(ctx, "hist 1")
	assert.Regexp(t, `victory\s+1 rounds`, h.out.String())

	h.session.Handle(ctx, "history x")
	assert.Contains(t, h.out.String(), "Usage: history [count]")
}

func TestSession_BattleCommandOutsideBattle(t *testing.T) {
	h := newHarness(t)
	h.session.Handle(t.Context(), "attack")
	assert.Contains(t, h.out.String(), "You are not in a battle.")
}

func TestSession_BattleUsageAndFailures(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	h.session.Handle(ctx, "fight")

	h.session.Handle(ctx, "attack x")
	assert.Contains(t, h.out.String(), "Usage: attack [target]")

	h.session.Handle(ctx, "attack 4")
	assert.Contains(t, h.out.String(), "That target is not available.")

	h.session.Handle(ctx, "special cleave")
	assert.Contains(t, h.out.String(), "That ability cannot be used right now.")
	assert.Equal(t, combat.PhaseActive, h.engine.Phase())
}

func TestSession_FightWhileActive(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	h.session.Handle(ctx, "fight")
	h.session.Handle(ctx, "hunt")
	assert.Contains(t, h.out.String(), "Finish the current battle first.")
}

func TestSession_FightRejectsBadCount(t *testing.T) {
	h := newHarness(t)
	h.session.Handle(t.Context(), "fight wolf 9")
	assert.Contains(t, h.out.String(), "Count must be between 1 and 5.")
	assert.Equal(t, combat.PhaseNone, h.engine.Phase())
}

func TestSession_Equip(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	h.session.Handle(ctx, "equip iron_ring")
	assert.Contains(t, h.out.String(), `You are not carrying "iron_ring".`)

	require.NoError(t, h.bag.Add("iron_ring", 1))
	h.session.Handle(ctx, "wear iron_ring")
	assert.Contains(t, h.out.String(), "You equip Iron Ring (ring).")
	assert.Equal(t, 0.1, h.gear.LifestealPercent())

	h.session.Handle(ctx, "equipment")
	assert.Contains(t, h.out.String(), "Iron Ring")

	h.session.Handle(ctx, "inventory")
	assert.Contains(t, h.out.String(), "Slots 1/10  Weight 0.0/100.0")

	h.session.Handle(ctx, "fight")
	h.session.Handle(ctx, "unequip ring")
	assert.Contains(t, h.out.String(), "You cannot change equipment during a battle.")
	assert.Equal(t, 0.1, h.gear.LifestealPercent())
}

func TestSession_Unequip(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	require.NoError(t, h.bag.Add("iron_ring", 1))
	h.session.Handle(ctx, "equip iron_ring")

	h.session.Handle(ctx, "remove ring")
	assert.Contains(t, h.out.String(), "You remove Iron Ring.")
	assert.Zero(t, h.gear.LifestealPercent())

	h.session.Handle(ctx, "unequip ring")
	assert.Contains(t, h.out.String(), "Nothing is equipped in ring.")
}

func TestSession_InfoCommands(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	h.session.Handle(ctx, "status")
	assert.Contains(t, h.out.String(), "Aria, level 2  HP 100/100")

	h.session.Handle(ctx, "skills")
	assert.Contains(t, h.out.String(), "fireball")

	h.session.Handle(ctx, "inventory")
	assert.Contains(t, h.out.String(), "Your backpack is empty.")

	h.session.Handle(ctx, "help")
	assert.Contains(t, h.out.String(), "attack [target]")
	assert.Contains(t, h.out.String(), "Battle:")

	h.session.Handle(ctx, "dance")
	assert.Contains(t, h.out.String(), `Unknown command "dance".`)
}

func TestSession_StatusInBattleShowsSnapshot(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	h.session.Handle(ctx, "fight")
	before := strings.Count(h.out.String(), "== Round 1 ==")
	h.session.Handle(ctx, "status")
	assert.Equal(t, before+1, strings.Count(h.out.String(), "== Round 1 =="))
}

func TestSession_RunStopsOnQuit(t *testing.T) {
	h := newHarness(t)
	in := strings.NewReader("status\nquit\nstatus\n")
	require.NoError(t, h.session.Run(t.Context(), in))
	out := h.out.String()
	assert.Contains(t, out, "Farewell.")
	assert.Equal(t, 1, strings.Count(out, "Aria, level 2"))
}

func TestSession_RunStopsAtEOF(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Run(t.Context(), strings.NewReader("")))
}

func TestSession_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	r, w := newBlockingReader()
	defer w()
	require.NoError(t, h.session.Run(ctx, r))
}

type blockingReader struct{ done chan struct{} }

func (b blockingReader) Read([]byte) (int, error) {
	<-b.done
	return 0, errors.New("closed")
}

func newBlockingReader() (blockingReader, func()) {
	b := blockingReader{done: make(chan struct{})}
	return b, func() { close(b.done) }
}

func TestDisplay_PrintsOnlyNewLogLines(t *testing.T) {
	out := &safeBuffer{}
	d := console.NewDisplay(out, false, nil, zap.NewNop())
	st := &combat.BattleState{
		Player:  &combat.Combatant{Name: "Aria", HP: 10, MaxHP: 10},
		Enemies: []*combat.Combatant{{Name: "Wolf", Level: 1, HP: 5, MaxHP: 5}},
		Round:   1,
		Active:  true,
	}
	st.Append("system", "stale")
	d.EncounterReady(st)
	assert.NotContains(t, out.String(), "stale")

	st.Append("Aria", "first")
	d.StateChanged(st)
	st.Append("Wolf", "second")
	d.StateChanged(st)
	assert.Equal(t, 1, strings.Count(out.String(), "first"))
	assert.Equal(t, 1, strings.Count(out.String(), "second"))
	assert.Contains(t, d.Snapshot(), "1) Wolf Lv1")

	st.Append("system", "over")
	d.EncounterHidden(st)
	assert.Contains(t, out.String(), "over")
	assert.Empty(t, d.Snapshot())
}

func TestDisplay_EnemyTurnSkipsBattleView(t *testing.T) {
	out := &safeBuffer{}
	d := console.NewDisplay(out, false, nil, zap.NewNop())
	st := &combat.BattleState{
		Player: &combat.Combatant{Name: "Aria", HP: 10, MaxHP: 10},
		Round:  2,
		Turn:   combat.TurnEnemy,
		Active: true,
	}
	d.StateChanged(st)
	assert.NotContains(t, out.String(), "== Round 2 ==")
	assert.Contains(t, d.Snapshot(), "The enemies act...")
}

func TestDisplay_ResolvedStoresLoot(t *testing.T) {
	out := &safeBuffer{}
	sink := &recordingSink{}
	d := console.NewDisplay(out, false, sink, zap.NewNop())
	d.EncounterResolved(combat.Outcome{
		Kind:       combat.OutcomeVictory,
		Rounds:     3,
		Experience: 50,
		Loot:       []combat.LootItem{{ItemID: "hide", Quantity: 2}},
	})
	assert.Contains(t, out.String(), "Victory!")
	assert.Contains(t, out.String(), "Experience gained: 50")
	assert.Contains(t, out.String(), "Loot: hide x2")
	assert.Equal(t, []combat.LootItem{{ItemID: "hide", Quantity: 2}}, sink.loot)
}

func TestDisplay_FullBackpackWarning(t *testing.T) {
	out := &safeBuffer{}
	sink := &recordingSink{err: inventory.ErrNoRoom}
	d := console.NewDisplay(out, false, sink, zap.NewNop())
	d.EncounterResolved(combat.Outcome{Kind: combat.OutcomeVictory, Loot: []combat.LootItem{{ItemID: "hide", Quantity: 1}}})
	assert.Contains(t, out.String(), "some loot was left behind")
}

func TestDisplay_DefeatStoresNothing(t *testing.T) {
	out := &safeBuffer{}
	sink := &recordingSink{}
	d := console.NewDisplay(out, false, sink, zap.NewNop())
	d.EncounterResolved(combat.Outcome{Kind: combat.OutcomeDefeat})
	assert.Contains(t, out.String(), "Defeat...")
	assert.Empty(t, sink.loot)
}

func TestNewDisplay_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { console.NewDisplay(nil, false, nil, zap.NewNop()) })
	assert.Panics(t, func() { console.NewDisplay(&safeBuffer{}, false, nil, nil) })
}
