package player_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/player"
)

const profileYAML = `
id: p1
name: Lin
level: 3
experience: 40
hp: 90
max_hp: 120
mana: 30
max_mana: 30
stamina: 20
max_stamina: 20
stats:
  attack: 12
  physical_power: 8
  agility: 6
  critical_chance: 0.1
skills: [fireball, bash]
equipment: [iron_sword]
items:
  potion: 3
`

func TestParseProfile(t *testing.T) {
	p, err := player.ParseProfile([]byte(profileYAML))
	require.NoError(t, err)

	stats := p.CombatStats()
	assert.Equal(t, "Lin", stats.Name)
	assert.Equal(t, 90, stats.HP)
	assert.Equal(t, 12, stats.Stats.Attack)
	assert.Equal(t, 0.1, stats.Stats.CriticalChance)
	assert.Equal(t, []string{"fireball", "bash"}, stats.Skills)
	assert.Equal(t, []string{"iron_sword"}, p.Equipment)
	assert.Equal(t, 3, p.Items["potion"])
}

func TestParseProfile_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": profileYAML + "gold: 5\n",
		"no name":       "id: p1\nlevel: 1\nhp: 1\nmax_hp: 1\n",
		"hp above max":  "id: p1\nname: Lin\nlevel: 1\nhp: 5\nmax_hp: 1\n",
		"bad quantity":  "id: p1\nname: Lin\nlevel: 1\nhp: 1\nmax_hp: 1\nitems:\n  potion: 0\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := player.ParseProfile([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profileYAML), 0o644))
	p, err := player.LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}

func TestCombatStats_SkillsAreCopied(t *testing.T) {
	p, err := player.ParseProfile([]byte(profileYAML))
	require.NoError(t, err)
	stats := p.CombatStats()
	stats.Skills[0] = "changed"
	assert.Equal(t, "fireball", p.Skills[0])
}

func TestApply(t *testing.T) {
	p := player.Profile{HP: 100, MaxHP: 120, Experience: 10}
	p.Apply(combat.Outcome{Kind: combat.OutcomeVictory, Experience: 25, FinalHP: 70})
	assert.Equal(t, 35, p.Experience)
	assert.Equal(t, 70, p.HP)

	p.Apply(combat.Outcome{Kind: combat.OutcomeDefeat, FinalHP: 0})
	assert.Equal(t, 1, p.HP)
	assert.Equal(t, 35, p.Experience)
}

func TestApply_HPStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxHP := rapid.IntRange(1, 500).Draw(t, "max_hp")
		final := rapid.IntRange(-50, 600).Draw(t, "final_hp")
		kind := rapid.SampledFrom([]combat.OutcomeKind{combat.OutcomeVictory, combat.OutcomeDefeat, combat.OutcomeEscape}).Draw(t, "kind")
		p := player.Profile{HP: maxHP, MaxHP: maxHP}
		p.Apply(combat.Outcome{Kind: kind, FinalHP: final})
		if p.HP < 0 || p.HP > maxHP {
			t.Fatalf("hp %d outside [0, %d]", p.HP, maxHP)
		}
		if kind == combat.OutcomeDefeat && p.HP == 0 {
			t.Fatalf("defeat left the player at 0 hp")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	p, err := player.ParseProfile([]byte(profileYAML))
	require.NoError(t, err)
	store := player.NewMemoryStore(p)
	ctx := context.Background()

	stats, err := store.PlayerStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90, stats.HP)

	o := combat.Outcome{EncounterID: "enc-1", Kind: combat.OutcomeVictory, Experience: 50, FinalHP: 60}
	require.NoError(t, store.ApplyBattleOutcome(ctx, o))

	assert.Equal(t, 90, store.Profile().Experience)
	assert.Equal(t, 60, store.Profile().HP)
	require.Len(t, store.Outcomes(), 1)
	assert.Equal(t, "enc-1", store.Outcomes()[0].EncounterID)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := player.NewMemoryStore(player.Profile{ID: "p1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.PlayerStats(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.ApplyBattleOutcome(ctx, combat.Outcome{}), context.Canceled)
	assert.Empty(t, store.Outcomes())
}

func TestMemoryStore_Recent(t *testing.T) {
	store := player.NewMemoryStore(player.Profile{ID: "p1", HP: 50, MaxHP: 50})
	ctx := context.Background()
	for _, id := range []string{"enc-1", "enc-2", "enc-3"} {
		require.NoError(t, store.ApplyBattleOutcome(ctx, combat.Outcome{
			EncounterID: id,
			Kind:        combat.OutcomeVictory,
			FinalHP:     50,
			Loot:        []combat.LootItem{{ItemID: "herb", Quantity: 1}},
		}))
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "enc-3", recent[0].EncounterID)
	assert.Equal(t, "enc-2", recent[1].EncounterID)
	assert.Equal(t, "victory", recent[0].Outcome)
	assert.Len(t, recent[0].Loot, 1)

	all, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
