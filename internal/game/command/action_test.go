package command

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

func battle(t *testing.T, line string) (combat.Action, error) {
	t.Helper()
	cmd, args, ok := DefaultRegistry().Lookup(line)
	require.True(t, ok, line)
	require.True(t, cmd.InBattle(), line)
	return BattleAction(cmd, args)
}

func TestBattleAction(t *testing.T) {
	tests := []struct {
		line string
		want combat.Action
	}{
		{"attack", combat.Action{Type: combat.ActionAttack}},
		{"a 3", combat.Action{Type: combat.ActionAttack, TargetIndex: 2}},
		{"skill fireball", combat.Action{Type: combat.ActionSkill, ID: "fireball"}},
		{"cast fireball 2", combat.Action{Type: combat.ActionSkill, ID: "fireball", TargetIndex: 1}},
		{"special cleave 1", combat.Action{Type: combat.ActionSpecialAttack, ID: "cleave"}},
		{"defend", combat.Action{Type: combat.ActionDefend}},
		{"item potion", combat.Action{Type: combat.ActionUseItem, ID: "potion"}},
		{"done", combat.Action{Type: combat.ActionFinishItems}},
		{"flee", combat.Action{Type: combat.ActionFlee}},
	}
	for _, tt := range tests {
		got, err := battle(t, tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestBattleAction_Usage(t *testing.T) {
	for _, line := range []string{
		"attack 0",
		"attack x",
		"attack 1 2",
		"skill",
		"skill fireball zero",
		"item",
		"item a b",
		"defend now",
		"flee quickly",
	} {
		_, err := battle(t, line)
		assert.True(t, errors.Is(err, ErrUsage), "line %q: %v", line, err)
	}
}

func TestBattleAction_NotBattleCommand(t *testing.T) {
	cmd, _ := DefaultRegistry().Resolve("quit")
	_, err := BattleAction(cmd, nil)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUsage))
}

func TestPropertyBattleAction_TargetIsOneBased(t *testing.T) {
	cmd, _ := DefaultRegistry().Resolve("attack")
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 99).Draw(t, "n")
		a, err := BattleAction(cmd, []string{strconv.Itoa(n)})
		if err != nil {
			t.Fatalf("target %d: %v", n, err)
		}
		if a.TargetIndex != n-1 {
			t.Fatalf("target %d mapped to index %d", n, a.TargetIndex)
		}
	})
}
