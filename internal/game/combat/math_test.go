package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// scripted replays queued draws; once exhausted it returns 0.5 for Float64
// and 0 for Intn.
type scripted struct {
	floats []float64
	ints   []int
	drawn  int
}

func (s *scripted) Float64() float64 {
	s.drawn++
	if len(s.floats) == 0 {
		return 0.5
	}
	f := s.floats[0]
	s.floats = s.floats[1:]
	return f
}

func (s *scripted) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		return n - 1
	}
	return v
}

func TestBasicDamage(t *testing.T) {
	assert.Equal(t, 55, combat.BasicDamage(50, 50))
	assert.Equal(t, 6, combat.BasicDamage(10, 0))
	assert.Equal(t, 0, combat.BasicDamage(0, 100))
}

func TestSkillDamage(t *testing.T) {
	// (20 + 10*0.5) * (50/100 + 0.8) = 25 * 1.3 = 32.5
	assert.Equal(t, 32, combat.SkillDamage(20, 10, 50))
}

func TestApplyResistance_FullPenetrationIgnoresResistance(t *testing.T) {
	assert.Equal(t, 100, combat.ApplyResistance(100, 75, 100))
	assert.Equal(t, 100, combat.ApplyResistance(100, 75, 250))
}

func TestApplyResistance_CapsAt75(t *testing.T) {
	assert.Equal(t, 25, combat.ApplyResistance(100, 500, 0))
}

func TestApplyResistance_MinimumOne(t *testing.T) {
	assert.Equal(t, 1, combat.ApplyResistance(1, 75, 0))
	assert.Equal(t, 0, combat.ApplyResistance(0, 10, 0))
	assert.Equal(t, 0, combat.ApplyResistance(-5, 10, 0))
}

func TestEffectiveResistance_Property_Bounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := rapid.Float64Range(-1000, 1000).Draw(rt, "resistance")
		p := rapid.Float64Range(-1000, 1000).Draw(rt, "penetration")
		eff := combat.EffectiveResistance(r, p)
		assert.GreaterOrEqual(rt, eff, 0.0)
		assert.LessOrEqual(rt, eff, combat.MaxResistance)
	})
}

func TestApplyResistance_Property_PositiveInputAtLeastOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := rapid.IntRange(1, 100000).Draw(rt, "incoming")
		r := rapid.Float64Range(0, 200).Draw(rt, "resistance")
		out := combat.ApplyResistance(in, r, 0)
		assert.GreaterOrEqual(rt, out, 1)
		assert.LessOrEqual(rt, out, in)
	})
}

func TestDodgeChance_Property_Bounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := rapid.Float64Range(-500, 500).Draw(rt, "defender")
		a := rapid.Float64Range(-500, 500).Draw(rt, "attacker")
		h := rapid.Float64Range(0, 100).Draw(rt, "hit_bonus")
		e := rapid.Float64Range(0, 2).Draw(rt, "evasion")
		c := combat.DodgeChance(d, a, h, e)
		assert.GreaterOrEqual(rt, c, 0.0)
		assert.LessOrEqual(rt, c, 90.0)
	})
}

func TestDodgeChance_Formula(t *testing.T) {
	assert.Equal(t, 30.0, combat.DodgeChance(5, 5, 0, 0))
	assert.Equal(t, 40.0, combat.DodgeChance(10, 5, 0, 0))
	assert.Equal(t, 35.0, combat.DodgeChance(10, 5, 5, 0))
	assert.Equal(t, 55.0, combat.DodgeChance(5, 5, 0, 0.25))
}

func TestEscapeChance_Property_Bounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := rapid.Float64Range(-500, 500).Draw(rt, "player")
		e := rapid.Float64Range(-500, 500).Draw(rt, "enemies")
		c := combat.EscapeChance(p, e)
		assert.GreaterOrEqual(rt, c, 10.0)
		assert.LessOrEqual(rt, c, 90.0)
	})
}

func TestAverageMobility_IgnoresDead(t *testing.T) {
	alive := &combat.Combatant{HP: 5, MaxHP: 5, Stats: combat.Stats{Agility: 10, Weight: 4}}
	dead := &combat.Combatant{HP: 0, MaxHP: 5, Stats: combat.Stats{Agility: 100}}
	assert.Equal(t, 8.0, combat.AverageMobility([]*combat.Combatant{alive, dead}))
	assert.Equal(t, 0.0, combat.AverageMobility([]*combat.Combatant{dead}))
}

func TestApplyVariance_Range(t *testing.T) {
	assert.Equal(t, 90, combat.ApplyVariance(&scripted{floats: []float64{0}}, 100))
	assert.Equal(t, 100, combat.ApplyVariance(&scripted{floats: []float64{0.5}}, 100))
}

func TestRollCritical_UsesChancePlusBonus(t *testing.T) {
	assert.True(t, combat.RollCritical(&scripted{floats: []float64{0.09}}, 5, 5))
	assert.False(t, combat.RollCritical(&scripted{floats: []float64{0.10}}, 5, 5))
}

func TestRollEscape_ReturnsChance(t *testing.T) {
	player := &combat.Combatant{HP: 1, MaxHP: 1, Stats: combat.Stats{Agility: 10}}
	enemy := &combat.Combatant{HP: 1, MaxHP: 1, Stats: combat.Stats{Agility: 6}}
	ok, chance := combat.RollEscape(&scripted{floats: []float64{0.49}}, player, []*combat.Combatant{enemy})
	assert.Equal(t, 50.0, chance)
	assert.True(t, ok)
}
