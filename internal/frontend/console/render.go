package console

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/game/player"
)

const gaugeWidth = 20

// Renderer formats engine state as terminal text.
type Renderer struct {
	Palette
}

// Battle renders the round header, the player's gauges and the enemy list.
// Enemies are numbered from 1 to match the target argument of battle commands.
func (r Renderer) Battle(st *combat.BattleState) string {
	var b strings.Builder
	header := fmt.Sprintf("== Round %d ==", st.Round)
	if st.Environment != "" {
		header = fmt.Sprintf("== Round %d : %s ==", st.Round, st.Environment)
	}
	b.WriteString(r.Colorize(Bold+BrightCyan, header))
	b.WriteString("\n")

	p := st.Player
	b.WriteString(fmt.Sprintf("%s  HP %s %d/%d  MP %d/%d  SP %d/%d%s\n",
		r.Colorize(Bold, p.Name),
		r.Colorize(hpColor(p.HPFraction()), bar(p.HP, p.MaxHP, gaugeWidth)),
		p.HP, p.MaxHP, p.Mana, p.MaxMana, p.Stamina, p.MaxStamina,
		r.tags(p),
	))

	for i, e := range st.Enemies {
		line := fmt.Sprintf("  %d) %s Lv%d  %s%s", i+1, e.Name, e.Level, npc.HealthDescription(e), r.tags(e))
		if !e.Alive() {
			line = r.Colorize(Dim, line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if st.Active {
		turn := "Your move."
		if st.Turn == combat.TurnEnemy {
			turn = "The enemies act..."
		}
		b.WriteString(r.Colorize(Cyan, turn))
		b.WriteString("\n")
	}
	return b.String()
}

func (r Renderer) tags(c *combat.Combatant) string {
	var labels []string
	if c.Defending {
		labels = append(labels, "defending")
	}
	labels = append(labels, EffectLabels(c.Effects())...)
	if len(labels) == 0 {
		return ""
	}
	return "  " + r.Colorize(Yellow, "["+strings.Join(labels, ", ")+"]")
}

// EffectLabels describes each active effect with its remaining turns.
func EffectLabels(s *effect.Set) []string {
	var out []string
	for _, e := range s.All() {
		var name string
		switch v := e.(type) {
		case *effect.DamageOverTime:
			name = v.Subtype
		case *effect.CrowdControl:
			name = string(v.Subtype)
		case *effect.Mark:
			name = "marked"
		case *effect.Reflect:
			name = "reflecting"
		}
		out = append(out, fmt.Sprintf("%s %d", name, e.Remaining()))
	}
	return out
}

// Log renders battle log entries, one per line; the player's lines are highlighted.
func (r Renderer) Log(entries []combat.LogEntry, playerName string) string {
	var b strings.Builder
	for _, e := range entries {
		color := White
		switch e.Actor {
		case playerName:
			color = BrightGreen
		case "":
		default:
			color = BrightYellow
		}
		b.WriteString(r.Colorize(color, e.Message))
		b.WriteString("\n")
	}
	return b.String()
}

// Outcome renders the end-of-battle summary.
func (r Renderer) Outcome(o combat.Outcome) string {
	var b strings.Builder
	switch o.Kind {
	case combat.OutcomeVictory:
		b.WriteString(r.Colorize(Bold+BrightGreen, "Victory!"))
	case combat.OutcomeDefeat:
		b.WriteString(r.Colorize(Bold+BrightRed, "Defeat..."))
	default:
		b.WriteString(r.Colorize(Bold+BrightYellow, "You escaped."))
	}
	b.WriteString(fmt.Sprintf("  Rounds: %d  HP lost: %d  HP left: %d\n", o.Rounds, o.HPLoss, o.FinalHP))
	if o.Experience > 0 {
		b.WriteString(fmt.Sprintf("Experience gained: %d\n", o.Experience))
	}
	for _, it := range o.Loot {
		b.WriteString(r.Colorf(Green, "Loot: %s x%d", it.ItemID, it.Quantity))
		b.WriteString("\n")
	}
	return b.String()
}

// Inventory renders backpack contents using registry names.
func (r Renderer) Inventory(items []inventory.ItemInstance, reg *inventory.Registry) string {
	if len(items) == 0 {
		return "Your backpack is empty.\n"
	}
	var b strings.Builder
	for _, it := range items {
		name := it.ItemDefID
		kind := ""
		if def, ok := reg.Item(it.ItemDefID); ok {
			name, kind = def.Name, def.Kind
		}
		b.WriteString(fmt.Sprintf("  %-24s x%-3d %s (%s)\n", name, it.Quantity, r.Colorize(Dim, kind), it.ItemDefID))
	}
	return b.String()
}

// History renders battle records, one per line.
func (r Renderer) History(records []player.Record) string {
	if len(records) == 0 {
		return "You have not fought any battles yet.\n"
	}
	var b strings.Builder
	for _, rec := range records {
		color := BrightYellow
		switch rec.Outcome {
		case "victory":
			color = BrightGreen
		case "defeat":
			color = BrightRed
		}
		items := 0
		for _, it := range rec.Loot {
			items += it.Quantity
		}
		b.WriteString(fmt.Sprintf("  %s  %s  %d rounds  -%d hp  +%d xp  %d loot\n",
			rec.At.Format("2006-01-02 15:04"), r.Colorf(color, "%-7s", rec.Outcome),
			rec.Rounds, rec.HPLoss, rec.Experience, items))
	}
	return b.String()
}
