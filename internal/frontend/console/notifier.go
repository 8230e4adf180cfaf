package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/observability"
)

// LootSink stores the drops of a won battle.
type LootSink interface {
	AddLoot(loot []combat.LootItem) (skipped []string, err error)
}

// Display renders engine signals to a terminal. It implements combat.Notifier
// and is safe for concurrent use.
//
// The engine invokes Display while holding its own lock, so Display never
// calls back into the engine; the latest battle view is cached instead.
type Display struct {
	out    io.Writer
	render Renderer
	loot   LootSink
	logger *zap.Logger

	mu       sync.Mutex
	printed  int
	player   string
	snapshot string
}

// NewDisplay creates a Display writing to out.
//
// Precondition: out and logger must not be nil; loot may be nil.
func NewDisplay(out io.Writer, color bool, loot LootSink, logger *zap.Logger) *Display {
	if out == nil {
		panic("console.NewDisplay: out must not be nil")
	}
	if logger == nil {
		panic("console.NewDisplay: logger must not be nil")
	}
	return &Display{
		out:    out,
		render: Renderer{Palette{Enabled: color}},
		loot:   loot,
		logger: logger,
	}
}

// Renderer returns the renderer used for all output.
func (d *Display) Renderer() Renderer { return d.render }

// Printf writes a formatted line.
func (d *Display) Printf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.write(fmt.Sprintf(format, args...) + "\n")
}

// Print writes text as-is.
func (d *Display) Print(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.write(text)
}

// Snapshot returns the most recent battle view, or "" outside a battle.
func (d *Display) Snapshot() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot
}

func (d *Display) write(s string) {
	if _, err := io.WriteString(d.out, s); err != nil {
		d.logger.Debug("console write failed", zap.Error(err))
	}
}

// flushLog prints log entries not yet shown. Caller holds d.mu.
func (d *Display) flushLog(st *combat.BattleState) {
	if d.printed > len(st.Log) {
		d.printed = 0
	}
	if fresh := st.Log[d.printed:]; len(fresh) > 0 {
		d.write(d.render.Log(fresh, d.player))
	}
	d.printed = len(st.Log)
}

// EncounterReady announces the prepared enemies.
func (d *Display) EncounterReady(st *combat.BattleState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.printed = len(st.Log)
	d.player = st.Player.Name
	names := make([]string, 0, len(st.Enemies))
	for _, e := range st.Enemies {
		names = append(names, e.Name)
	}
	d.write(d.render.Colorf(BrightRed, "Enemies approach: %s", strings.Join(names, ", ")) + "\n")
	observability.ForEncounter(d.logger, st.ID).Debug("encounter displayed", zap.Strings("enemies", names))
}

// EncounterShown caches the opening battle view; the StateChanged that
// follows prints it.
func (d *Display) EncounterShown(st *combat.BattleState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshot = d.render.Battle(st)
}

// StateChanged prints new log lines and, on the player's turn, the battle view.
func (d *Display) StateChanged(st *combat.BattleState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushLog(st)
	d.snapshot = d.render.Battle(st)
	if st.Active && st.Turn == combat.TurnPlayer {
		d.write(d.snapshot)
	}
}

// EncounterHidden prints the closing log lines.
func (d *Display) EncounterHidden(st *combat.BattleState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushLog(st)
	d.snapshot = ""
}

// EncounterResolved prints the summary and stores victory loot.
func (d *Display) EncounterResolved(o combat.Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.write(d.render.Outcome(o))
	if d.loot == nil || len(o.Loot) == 0 {
		return
	}
	skipped, err := d.loot.AddLoot(o.Loot)
	if err != nil {
		d.write(d.render.Colorize(Yellow, "Your backpack is full; some loot was left behind.") + "\n")
	}
	if len(skipped) > 0 {
		observability.ForEncounter(d.logger, o.EncounterID).Info("loot skipped", zap.Strings("items", skipped))
	}
}

var _ combat.Notifier = (*Display)(nil)
