package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/command"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/player"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/special"
)

const (
	// MaxEnemies caps the number of enemies a single fight command may request.
	MaxEnemies = 5
	// DefaultHistory is the number of battles the history command lists.
	DefaultHistory = 5
)

// Game bundles the collaborators a Session drives.
type Game struct {
	Engine  *combat.Engine
	Player  combat.PlayerProvider
	Items   *inventory.Registry
	Bag     *inventory.Backpack
	Loadout *inventory.Loadout
	Skills  *skill.Catalog
	// Cooldowns reports remaining skill cooldowns; nil hides them.
	Cooldowns interface{ Cooldown(skillID string) int }
	// Specials is nil when scripting is disabled.
	Specials *special.Catalog
	// History is nil when battles are not recorded.
	History     player.History
	Environment string
}

// Session is one interactive player at a terminal.
type Session struct {
	game    Game
	display *Display
	pacer   *combat.Pacer
	cmds    *command.Registry
	logger  *zap.Logger
}

// NewSession wires a Session. The enemy phase runs delay after each turn-ending action.
//
// Precondition: game.Engine, game.Player, game.Items, game.Bag, game.Loadout,
// game.Skills, display and logger must not be nil.
func NewSession(game Game, display *Display, delay time.Duration, logger *zap.Logger) *Session {
	if game.Engine == nil || game.Player == nil {
		panic("console.NewSession: engine and player must not be nil")
	}
	if display == nil || logger == nil {
		panic("console.NewSession: display and logger must not be nil")
	}
	s := &Session{
		game:    game,
		display: display,
		cmds:    command.DefaultRegistry(),
		logger:  logger,
	}
	s.pacer = combat.NewPacer(game.Engine, delay, s.onStep)
	return s
}

func (s *Session) onStep(step combat.Step) {
	if step.Err != nil {
		s.logger.Debug("enemy phase skipped", zap.Error(step.Err))
	}
}

// Run reads commands from in until quit, end of input, or ctx cancellation.
//
// Postcondition: pending enemy phases are cancelled before Run returns.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	defer s.pacer.Stop()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.display.Printf("Type %q for a list of commands.", "help")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				default:
				}
				return nil
			}
			if s.Handle(ctx, line) {
				return nil
			}
		}
	}
}

// Wait blocks until any scheduled enemy phase has finished.
func (s *Session) Wait() { s.pacer.Wait() }

// Handle executes one input line and reports whether the player quit.
func (s *Session) Handle(ctx context.Context, line string) (quit bool) {
	if strings.TrimSpace(line) == "" {
		return false
	}
	cmd, args, ok := s.cmds.Lookup(line)
	if !ok {
		s.display.Printf("Unknown command %q. Type help for a list.", strings.Fields(line)[0])
		return false
	}

	if cmd.InBattle() {
		s.battle(ctx, cmd, args)
		return false
	}

	switch cmd.Handler {
	case command.HandlerFight:
		s.fight(ctx, args)
	case command.HandlerStatus:
		s.status(ctx)
	case command.HandlerSkills:
		s.skills()
	case command.HandlerInventory:
		s.inventory()
	case command.HandlerEquip:
		s.equip(args)
	case command.HandlerUnequip:
		s.unequip(args)
	case command.HandlerEquipment:
		s.equipment()
	case command.HandlerHistory:
		s.history(ctx, args)
	case command.HandlerHelp:
		s.display.Print(s.cmds.HelpText(command.CategoryBattle, command.CategoryGear, command.CategorySystem))
	case command.HandlerQuit:
		s.display.Printf("Farewell.")
		return true
	default:
		s.logger.Warn("command has no console handler", zap.String("command", cmd.Name))
	}
	return false
}

func (s *Session) battle(ctx context.Context, cmd *command.Command, args []string) {
	if s.game.Engine.Phase() != combat.PhaseActive {
		s.display.Printf("You are not in a battle. Use fight to find one.")
		return
	}
	a, err := command.BattleAction(cmd, args)
	if err != nil {
		s.display.Printf("Usage: %s", cmd.Usage)
		return
	}
	res := s.pacer.Act(ctx, a)
	if !res.Success && res.Message != "" {
		s.display.Printf("%s", s.display.Renderer().Colorize(Yellow, res.Message))
	}
}

func (s *Session) fight(ctx context.Context, args []string) {
	if len(args) > 3 {
		s.display.Printf("Usage: fight [category|species] [count] [level]")
		return
	}
	var what string
	if len(args) > 0 {
		what = args[0]
	}
	count, err := intArg(args, 1, 1)
	if err != nil || count < 1 || count > MaxEnemies {
		s.display.Printf("Count must be between 1 and %d.", MaxEnemies)
		return
	}
	level, err := intArg(args, 2, 0)
	if err != nil || level < 0 {
		s.display.Printf("Level must be a positive number.")
		return
	}
	if level == 0 {
		ps, err := s.game.Player.PlayerStats(ctx)
		if err != nil {
			s.logger.Error("loading player stats", zap.Error(err))
			s.display.Printf("Your character could not be loaded.")
			return
		}
		level = max(ps.Level, 1)
	}

	req := combat.PrepareRequest{Environment: s.game.Environment}
	for range count {
		req.Enemies = append(req.Enemies, combat.EnemyRequest{Level: level, Category: what, Species: what})
	}
	if err := s.game.Engine.Prepare(ctx, req); err != nil {
		if errors.Is(err, combat.ErrEncounterInProgress) {
			s.display.Printf("Finish the current battle first.")
			return
		}
		s.logger.Warn("preparing encounter", zap.Error(err))
		s.display.Printf("No battle could be started: %v", err)
		return
	}
	if err := s.game.Engine.Launch(); err != nil {
		s.logger.Error("launching encounter", zap.Error(err))
	}
}

func intArg(args []string, pos, def int) (int, error) {
	if len(args) <= pos {
		return def, nil
	}
	return strconv.Atoi(args[pos])
}

func (s *Session) status(ctx context.Context) {
	if view := s.display.Snapshot(); view != "" {
		s.display.Print(view)
		return
	}
	ps, err := s.game.Player.PlayerStats(ctx)
	if err != nil {
		s.logger.Error("loading player stats", zap.Error(err))
		s.display.Printf("Your character could not be loaded.")
		return
	}
	s.display.Printf("%s, level %d  HP %d/%d  MP %d/%d  SP %d/%d",
		ps.Name, ps.Level, ps.HP, ps.MaxHP, ps.Mana, ps.MaxMana, ps.Stamina, ps.MaxStamina)
	if o, ok := s.game.Engine.LastOutcome(); ok {
		s.display.Printf("Last battle: %s after %d rounds.", o.Kind, o.Rounds)
	}
}

func (s *Session) history(ctx context.Context, args []string) {
	if s.game.History == nil {
		s.display.Printf("No battle history is kept.")
		return
	}
	n, err := intArg(args, 0, DefaultHistory)
	if err != nil || n < 1 || len(args) > 1 {
		s.display.Printf("Usage: history [count]")
		return
	}
	records, err := s.game.History.Recent(ctx, n)
	if err != nil {
		s.logger.Error("loading battle history", zap.Error(err))
		s.display.Printf("Your battle history could not be loaded.")
		return
	}
	s.display.Print(s.display.Renderer().History(records))
}

func (s *Session) skills() {
	var b strings.Builder
	b.WriteString("Skills:\n")
	for _, id := range s.game.Skills.IDs() {
		sk, _ := s.game.Skills.Skill(id)
		fmt.Fprintf(&b, "  %-12s %-20s mana %d  stamina %d", sk.ID, sk.Name, sk.ManaCost, sk.StaminaCost)
		if s.game.Cooldowns != nil {
			if cd := s.game.Cooldowns.Cooldown(id); cd > 0 {
				fmt.Fprintf(&b, "  (ready in %d)", cd)
			}
		}
		b.WriteString("\n")
	}
	if s.game.Specials != nil {
		b.WriteString("Special attacks:\n")
		for _, id := range s.game.Specials.IDs() {
			a, _ := s.game.Specials.Attack(id)
			fmt.Fprintf(&b, "  %-12s %-20s mana %d  stamina %d\n", a.ID, a.Name, a.ManaCost, a.StaminaCost)
		}
	}
	s.display.Print(b.String())
}

func (s *Session) inventory() {
	bag := s.game.Bag
	s.display.Print(s.display.Renderer().Inventory(bag.Items(), s.game.Items))
	if bag.UsedSlots() > 0 {
		s.display.Printf("Slots %d/%d  Weight %.1f/%.1f", bag.UsedSlots(), bag.MaxSlots, bag.TotalWeight(), bag.MaxWeight)
	}
}

func (s *Session) gearLocked() bool {
	if s.game.Engine.Phase() == combat.PhaseActive {
		s.display.Printf("You cannot change equipment during a battle.")
		return true
	}
	return false
}

func (s *Session) equip(args []string) {
	if len(args) != 1 {
		s.display.Printf("Usage: equip <item>")
		return
	}
	if s.gearLocked() {
		return
	}
	id := args[0]
	if s.game.Bag.Quantity(id) == 0 {
		s.display.Printf("You are not carrying %q.", id)
		return
	}
	if err := s.game.Loadout.Equip(id); err != nil {
		s.display.Printf("You cannot equip %q.", id)
		return
	}
	def, _ := s.game.Items.Item(id)
	s.display.Printf("You equip %s (%s).", def.Name, def.Slot)
}

func (s *Session) unequip(args []string) {
	if len(args) != 1 {
		s.display.Printf("Usage: unequip <slot>")
		return
	}
	if s.gearLocked() {
		return
	}
	slot := args[0]
	def := s.game.Loadout.Equipped(slot)
	if def == nil {
		s.display.Printf("Nothing is equipped in %s.", slot)
		return
	}
	s.game.Loadout.Unequip(slot)
	s.display.Printf("You remove %s.", def.Name)
}

func (s *Session) equipment() {
	slots := s.game.Loadout.Slots()
	if len(slots) == 0 {
		s.display.Printf("You have nothing equipped.")
		return
	}
	var b strings.Builder
	for _, slot := range slots {
		def := s.game.Loadout.Equipped(slot)
		fmt.Fprintf(&b, "  %-10s %s\n", slot, def.Name)
	}
	s.display.Print(b.String())
}
