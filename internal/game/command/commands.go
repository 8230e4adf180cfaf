// Package command provides the console command registry, parser, and the
// mapping from battle commands to engine actions.
package command

// Categories for organizing commands.
const (
	CategoryBattle = "battle"
	CategoryGear   = "gear"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to console handlers.
const (
	HandlerAttack    = "attack"
	HandlerSkill     = "skill"
	HandlerSpecial   = "special"
	HandlerDefend    = "defend"
	HandlerItem      = "item"
	HandlerDone      = "done"
	HandlerFlee      = "flee"
	HandlerStatus    = "status"
	HandlerFight     = "fight"
	HandlerSkills    = "skills"
	HandlerInventory = "inventory"
	HandlerEquip     = "equip"
	HandlerUnequip   = "unequip"
	HandlerEquipment = "equipment"
	HandlerHistory   = "history"
	HandlerHelp      = "help"
	HandlerQuit      = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument shape, e.g. "skill <id> [target]".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command (battle, gear, system).
	Category string
	// Handler names the console handler.
	Handler string
}

// InBattle reports whether the command drives the encounter.
func (c *Command) InBattle() bool { return c.Category == CategoryBattle }

// BuiltinCommands returns all built-in console commands.
func BuiltinCommands() []Command {
	return []Command{
		// Battle commands
		{Name: "attack", Aliases: []string{"a", "att"}, Usage: "attack [target]", Help: "Strike an enemy with your weapon", Category: CategoryBattle, Handler: HandlerAttack},
		{Name: "skill", Aliases: []string{"cast", "k"}, Usage: "skill <id> [target]", Help: "Use a learned skill", Category: CategoryBattle, Handler: HandlerSkill},
		{Name: "special", Aliases: []string{"sp"}, Usage: "special <id> [target]", Help: "Perform a weapon special attack", Category: CategoryBattle, Handler: HandlerSpecial},
		{Name: "defend", Aliases: []string{"def", "guard"}, Usage: "defend", Help: "Halve the next hit you take", Category: CategoryBattle, Handler: HandlerDefend},
		{Name: "item", Aliases: []string{"use"}, Usage: "item <id>", Help: "Use a consumable without ending your turn", Category: CategoryBattle, Handler: HandlerItem},
		{Name: "done", Aliases: []string{"end"}, Usage: "done", Help: "Finish using items and end your turn", Category: CategoryBattle, Handler: HandlerDone},
		{Name: "flee", Aliases: []string{"run"}, Usage: "flee", Help: "Attempt to escape the battle", Category: CategoryBattle, Handler: HandlerFlee},

		// Gear commands
		{Name: "inventory", Aliases: []string{"inv", "i"}, Usage: "inventory", Help: "List the contents of your backpack", Category: CategoryGear, Handler: HandlerInventory},
		{Name: "equip", Aliases: []string{"wear", "wield"}, Usage: "equip <item>", Help: "Equip an item from your backpack", Category: CategoryGear, Handler: HandlerEquip},
		{Name: "unequip", Aliases: []string{"remove"}, Usage: "unequip <slot>", Help: "Remove the item in a slot", Category: CategoryGear, Handler: HandlerUnequip},
		{Name: "equipment", Aliases: []string{"eq", "gear"}, Usage: "equipment", Help: "Show equipped items", Category: CategoryGear, Handler: HandlerEquipment},

		// System commands
		{Name: "fight", Aliases: []string{"f", "hunt"}, Usage: "fight [category|species] [count] [level]", Help: "Start a new encounter", Category: CategorySystem, Handler: HandlerFight},
		{Name: "status", Aliases: []string{"st", "look", "l"}, Usage: "status", Help: "Show the battle status", Category: CategorySystem, Handler: HandlerStatus},
		{Name: "skills", Aliases: []string{"sk"}, Usage: "skills", Help: "List your skills and special attacks", Category: CategorySystem, Handler: HandlerSkills},
		{Name: "history", Aliases: []string{"hist"}, Usage: "history [count]", Help: "Show your most recent battles", Category: CategorySystem, Handler: HandlerHistory},
		{Name: "help", Aliases: []string{"?", "h"}, Usage: "help", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"q", "exit"}, Usage: "quit", Help: "Leave the game", Category: CategorySystem, Handler: HandlerQuit},
	}
}
