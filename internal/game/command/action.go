package command

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// ErrUsage is returned when a battle command has the wrong arguments.
var ErrUsage = errors.New("usage")

// BattleAction converts a battle command and its arguments into an engine
// action. Targets are typed 1-based and default to the first enemy.
//
// Precondition: cmd.InBattle() must be true.
// Postcondition: Returns an error wrapping ErrUsage for malformed arguments.
func BattleAction(cmd *Command, args []string) (combat.Action, error) {
	usage := func() error { return fmt.Errorf("%w: %s", ErrUsage, cmd.Usage) }

	switch cmd.Handler {
	case HandlerAttack:
		if len(args) > 1 {
			return combat.Action{}, usage()
		}
		idx, err := target(args, 0)
		if err != nil {
			return combat.Action{}, usage()
		}
		return combat.Action{Type: combat.ActionAttack, TargetIndex: idx}, nil

	case HandlerSkill, HandlerSpecial:
		if len(args) < 1 || len(args) > 2 {
			return combat.Action{}, usage()
		}
		idx, err := target(args, 1)
		if err != nil {
			return combat.Action{}, usage()
		}
		t := combat.ActionSkill
		if cmd.Handler == HandlerSpecial {
			t = combat.ActionSpecialAttack
		}
		return combat.Action{Type: t, ID: args[0], TargetIndex: idx}, nil

	case HandlerItem:
		if len(args) != 1 {
			return combat.Action{}, usage()
		}
		return combat.Action{Type: combat.ActionUseItem, ID: args[0]}, nil

	case HandlerDefend, HandlerDone, HandlerFlee:
		if len(args) != 0 {
			return combat.Action{}, usage()
		}
		return combat.Action{Type: combat.ParseActionType(cmd.Handler)}, nil
	}
	return combat.Action{}, fmt.Errorf("%q is not a battle command", cmd.Name)
}

// target reads the 1-based target at args[pos], defaulting to the first enemy.
func target(args []string, pos int) (int, error) {
	if len(args) <= pos {
		return 0, nil
	}
	n, err := strconv.Atoi(args[pos])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid target %q", args[pos])
	}
	return n - 1, nil
}
