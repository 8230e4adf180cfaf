package combat

// ActionType identifies what the player does on their turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown ActionType = iota // zero value; intentionally invalid
	ActionAttack
	ActionSkill
	ActionSpecialAttack
	ActionDefend
	ActionUseItem
	ActionFinishItems
	ActionFlee
)

// String returns the human-readable name of the ActionType.
func (a ActionType) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionSkill:
		return "skill"
	case ActionSpecialAttack:
		return "special"
	case ActionDefend:
		return "defend"
	case ActionUseItem:
		return "item"
	case ActionFinishItems:
		return "done"
	case ActionFlee:
		return "flee"
	default:
		return "unknown"
	}
}

// ParseActionType maps a command word to an ActionType.
func ParseActionType(s string) ActionType {
	for a := ActionAttack; a <= ActionFlee; a++ {
		if a.String() == s {
			return a
		}
	}
	return ActionUnknown
}

// Action is one player request.
type Action struct {
	Type ActionType
	// TargetIndex indexes BattleState.Enemies for attack, skill and special.
	TargetIndex int
	// ID is the skill, special-attack or item identifier.
	ID string
}

// ActionResult is returned for every player action. Failures never panic
// or return bare errors; Err carries the cause for callers that care.
type ActionResult struct {
	Success   bool
	Message   string
	TurnEnded bool
	// Outcome is set when the action resolved the encounter.
	Outcome *Outcome
	Err     error
}

func failure(err error, msg string) ActionResult {
	return ActionResult{Message: msg, Err: err}
}
