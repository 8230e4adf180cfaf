package combat

import "fmt"

// Phase is the encounter lifecycle state.
type Phase int

const (
	PhaseNone Phase = iota
	PhasePreparing
	PhaseActive
	PhaseResolved
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PhasePreparing:
		return "preparing"
	case PhaseActive:
		return "active"
	case PhaseResolved:
		return "resolved"
	default:
		return "none"
	}
}

// Turn identifies whose turn it is while an encounter is active.
type Turn int

const (
	TurnPlayer Turn = iota
	TurnEnemy
)

// String returns "player" or "enemy".
func (t Turn) String() string {
	if t == TurnEnemy {
		return "enemy"
	}
	return "player"
}

// LogEntry is one line of the battle log.
type LogEntry struct {
	Actor   string `json:"actor"`
	Message string `json:"message"`
	Round   int    `json:"round"`
}

// BattleState is the encounter aggregate. It is owned by the Engine and
// mutated only while the Engine holds its lock.
type BattleState struct {
	ID          string
	Player      *Combatant
	Enemies     []*Combatant
	Environment string
	Conditions  []string
	Turn        Turn
	Round       int
	Log         []LogEntry
	Active      bool
}

// Combatants returns the player followed by the enemies in original order.
func (s *BattleState) Combatants() []*Combatant {
	out := make([]*Combatant, 0, len(s.Enemies)+1)
	out = append(out, s.Player)
	return append(out, s.Enemies...)
}

// LivingEnemies returns the enemies with HP > 0, in original order.
func (s *BattleState) LivingEnemies() []*Combatant {
	var out []*Combatant
	for _, e := range s.Enemies {
		if e.Alive() {
			out = append(out, e)
		}
	}
	return out
}

// AllEnemiesDead reports whether every enemy has HP == 0.
func (s *BattleState) AllEnemiesDead() bool {
	for _, e := range s.Enemies {
		if e.Alive() {
			return false
		}
	}
	return true
}

// Target returns the living enemy at index.
//
// Postcondition: returns ErrInvalidTarget when index is out of range or the enemy is dead.
func (s *BattleState) Target(index int) (*Combatant, error) {
	if index < 0 || index >= len(s.Enemies) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidTarget, index)
	}
	t := s.Enemies[index]
	if !t.Alive() {
		return nil, fmt.Errorf("%w: %s is already defeated", ErrInvalidTarget, t.Name)
	}
	return t, nil
}

// Append adds a log line for actor in the current round.
func (s *BattleState) Append(actor string, msgs ...string) {
	for _, m := range msgs {
		s.Log = append(s.Log, LogEntry{Actor: actor, Message: m, Round: s.Round})
	}
}
