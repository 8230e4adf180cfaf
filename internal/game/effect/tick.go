package effect

import "fmt"

// Target is a combatant whose effects are ticked.
type Target interface {
	DisplayName() string
	Alive() bool
	// TakeDamage reduces hp by amount, clamped at zero, and returns the hp lost.
	TakeDamage(amount int) int
	Effects() *Set
}

// Tick advances every living target's effects by one round, in order.
// DOTs deal their damage first, then every effect loses one turn; effects
// reaching zero are removed.
//
// Postcondition: each living target is visited exactly once; the returned
// messages are in visit order.
func Tick(targets []Target) []string {
	var msgs []string
	for _, t := range targets {
		if !t.Alive() {
			continue
		}
		msgs = append(msgs, t.Effects().tick(t)...)
	}
	return msgs
}

func (s *Set) tick(t Target) []string {
	var msgs []string
	kept := s.effects[:0]
	for _, e := range s.effects {
		switch v := e.(type) {
		case *DamageOverTime:
			if t.Alive() {
				lost := t.TakeDamage(v.DamagePerTurn)
				msgs = append(msgs, fmt.Sprintf("%s takes %d %s damage.", t.DisplayName(), lost, v.Subtype))
				if !t.Alive() {
					msgs = append(msgs, fmt.Sprintf("%s succumbs to %s.", t.DisplayName(), v.Subtype))
				}
			}
		case *CrowdControl, *Mark, *Reflect:
		default:
			panic(fmt.Sprintf("effect: unhandled effect variant %T", e))
		}
		if e.decrement() > 0 {
			kept = append(kept, e)
			continue
		}
		if cc, ok := e.(*CrowdControl); ok {
			msgs = append(msgs, fmt.Sprintf("%s is no longer affected by %s.", t.DisplayName(), cc.Subtype))
		}
	}
	for i := len(kept); i < len(s.effects); i++ {
		s.effects[i] = nil
	}
	s.effects = kept
	return msgs
}
