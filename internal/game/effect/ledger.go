package effect

// Source is the subset of dice.Source the ledger needs for crowd-control rolls.
type Source interface {
	Float64() float64
}

// chanceSource is implemented by sources that log named draws.
type chanceSource interface {
	Chance(label string, p float64) bool
}

func roll(src Source, label string, p float64) bool {
	if c, ok := src.(chanceSource); ok {
		return c.Chance(label, p)
	}
	return src.Float64() < p
}

// Set is the ordered list of effects afflicting one combatant.
// It is not safe for concurrent use; the encounter owning the combatant
// serialises access.
type Set struct {
	effects []Effect
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// ApplyDOT appends a damage-over-time effect.
//
// Postcondition: returns true and appends iff spec.Duration > 0. A
// zero-duration DOT is never stored and therefore never ticks.
func (s *Set) ApplyDOT(spec DOTSpec, sourceID string) bool {
	if spec.Duration <= 0 {
		return false
	}
	s.effects = append(s.effects, &DamageOverTime{
		timed:         timed{remainingTurns: spec.Duration, sourceID: sourceID},
		Subtype:       spec.Subtype,
		DamagePerTurn: spec.DamagePerTurn,
	})
	return true
}

// ApplyCC draws one uniform value from src and appends the effect only when
// the draw is below spec.Chance.
//
// Precondition: src must be non-nil.
// Postcondition: returns true iff the effect was appended.
func (s *Set) ApplyCC(spec CCSpec, sourceID string, src Source) bool {
	if !roll(src, "cc "+string(spec.Subtype), spec.Chance) {
		return false
	}
	if spec.Duration <= 0 {
		return false
	}
	s.effects = append(s.effects, &CrowdControl{
		timed:   timed{remainingTurns: spec.Duration, sourceID: sourceID},
		Subtype: spec.Subtype,
	})
	return true
}

// ApplyMark appends a mark. Existing marks are kept; DamageBonus reports the first.
func (s *Set) ApplyMark(spec MarkSpec, sourceID string) bool {
	if spec.Duration <= 0 {
		return false
	}
	s.effects = append(s.effects, &Mark{
		timed:       timed{remainingTurns: spec.Duration, sourceID: sourceID},
		DamageBonus: spec.DamageBonus,
	})
	return true
}

// ApplyReflect appends a reflect. Existing reflects are kept; ReflectPercent reports the first.
func (s *Set) ApplyReflect(spec ReflectSpec, sourceID string) bool {
	if spec.Duration <= 0 {
		return false
	}
	s.effects = append(s.effects, &Reflect{
		timed:   timed{remainingTurns: spec.Duration, sourceID: sourceID},
		Percent: spec.Percent,
	})
	return true
}

// IsControlled reports whether a stun or freeze is active.
func (s *Set) IsControlled() bool {
	for _, e := range s.effects {
		if cc, ok := e.(*CrowdControl); ok && (cc.Subtype == Stun || cc.Subtype == Freeze) {
			return true
		}
	}
	return false
}

// IsSlowed reports whether a slow is active.
func (s *Set) IsSlowed() bool {
	for _, e := range s.effects {
		if cc, ok := e.(*CrowdControl); ok && cc.Subtype == Slow {
			return true
		}
	}
	return false
}

// DamageBonus returns the bonus of the first mark found, or 0.
func (s *Set) DamageBonus() float64 {
	for _, e := range s.effects {
		if m, ok := e.(*Mark); ok {
			return m.DamageBonus
		}
	}
	return 0
}

// ReflectPercent returns the percent of the first reflect found, or 0.
func (s *Set) ReflectPercent() float64 {
	for _, e := range s.effects {
		if r, ok := e.(*Reflect); ok {
			return r.Percent
		}
	}
	return 0
}

// Clear removes every effect.
func (s *Set) Clear() {
	s.effects = nil
}

// ClearKind removes every effect of kind k.
func (s *Set) ClearKind(k Kind) {
	kept := s.effects[:0]
	for _, e := range s.effects {
		if e.Kind() != k {
			kept = append(kept, e)
		}
	}
	s.effects = kept
}

// Len returns the number of active effects.
func (s *Set) Len() int { return len(s.effects) }

// All returns a copy of the effect slice in application order. The
// pointed-to effects are shared; callers must not modify them.
func (s *Set) All() []Effect {
	out := make([]Effect, len(s.effects))
	copy(out, s.effects)
	return out
}
