package npc

import "github.com/cory-johannsen/skirmish/internal/game/combat"

// HealthDescription returns a visible health state string for c.
//
// Postcondition: Returns a non-empty string.
func HealthDescription(c *combat.Combatant) string {
	if !c.Alive() {
		return "dead"
	}
	pct := c.HPFraction()
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
