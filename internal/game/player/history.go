package player

import (
	"context"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Record summarizes one finished battle.
type Record struct {
	EncounterID string
	Outcome     string
	Rounds      int
	Experience  int
	HPLoss      int
	Loot        []combat.LootItem
	At          time.Time
}

// NewRecord summarizes o as of at.
func NewRecord(o combat.Outcome, at time.Time) Record {
	return Record{
		EncounterID: o.EncounterID,
		Outcome:     o.Kind.String(),
		Rounds:      o.Rounds,
		Experience:  o.Experience,
		HPLoss:      o.HPLoss,
		Loot:        append([]combat.LootItem(nil), o.Loot...),
		At:          at,
	}
}

// History lists a player's finished battles.
type History interface {
	// Recent returns at most limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
}
