package player

import (
	"context"
	"sync"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// MemoryStore is a combat.PlayerProvider that keeps the profile and the
// outcome history in memory.
type MemoryStore struct {
	mu       sync.Mutex
	profile  Profile
	outcomes []combat.Outcome
	records  []Record
}

// NewMemoryStore creates a store holding a copy of p.
func NewMemoryStore(p Profile) *MemoryStore {
	return &MemoryStore{profile: p}
}

var _ combat.PlayerProvider = (*MemoryStore)(nil)

// PlayerStats returns the current profile as combat stats.
func (s *MemoryStore) PlayerStats(ctx context.Context) (combat.PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return combat.PlayerStats{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.CombatStats(), nil
}

// ApplyBattleOutcome records o and folds it into the profile.
func (s *MemoryStore) ApplyBattleOutcome(ctx context.Context, o combat.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Apply(o)
	s.outcomes = append(s.outcomes, o)
	s.records = append(s.records, NewRecord(o, time.Now()))
	return nil
}

// Profile returns a copy of the current profile.
func (s *MemoryStore) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Outcomes returns the outcomes applied so far, oldest first.
func (s *MemoryStore) Outcomes() []combat.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]combat.Outcome(nil), s.outcomes...)
}

// Recent returns the newest records first.
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, min(limit, len(s.records)))
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

var _ History = (*MemoryStore)(nil)
