// Package player holds the persistent player profile and the in-memory
// store used when no database is configured.
package player

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Profile is the persistent player record the combat snapshot is built from.
type Profile struct {
	ID         string       `yaml:"id"`
	Name       string       `yaml:"name"`
	Level      int          `yaml:"level"`
	Experience int          `yaml:"experience"`
	HP         int          `yaml:"hp"`
	MaxHP      int          `yaml:"max_hp"`
	Mana       int          `yaml:"mana"`
	MaxMana    int          `yaml:"max_mana"`
	Stamina    int          `yaml:"stamina"`
	MaxStamina int          `yaml:"max_stamina"`
	Stats      combat.Stats `yaml:"stats"`
	Skills     []string     `yaml:"skills"`
	// Equipment lists item IDs equipped before the first encounter.
	Equipment []string `yaml:"equipment"`
	// Items seeds the backpack: item ID to quantity.
	Items map[string]int `yaml:"items"`
}

// Validate reports every problem with the profile.
func (p Profile) Validate() error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, errors.New("player id must not be empty"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("player name must not be empty"))
	}
	if p.Level < 1 {
		errs = append(errs, fmt.Errorf("player level must be >= 1, got %d", p.Level))
	}
	if p.MaxHP < 1 {
		errs = append(errs, fmt.Errorf("player max_hp must be >= 1, got %d", p.MaxHP))
	}
	if p.HP < 0 || p.HP > p.MaxHP {
		errs = append(errs, fmt.Errorf("player hp must be within [0, %d], got %d", p.MaxHP, p.HP))
	}
	for id, qty := range p.Items {
		if qty < 1 {
			errs = append(errs, fmt.Errorf("item %q quantity must be >= 1, got %d", id, qty))
		}
	}
	return errors.Join(errs...)
}

// CombatStats converts the profile into the stats the engine snapshots.
func (p Profile) CombatStats() combat.PlayerStats {
	return combat.PlayerStats{
		ID:         p.ID,
		Name:       p.Name,
		Level:      p.Level,
		HP:         p.HP,
		MaxHP:      p.MaxHP,
		Mana:       p.Mana,
		MaxMana:    p.MaxMana,
		Stamina:    p.Stamina,
		MaxStamina: p.MaxStamina,
		Stats:      p.Stats,
		Skills:     append([]string(nil), p.Skills...),
	}
}

// Apply folds a battle outcome into the profile.
//
// Postcondition: Experience grows by o.Experience; HP becomes o.FinalHP, or 1
// after a defeat so the player can fight again.
func (p *Profile) Apply(o combat.Outcome) {
	p.Experience += o.Experience
	p.HP = min(max(o.FinalHP, 0), p.MaxHP)
	if o.Kind == combat.OutcomeDefeat && p.HP == 0 {
		p.HP = 1
	}
}

// ParseProfile decodes a profile document.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("parsing player profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfile reads and parses the profile at path.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseProfile(data)
}
