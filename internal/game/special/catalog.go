// Package special runs weapon special attacks as Lua hooks against an
// in-progress encounter.
package special

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Attack is the static definition of one special attack. The behaviour lives
// in the Lua hook named by Hook.
type Attack struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ManaCost    int    `yaml:"mana_cost"`
	StaminaCost int    `yaml:"stamina_cost"`
}

// Hook returns the Lua global implementing the attack.
func (a Attack) Hook() string { return "special_" + a.ID }

// Validate reports every problem with the definition.
func (a Attack) Validate() error {
	var errs []error
	if a.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if a.Name == "" {
		errs = append(errs, fmt.Errorf("special %q: name must not be empty", a.ID))
	}
	if a.ManaCost < 0 || a.StaminaCost < 0 {
		errs = append(errs, fmt.Errorf("special %q: costs must be >= 0", a.ID))
	}
	return errors.Join(errs...)
}

// Catalog is an immutable set of special attacks keyed by ID.
type Catalog struct {
	byID map[string]Attack
}

// NewCatalog validates attacks and indexes them.
//
// Postcondition: returns an error on any invalid or duplicate definition.
func NewCatalog(attacks []Attack) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Attack, len(attacks))}
	for _, a := range attacks {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate special attack %q", a.ID)
		}
		c.byID[a.ID] = a
	}
	return c, nil
}

// ParseCatalog decodes a `specials:` YAML document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Specials []Attack `yaml:"specials"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing special attacks: %w", err)
	}
	return NewCatalog(doc.Specials)
}

// LoadCatalog reads and parses the catalog file at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// Attack returns the definition for id.
func (c *Catalog) Attack(id string) (Attack, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// IDs returns every attack ID in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
