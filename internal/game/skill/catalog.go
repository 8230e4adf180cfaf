// Package skill loads the skill catalog and executes player skills inside an
// encounter.
package skill

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// file is the on-disk layout of one catalog file.
type file struct {
	Skills []combat.Skill `yaml:"skills"`
}

// Catalog is an immutable set of skills indexed by id.
type Catalog struct {
	skills map[string]combat.Skill
}

// NewCatalog validates and indexes skills.
//
// Postcondition: returns an error on the first invalid skill or duplicate id.
func NewCatalog(skills []combat.Skill) (*Catalog, error) {
	c := &Catalog{skills: make(map[string]combat.Skill, len(skills))}
	for _, s := range skills {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.skills[s.ID]; dup {
			return nil, fmt.Errorf("skill %q defined twice", s.ID)
		}
		c.skills[s.ID] = s
	}
	return c, nil
}

// ParseCatalog decodes one catalog file. Unknown fields are rejected.
func ParseCatalog(data []byte) ([]combat.Skill, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing skill catalog: %w", err)
	}
	return f.Skills, nil
}

// LoadCatalog reads every *.yaml file in dir into one Catalog.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns an error on the first unreadable, invalid or duplicate entry.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
	}
	var all []combat.Skill
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		skills, err := ParseCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		all = append(all, skills...)
	}
	return NewCatalog(all)
}

// Skill returns the skill with the given id.
func (c *Catalog) Skill(id string) (combat.Skill, bool) {
	s, ok := c.skills[id]
	return s, ok
}

// IDs returns every skill id, sorted.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.skills))
	for id := range c.skills {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of skills.
func (c *Catalog) Len() int { return len(c.skills) }
