package npc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNoTemplate is returned when no template matches a request.
var ErrNoTemplate = errors.New("npc: no matching template")

// Registry indexes templates by id, species and category.
// All methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]*Template
	bySpecies  map[string]*Template
	byCategory map[string][]*Template
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[string]*Template),
		bySpecies:  make(map[string]*Template),
		byCategory: make(map[string][]*Template),
	}
}

// NewRegistryFromTemplates registers every template in tmpls.
//
// Postcondition: Returns an error on the first duplicate id.
func NewRegistryFromTemplates(tmpls []*Template) (*Registry, error) {
	r := NewRegistry()
	for _, t := range tmpls {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds tmpl.
//
// Precondition: tmpl must be non-nil and valid.
// Postcondition: Returns an error if tmpl.ID is already registered.
func (r *Registry) Register(tmpl *Template) error {
	if tmpl == nil {
		return fmt.Errorf("npc.Registry.Register: tmpl must not be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[tmpl.ID]; ok {
		return fmt.Errorf("npc template %q already registered", tmpl.ID)
	}
	r.byID[tmpl.ID] = tmpl
	r.bySpecies[strings.ToLower(tmpl.SpeciesKey())] = tmpl
	cat := strings.ToLower(tmpl.Category)
	r.byCategory[cat] = append(r.byCategory[cat], tmpl)
	return nil
}

// Get returns the template with the given id.
func (r *Registry) Get(id string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// IDs returns every registered template id, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Candidates returns the templates matching species (case-insensitive) or,
// when species is empty or unknown, every template in category. An empty
// category with no species match yields every template.
//
// Postcondition: Returns ErrNoTemplate when nothing matches; the slice is
// ordered by template id.
func (r *Registry) Candidates(category, species string) ([]*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if species != "" {
		if t, ok := r.bySpecies[strings.ToLower(species)]; ok {
			return []*Template{t}, nil
		}
	}
	var out []*Template
	if category != "" {
		out = append(out, r.byCategory[strings.ToLower(category)]...)
	} else {
		for _, t := range r.byID {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: category %q species %q", ErrNoTemplate, category, species)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
