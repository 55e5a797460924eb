package domain

import "sort"

// ProfileRegistry looks up profiles by name. Implementations are read-only
// from the resolver's point of view.
type ProfileRegistry interface {
	GetByName(name string) (*Profile, bool)
}

// MapRegistry is an in-memory ProfileRegistry keyed by profile name.
type MapRegistry map[string]*Profile

// NewMapRegistry indexes profiles by their name field. Later profiles with
// the same name replace earlier ones.
func NewMapRegistry(profiles ...*Profile) MapRegistry {
	r := make(MapRegistry, len(profiles))
	for _, p := range profiles {
		r.Add(p)
	}
	return r
}

// Add registers p under its name field. Unnamed profiles are ignored.
func (r MapRegistry) Add(p *Profile) {
	if p == nil || p.Name() == "" {
		return
	}
	r[p.Name()] = p
}

func (r MapRegistry) GetByName(name string) (*Profile, bool) {
	p, ok := r[name]
	return p, ok
}

// Names returns registered profile names in sorted order.
func (r MapRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
