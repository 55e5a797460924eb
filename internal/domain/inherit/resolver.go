// Package inherit flattens a profile's inheritance chain into a single
// self-contained profile.
package inherit

import (
	"errors"
	"fmt"

	"github.com/bambumate/bambumate/internal/domain"
)

// MaxDepth bounds the number of profiles in a chain, leaf included.
const MaxDepth = 10

// Failure kinds. Match them with errors.Is.
var (
	ErrParentNotFound      = errors.New("parent profile not found")
	ErrCircularInheritance = errors.New("circular inheritance")
	ErrDepthExceeded       = errors.New("inheritance depth exceeded")
)

// ResolutionError describes why a chain could not be flattened. Its message
// is meant to be shown to the user as is.
type ResolutionError struct {
	Kind         error
	Name         string // offending profile name
	ReferencedBy string // child that named a missing parent
	Limit        int
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case ErrParentNotFound:
		if e.ReferencedBy != "" {
			return fmt.Sprintf("parent profile %q not found (referenced by %q)", e.Name, e.ReferencedBy)
		}
		return fmt.Sprintf("parent profile %q not found", e.Name)
	case ErrCircularInheritance:
		return fmt.Sprintf("circular inheritance detected at profile %q", e.Name)
	case ErrDepthExceeded:
		return fmt.Sprintf("inheritance chain exceeds maximum depth of %d", e.Limit)
	default:
		return fmt.Sprintf("resolving %q: %v", e.Name, e.Kind)
	}
}

func (e *ResolutionError) Unwrap() error { return e.Kind }

// skipFields identify a profile rather than configure it, so they are never
// taken from ancestors.
var skipFields = map[string]bool{
	"name":                          true,
	"inherits":                      true,
	"type":                          true,
	"from":                          true,
	"instantiation":                 true,
	"filament_id":                   true,
	"setting_id":                    true,
	"include":                       true,
	"description":                   true,
	"compatible_printers":           true,
	"compatible_printers_condition": true,
	"compatible_prints":             true,
	"compatible_prints_condition":   true,
	"filament_settings_id":          true,
}

// IsIdentityField reports whether key is excluded from ancestor merges.
func IsIdentityField(key string) bool { return skipFields[key] }

// Resolve flattens profile's ancestor chain using registry. Fields are
// merged from the root toward the leaf; nil-sentinel values never overwrite;
// identity fields come only from the leaf, whose own fields always win.
// Neither input is modified.
func Resolve(profile *domain.Profile, registry domain.ProfileRegistry) (*domain.Profile, error) {
	chain, err := Chain(profile, registry)
	if err != nil {
		return nil, err
	}

	if len(chain) == 1 && !profile.HasNilFields() {
		return profile.Clone(), nil
	}

	result := domain.NewProfile()
	for i := len(chain) - 1; i >= 1; i-- {
		mergeInto(result, chain[i], true)
	}
	mergeInto(result, profile, false)
	return result, nil
}

// Chain returns the profiles from profile up to its root, leaf first.
func Chain(profile *domain.Profile, registry domain.ProfileRegistry) ([]*domain.Profile, error) {
	chain := []*domain.Profile{profile}
	visited := make(map[string]bool)
	if name := profile.Name(); name != "" {
		visited[name] = true
	}

	current := profile
	for {
		parentName := current.Inherits()
		if parentName == "" {
			return chain, nil
		}
		if visited[parentName] {
			return nil, &ResolutionError{Kind: ErrCircularInheritance, Name: parentName}
		}
		if len(chain) >= MaxDepth {
			return nil, &ResolutionError{Kind: ErrDepthExceeded, Name: parentName, Limit: MaxDepth}
		}
		parent, ok := registry.GetByName(parentName)
		if !ok || parent == nil {
			return nil, &ResolutionError{Kind: ErrParentNotFound, Name: parentName, ReferencedBy: current.Name()}
		}
		visited[parentName] = true
		chain = append(chain, parent)
		current = parent
	}
}

func mergeInto(dst, src *domain.Profile, skipIdentity bool) {
	for _, key := range src.Keys() {
		if skipIdentity && skipFields[key] {
			continue
		}
		v, _ := src.Get(key)
		if v.IsNil() {
			continue
		}
		dst.CopyField(src, key)
	}
}
