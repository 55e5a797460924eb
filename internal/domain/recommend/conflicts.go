package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/bambumate/bambumate/internal/domain"
)

// directionEpsilon is the smallest change treated as a direction.
const directionEpsilon = 0.001

type candidate struct {
	conflict domain.Conflict
	explicit bool
}

// detectConflicts runs the implicit (opposite directions on one parameter)
// and explicit (configured parameter groups) passes and keeps one conflict
// per parameter key. When both passes produce the same key the explicit
// definition wins.
func detectConflicts(recs []domain.Recommendation, defs []domain.ConflictDefinition) []domain.Conflict {
	candidates := append(implicitConflicts(recs), explicitConflicts(recs, defs)...)

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.conflict.Parameter != b.conflict.Parameter {
			return a.conflict.Parameter < b.conflict.Parameter
		}
		return a.explicit && !b.explicit
	})

	out := make([]domain.Conflict, 0, len(candidates))
	for i, c := range candidates {
		if i > 0 && candidates[i-1].conflict.Parameter == c.conflict.Parameter {
			continue
		}
		out = append(out, c.conflict)
	}
	return out
}

func implicitConflicts(recs []domain.Recommendation) []candidate {
	var order []string
	groups := make(map[string][]domain.Recommendation)
	for _, r := range recs {
		if _, ok := groups[r.Parameter]; !ok {
			order = append(order, r.Parameter)
		}
		groups[r.Parameter] = append(groups[r.Parameter], r)
	}

	var out []candidate
	for _, param := range order {
		var up, down bool
		defects := make(map[string]bool)
		for _, r := range groups[param] {
			switch direction(r.Delta()) {
			case 1:
				up = true
				defects[r.Defect] = true
			case -1:
				down = true
				defects[r.Defect] = true
			}
		}
		if !up || !down {
			continue
		}
		out = append(out, candidate{conflict: domain.Conflict{
			Parameter:          param,
			ConflictingDefects: sortedKeys(defects),
			Description:        fmt.Sprintf("Defects require %s to move in opposite directions", param),
		}})
	}
	return out
}

func explicitConflicts(recs []domain.Recommendation, defs []domain.ConflictDefinition) []candidate {
	var out []candidate
	for _, def := range defs {
		defects := make(map[string]bool)
		for _, r := range recs {
			if def.Has(r.Parameter) {
				defects[r.Defect] = true
			}
		}
		if len(defects) <= 1 {
			continue
		}
		out = append(out, candidate{
			conflict: domain.Conflict{
				Parameter:          def.Key(),
				ConflictingDefects: sortedKeys(defects),
				Description:        def.Description,
			},
			explicit: true,
		})
	}
	return out
}

func direction(delta float64) int {
	switch {
	case math.Abs(delta) < directionEpsilon:
		return 0
	case delta > 0:
		return 1
	default:
		return -1
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
