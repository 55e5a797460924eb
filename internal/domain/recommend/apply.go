package recommend

import "github.com/bambumate/bambumate/internal/domain"

// AppliedChange is one parameter written by Apply.
type AppliedChange struct {
	Parameter string `json:"parameter"`
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	Defect    string `json:"defect"`
	Priority  int    `json:"priority"`
}

// Apply writes recommendations into a copy of profile. recs must be sorted
// by priority; the first recommendation per parameter wins. Fields that are
// not recommended keep their source encoding.
//
// Recommendations are computed from the first extruder slot. The other
// slots of an extruder array move by the same delta, clamped to the
// parameter's range for material.
func Apply(profile *domain.Profile, recs []domain.Recommendation, material domain.MaterialType) (*domain.Profile, []AppliedChange) {
	out := profile.Clone()
	seen := make(map[string]bool)
	var changes []AppliedChange

	for _, r := range recs {
		if seen[r.Parameter] {
			continue
		}
		seen[r.Parameter] = true
		if direction(r.Delta()) == 0 {
			continue
		}

		var from string
		v, ok := out.Get(r.Parameter)
		if ok {
			from = v.String()
		}
		if ok && len(v.Slots()) > 1 {
			out.Set(r.Parameter, shiftSlots(v, r, material))
		} else {
			out.SetFloat(r.Parameter, r.RecommendedValue)
		}
		changes = append(changes, AppliedChange{
			Parameter: r.Parameter,
			From:      from,
			To:        domain.FormatNumber(r.RecommendedValue),
			Defect:    r.Defect,
			Priority:  r.Priority,
		})
	}
	return out, changes
}

// shiftSlots sets the first slot to the recommended value and moves every
// other numeric slot by the recommendation's delta. Slots that are not
// numbers take the recommended value.
func shiftSlots(v domain.Value, r domain.Recommendation, material domain.MaterialType) domain.Value {
	delta := r.RecommendedValue - r.CurrentValue
	rng, bounded := RangeFor(r.Parameter, material)

	slots := v.Slots()
	out := make([]string, len(slots))
	for i, s := range slots {
		f, ok := domain.Scalar(s).Float()
		if i == 0 || !ok {
			out[i] = domain.FormatNumber(r.RecommendedValue)
			continue
		}
		shifted := f + delta
		if bounded {
			shifted, _ = rng.Clamp(shifted)
		}
		out[i] = domain.FormatNumber(shifted)
	}
	return domain.ExtruderArray(out...)
}

// CurrentValues reads the numeric value of each parameter present in
// profile. Non-numeric or absent parameters are left out.
func CurrentValues(profile *domain.Profile, params []string) map[string]float64 {
	values := make(map[string]float64, len(params))
	for _, p := range params {
		if f, ok := profile.Float(p); ok {
			values[p] = f
		}
	}
	return values
}
