package domain

import "fmt"

// DetectedDefect is a print defect reported by image analysis. Severity and
// Confidence are in [0, 1].
type DetectedDefect struct {
	Type       string  `json:"defect_type"`
	Severity   float64 `json:"severity"`
	Confidence float64 `json:"confidence"`
}

// ValidateDefects checks that every defect names a type and carries
// severity and confidence in [0, 1]. NaN is out of range.
func ValidateDefects(defects []DetectedDefect) error {
	for i, d := range defects {
		if d.Type == "" {
			return fmt.Errorf("defects[%d]: defect_type is required", i)
		}
		if !unitInterval(d.Severity) {
			return fmt.Errorf("defects[%d]: severity %.2f is outside [0, 1]", i, d.Severity)
		}
		if !unitInterval(d.Confidence) {
			return fmt.Errorf("defects[%d]: confidence %.2f is outside [0, 1]", i, d.Confidence)
		}
	}
	return nil
}

func unitInterval(v float64) bool { return v >= 0 && v <= 1 }

// Recommendation is a proposed new value for one parameter, tied to the
// defect that motivated it.
type Recommendation struct {
	Defect           string  `json:"defect"`
	Parameter        string  `json:"parameter"`
	CurrentValue     float64 `json:"current_value"`
	RecommendedValue float64 `json:"recommended_value"`
	Priority         int     `json:"priority"`
	Rationale        string  `json:"rationale"`
	Unit             string  `json:"unit,omitempty"`
	WasClamped       bool    `json:"was_clamped"`
}

// Delta is the signed change the recommendation makes.
func (r Recommendation) Delta() float64 {
	return r.RecommendedValue - r.CurrentValue
}

// Conflict reports defects that pull the same parameter (or parameter group)
// in incompatible directions.
type Conflict struct {
	Parameter          string   `json:"parameter"`
	ConflictingDefects []string `json:"conflicting_defects"`
	Description        string   `json:"description"`
}

// MissingParameter records a parameter that had no current value and was
// evaluated from 0.
type MissingParameter struct {
	Parameter string `json:"parameter"`
	Defect    string `json:"defect"`
}

// EvaluationResult is the output of one rule evaluation. Recommendations are
// sorted by ascending priority and conflicts are unique by parameter key.
type EvaluationResult struct {
	Recommendations []Recommendation   `json:"recommendations"`
	Conflicts       []Conflict         `json:"conflicts"`
	Warnings        []MissingParameter `json:"warnings,omitempty"`
}
