package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Operation is the kind of change an adjustment applies to a parameter.
type Operation string

const (
	OpIncrease Operation = "increase"
	OpDecrease Operation = "decrease"
	OpSet      Operation = "set"
)

// ValidOperations enumerates all recognized adjustment operations.
var ValidOperations = []Operation{OpIncrease, OpDecrease, OpSet}

// DefectInfo describes a defect type for display.
type DefectInfo struct {
	Name        string `toml:"name"        json:"name"`
	Description string `toml:"description" json:"description"`
}

// Adjustment is one parameter change requested by a rule.
type Adjustment struct {
	Parameter string    `toml:"parameter" json:"parameter"`
	Operation Operation `toml:"operation" json:"operation"`
	Amount    float64   `toml:"amount"    json:"amount"`
	Priority  int       `toml:"priority"  json:"priority"`
	Rationale string    `toml:"rationale" json:"rationale"`
	Unit      string    `toml:"unit"      json:"unit,omitempty"`
}

// Rule maps a defect type to parameter adjustments. SeverityMin gates the
// rule on the detected severity; nil means the rule always applies.
type Rule struct {
	Defect      string       `toml:"defect"       json:"defect"`
	SeverityMin *float64     `toml:"severity_min" json:"severity_min,omitempty"`
	Adjustments []Adjustment `toml:"adjustments"  json:"adjustments"`
}

// Matches reports whether the rule applies to a defect of the given type
// and severity.
func (r Rule) Matches(defectType string, severity float64) bool {
	if r.Defect != defectType {
		return false
	}
	return r.SeverityMin == nil || *r.SeverityMin <= severity
}

// ConflictDefinition names parameters whose simultaneous adjustment by
// different defects should be reported.
type ConflictDefinition struct {
	Parameters  []string `toml:"parameters"  json:"parameters"`
	Description string   `toml:"description" json:"description"`
}

// Key is the joined parameter list used to identify the conflict.
func (c ConflictDefinition) Key() string {
	return strings.Join(c.Parameters, ", ")
}

// Has reports whether param belongs to the definition.
func (c ConflictDefinition) Has(param string) bool {
	for _, p := range c.Parameters {
		if p == param {
			return true
		}
	}
	return false
}

// RulesConfig is the defect catalogue, ordered rule list and conflict table.
// It is treated as immutable once loaded.
type RulesConfig struct {
	Defects   map[string]DefectInfo `toml:"defects"   json:"defects"`
	Rules     []Rule                `toml:"rules"     json:"rules"`
	Conflicts []ConflictDefinition  `toml:"conflicts" json:"conflicts"`
}

// Validate checks the rule table for invalid values and returns a
// descriptive error.
func (c RulesConfig) Validate() error {
	for i, r := range c.Rules {
		if r.Defect == "" {
			return fmt.Errorf("rules[%d]: defect must not be empty", i)
		}
		if len(c.Defects) > 0 {
			if _, ok := c.Defects[r.Defect]; !ok {
				return fmt.Errorf("rules[%d]: unknown defect %q (not in defects table)", i, r.Defect)
			}
		}
		if r.SeverityMin != nil && (*r.SeverityMin < 0 || *r.SeverityMin > 1) {
			return fmt.Errorf("rules[%d].severity_min must be between 0.0 and 1.0 (got %.2f)", i, *r.SeverityMin)
		}
		for j, a := range r.Adjustments {
			if a.Parameter == "" {
				return fmt.Errorf("rules[%d].adjustments[%d]: parameter must not be empty", i, j)
			}
			if !isValidOperation(a.Operation) {
				return fmt.Errorf("rules[%d].adjustments[%d]: unknown operation %q (valid: increase, decrease, set)", i, j, a.Operation)
			}
			if a.Priority < 1 {
				return fmt.Errorf("rules[%d].adjustments[%d].priority must be >= 1 (got %d)", i, j, a.Priority)
			}
		}
	}

	for i, cd := range c.Conflicts {
		if len(cd.Parameters) == 0 {
			return fmt.Errorf("conflicts[%d]: parameters must not be empty", i)
		}
	}

	return nil
}

// DefectTypes returns the catalogue keys in sorted order.
func (c RulesConfig) DefectTypes() []string {
	types := make([]string, 0, len(c.Defects))
	for k := range c.Defects {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// Parameters returns every parameter named by an adjustment, in first-seen
// order.
func (c RulesConfig) Parameters() []string {
	seen := make(map[string]bool)
	var params []string
	for _, r := range c.Rules {
		for _, a := range r.Adjustments {
			if !seen[a.Parameter] {
				seen[a.Parameter] = true
				params = append(params, a.Parameter)
			}
		}
	}
	return params
}

func isValidOperation(op Operation) bool {
	for _, v := range ValidOperations {
		if op == v {
			return true
		}
	}
	return false
}
