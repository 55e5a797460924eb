// Package recommend turns detected print defects into ranked, clamped
// parameter recommendations and reports defects that pull parameters in
// incompatible directions.
package recommend

import (
	"math"
	"sort"

	"github.com/bambumate/bambumate/internal/domain"
)

// Engine evaluates defects against a fixed rule table. It never mutates its
// rules, so one Engine may serve concurrent callers.
type Engine struct {
	rules domain.RulesConfig
}

// NewEngine returns an engine over a private copy of rules.
func NewEngine(rules domain.RulesConfig) *Engine {
	return &Engine{rules: cloneRules(rules)}
}

// Evaluate produces recommendations for every (defect, matching rule,
// adjustment) triple, sorted by ascending priority, plus the conflicts
// between them. A parameter missing from current is evaluated from 0 and
// listed in the result's warnings.
func (e *Engine) Evaluate(defects []domain.DetectedDefect, current map[string]float64, material domain.MaterialType) domain.EvaluationResult {
	result := domain.EvaluationResult{
		Recommendations: []domain.Recommendation{},
		Conflicts:       []domain.Conflict{},
	}
	missing := make(map[string]bool)

	for _, d := range defects {
		severity := clamp01(d.Severity)
		for _, rule := range e.rules.Rules {
			if !rule.Matches(d.Type, severity) {
				continue
			}
			for _, adj := range rule.Adjustments {
				cur, ok := current[adj.Parameter]
				if !ok && !missing[adj.Parameter] {
					missing[adj.Parameter] = true
					result.Warnings = append(result.Warnings, domain.MissingParameter{
						Parameter: adj.Parameter,
						Defect:    d.Type,
					})
				}
				result.Recommendations = append(result.Recommendations, recommend(d.Type, severity, adj, cur, material))
			}
		}
	}

	sort.SliceStable(result.Recommendations, func(i, j int) bool {
		return result.Recommendations[i].Priority < result.Recommendations[j].Priority
	})

	result.Conflicts = detectConflicts(result.Recommendations, e.rules.Conflicts)
	return result
}

func recommend(defect string, severity float64, adj domain.Adjustment, current float64, material domain.MaterialType) domain.Recommendation {
	var delta float64
	switch adj.Operation {
	case domain.OpIncrease:
		delta = adj.Amount * severity
	case domain.OpDecrease:
		delta = -adj.Amount * severity
	case domain.OpSet:
		delta = adj.Amount - current
	}

	value := current + delta
	clamped := false
	if r, ok := RangeFor(adj.Parameter, material); ok {
		value, clamped = r.Clamp(value)
	}

	return domain.Recommendation{
		Defect:           defect,
		Parameter:        adj.Parameter,
		CurrentValue:     current,
		RecommendedValue: value,
		Priority:         adj.Priority,
		Rationale:        adj.Rationale,
		Unit:             adj.Unit,
		WasClamped:       clamped,
	}
}

// DefectInfo returns the catalogue entry for defectType.
func (e *Engine) DefectInfo(defectType string) (domain.DefectInfo, bool) {
	info, ok := e.rules.Defects[defectType]
	return info, ok
}

// KnownDefectTypes returns every catalogued defect type, sorted.
func (e *Engine) KnownDefectTypes() []string {
	return e.rules.DefectTypes()
}

// RulesFor returns the rules that target defectType, in table order.
func (e *Engine) RulesFor(defectType string) []domain.Rule {
	var out []domain.Rule
	for _, r := range e.rules.Rules {
		if r.Defect == defectType {
			out = append(out, cloneRule(r))
		}
	}
	return out
}

// Parameters returns every parameter the rule table can adjust.
func (e *Engine) Parameters() []string {
	return e.rules.Parameters()
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func cloneRules(c domain.RulesConfig) domain.RulesConfig {
	out := domain.RulesConfig{
		Defects:   make(map[string]domain.DefectInfo, len(c.Defects)),
		Rules:     make([]domain.Rule, len(c.Rules)),
		Conflicts: make([]domain.ConflictDefinition, len(c.Conflicts)),
	}
	for k, v := range c.Defects {
		out.Defects[k] = v
	}
	for i, r := range c.Rules {
		out.Rules[i] = cloneRule(r)
	}
	for i, cd := range c.Conflicts {
		out.Conflicts[i] = domain.ConflictDefinition{
			Parameters:  append([]string(nil), cd.Parameters...),
			Description: cd.Description,
		}
	}
	return out
}

func cloneRule(r domain.Rule) domain.Rule {
	out := domain.Rule{
		Defect:      r.Defect,
		Adjustments: append([]domain.Adjustment(nil), r.Adjustments...),
	}
	if r.SeverityMin != nil {
		m := *r.SeverityMin
		out.SeverityMin = &m
	}
	return out
}
