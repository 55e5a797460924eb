package application

import "github.com/bambumate/bambumate/internal/domain"

// DefectSummary is one entry of the defect catalogue.
type DefectSummary struct {
	Type        string `json:"defect_type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rules       int    `json:"rules"`
}

// Catalogue lists every defect type the rule table knows, sorted by type.
func (s *AnalyzeService) Catalogue() []DefectSummary {
	types := s.engine.KnownDefectTypes()
	out := make([]DefectSummary, 0, len(types))
	for _, t := range types {
		info, _ := s.engine.DefectInfo(t)
		out = append(out, DefectSummary{
			Type:        t,
			Name:        info.Name,
			Description: info.Description,
			Rules:       len(s.engine.RulesFor(t)),
		})
	}
	return out
}

// DefectDetail returns the catalogue entry and rules for one defect type.
// ok is false when the type has neither a catalogue entry nor rules.
func (s *AnalyzeService) DefectDetail(defectType string) (domain.DefectInfo, []domain.Rule, bool) {
	info, known := s.engine.DefectInfo(defectType)
	rules := s.engine.RulesFor(defectType)
	return info, rules, known || len(rules) > 0
}
