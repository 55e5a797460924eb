package recommend

import (
	"strings"

	"github.com/bambumate/bambumate/internal/domain"
)

// Family groups parameters that share a safe range.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyNozzleTemp
	FamilyBedTemp
	FamilyRetractionLength
	FamilyRetractionSpeed
	FamilyFlowRatio
	FamilyFanSpeed
	FamilyPressureAdvance
)

var familyNames = map[Family]string{
	FamilyUnknown:          "unknown",
	FamilyNozzleTemp:       "nozzle_temperature",
	FamilyBedTemp:          "bed_temperature",
	FamilyRetractionLength: "retraction_length",
	FamilyRetractionSpeed:  "retraction_speed",
	FamilyFlowRatio:        "flow_ratio",
	FamilyFanSpeed:         "fan_speed",
	FamilyPressureAdvance:  "pressure_advance",
}

func (f Family) String() string { return familyNames[f] }

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp constrains v to the range and reports whether it had to.
func (r Range) Clamp(v float64) (float64, bool) {
	switch {
	case v < r.Min:
		return r.Min, true
	case v > r.Max:
		return r.Max, true
	default:
		return v, false
	}
}

// Fixed ranges for families that do not depend on the material.
var fixedRanges = map[Family]Range{
	FamilyRetractionLength: {Min: 0, Max: 15},
	FamilyRetractionSpeed:  {Min: 10, Max: 100},
	FamilyFlowRatio:        {Min: 0.85, Max: 1.15},
	FamilyFanSpeed:         {Min: 0, Max: 100},
	FamilyPressureAdvance:  {Min: 0, Max: 0.1},
}

// FamilyOf classifies a slicer parameter name.
func FamilyOf(param string) Family {
	p := strings.ToLower(param)
	switch {
	case strings.Contains(p, "nozzle_temperature"):
		return FamilyNozzleTemp
	case strings.Contains(p, "plate_temp"), strings.Contains(p, "bed_temperature"):
		return FamilyBedTemp
	case strings.Contains(p, "retraction_length"):
		return FamilyRetractionLength
	case strings.Contains(p, "retraction_speed"):
		return FamilyRetractionSpeed
	case strings.Contains(p, "flow_ratio"):
		return FamilyFlowRatio
	case strings.Contains(p, "fan") && strings.Contains(p, "speed"):
		return FamilyFanSpeed
	case strings.Contains(p, "pressure_advance"):
		return FamilyPressureAdvance
	default:
		return FamilyUnknown
	}
}

// RangeFor returns the safe range for param under material. Parameters with
// no known family have no range.
func RangeFor(param string, material domain.MaterialType) (Range, bool) {
	fam := FamilyOf(param)
	switch fam {
	case FamilyNozzleTemp:
		c := domain.ConstraintsFor(material)
		return Range{Min: c.NozzleMin, Max: c.NozzleMax}, true
	case FamilyBedTemp:
		c := domain.ConstraintsFor(material)
		return Range{Min: c.BedMin, Max: c.BedMax}, true
	case FamilyUnknown:
		return Range{}, false
	default:
		r, ok := fixedRanges[fam]
		return r, ok
	}
}
