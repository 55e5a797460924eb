package domain

import (
	"strings"
)

// MaterialKind enumerates the filament families the engine knows about.
type MaterialKind int

const (
	MaterialOther MaterialKind = iota
	MaterialPLA
	MaterialPETG
	MaterialABS
	MaterialASA
	MaterialTPU
	MaterialNylon
	MaterialPC
	MaterialPVA
	MaterialHIPS
)

var materialNames = map[MaterialKind]string{
	MaterialPLA:   "PLA",
	MaterialPETG:  "PETG",
	MaterialABS:   "ABS",
	MaterialASA:   "ASA",
	MaterialTPU:   "TPU",
	MaterialNylon: "Nylon",
	MaterialPC:    "PC",
	MaterialPVA:   "PVA",
	MaterialHIPS:  "HIPS",
}

// MaterialType is a classified filament material. Label is only meaningful
// for MaterialOther and holds the unrecognized text.
type MaterialType struct {
	Kind  MaterialKind
	Label string
}

var (
	PLA   = MaterialType{Kind: MaterialPLA}
	PETG  = MaterialType{Kind: MaterialPETG}
	ABS   = MaterialType{Kind: MaterialABS}
	ASA   = MaterialType{Kind: MaterialASA}
	TPU   = MaterialType{Kind: MaterialTPU}
	Nylon = MaterialType{Kind: MaterialNylon}
	PC    = MaterialType{Kind: MaterialPC}
	PVA   = MaterialType{Kind: MaterialPVA}
	HIPS  = MaterialType{Kind: MaterialHIPS}
)

// KnownMaterials lists the classified materials in declaration order.
func KnownMaterials() []MaterialType {
	out := make([]MaterialType, 0, len(materialNames))
	for k := MaterialPLA; k <= MaterialHIPS; k++ {
		out = append(out, MaterialType{Kind: k})
	}
	return out
}

// OtherMaterial returns the fallback material carrying label.
func OtherMaterial(label string) MaterialType {
	return MaterialType{Kind: MaterialOther, Label: label}
}

func (m MaterialType) String() string {
	if name, ok := materialNames[m.Kind]; ok {
		return name
	}
	return m.Label
}

func (m MaterialType) IsOther() bool { return m.Kind == MaterialOther }

func (m MaterialType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MaterialType) UnmarshalText(text []byte) error {
	*m = ClassifyMaterial(string(text))
	return nil
}

// materialPriority is the order in which substrings are tried. More specific
// names come first so that a shorter token never steals a match: PETG before
// PLA, ASA before ABS, HIPS and PVA before PC, and the two-letter PA (nylon)
// last of all.
var materialPriority = []struct {
	needles []string
	kind    MaterialKind
}{
	{[]string{"PETG", "PET-G"}, MaterialPETG},
	{[]string{"PLA"}, MaterialPLA},
	{[]string{"ASA"}, MaterialASA},
	{[]string{"ABS"}, MaterialABS},
	{[]string{"TPU", "TPE"}, MaterialTPU},
	{[]string{"HIPS"}, MaterialHIPS},
	{[]string{"PVA"}, MaterialPVA},
	{[]string{"POLYCARBONATE", "PC"}, MaterialPC},
	{[]string{"NYLON", "PA"}, MaterialNylon},
}

// ClassifyMaterial maps free text such as "Bambu PLA Basic" or "PA6-CF" to
// a MaterialType using case-insensitive substring matching in
// materialPriority order. Unmatched text yields OtherMaterial.
func ClassifyMaterial(text string) MaterialType {
	upper := strings.ToUpper(text)
	for _, entry := range materialPriority {
		for _, needle := range entry.needles {
			if strings.Contains(upper, needle) {
				return MaterialType{Kind: entry.kind}
			}
		}
	}
	return OtherMaterial(strings.TrimSpace(text))
}

// MaterialFromProfile classifies a profile by its filament_type field,
// falling back to the profile name.
func MaterialFromProfile(p *Profile) MaterialType {
	if v, ok := p.Get(KeyFilamentType); ok && !v.IsNil() {
		if s := strings.TrimSpace(v.String()); s != "" {
			return ClassifyMaterial(s)
		}
	}
	return ClassifyMaterial(p.Name())
}

// MaterialConstraints are the safe temperature ranges for a material, in °C.
type MaterialConstraints struct {
	NozzleMin float64 `json:"nozzle_min"`
	NozzleMax float64 `json:"nozzle_max"`
	BedMin    float64 `json:"bed_min"`
	BedMax    float64 `json:"bed_max"`
}

var materialConstraints = map[MaterialKind]MaterialConstraints{
	MaterialPLA:   {NozzleMin: 190, NozzleMax: 235, BedMin: 35, BedMax: 65},
	MaterialPETG:  {NozzleMin: 220, NozzleMax: 260, BedMin: 60, BedMax: 90},
	MaterialABS:   {NozzleMin: 230, NozzleMax: 270, BedMin: 80, BedMax: 110},
	MaterialASA:   {NozzleMin: 235, NozzleMax: 275, BedMin: 85, BedMax: 110},
	MaterialTPU:   {NozzleMin: 200, NozzleMax: 240, BedMin: 25, BedMax: 60},
	MaterialNylon: {NozzleMin: 240, NozzleMax: 290, BedMin: 70, BedMax: 100},
	MaterialPC:    {NozzleMin: 260, NozzleMax: 310, BedMin: 90, BedMax: 120},
	MaterialPVA:   {NozzleMin: 180, NozzleMax: 220, BedMin: 45, BedMax: 65},
	MaterialHIPS:  {NozzleMin: 220, NozzleMax: 250, BedMin: 90, BedMax: 110},
}

// permissiveConstraints covers materials outside the table.
var permissiveConstraints = MaterialConstraints{NozzleMin: 150, NozzleMax: 350, BedMin: 0, BedMax: 120}

// ConstraintsFor returns the safe ranges for m.
func ConstraintsFor(m MaterialType) MaterialConstraints {
	if c, ok := materialConstraints[m.Kind]; ok {
		return c
	}
	return permissiveConstraints
}
