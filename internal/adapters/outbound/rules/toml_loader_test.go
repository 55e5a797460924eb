package rules_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bambumate/bambumate/internal/adapters/outbound/rules"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/bambumate/bambumate/internal/domain/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsAndValidates(t *testing.T) {
	cfg, err := rules.Default()
	require.NoError(t, err)

	assert.Contains(t, cfg.Defects, "stringing")
	assert.Contains(t, cfg.Defects, "warping")
	assert.NotEmpty(t, cfg.Rules)
	assert.NotEmpty(t, cfg.Conflicts)

	var gated bool
	for _, r := range cfg.Rules {
		if r.SeverityMin != nil {
			gated = true
		}
	}
	assert.True(t, gated, "built-in table should contain severity-gated rules")
}

func TestDefault_EmptyPathSelectsBuiltIn(t *testing.T) {
	fromLoader, err := rules.New().Load("")
	require.NoError(t, err)
	builtIn, err := rules.Default()
	require.NoError(t, err)
	assert.Equal(t, builtIn, fromLoader)
}

func TestDefault_StringingAndUnderExtrusionConflict(t *testing.T) {
	cfg, err := rules.Default()
	require.NoError(t, err)
	e := recommend.NewEngine(cfg)

	res := e.Evaluate([]domain.DetectedDefect{
		{Type: "stringing", Severity: 0.7, Confidence: 0.9},
		{Type: "under_extrusion", Severity: 0.6, Confidence: 0.9},
	}, map[string]float64{}, domain.PLA)

	require.NotEmpty(t, res.Conflicts)
	var names []string
	for _, c := range res.Conflicts {
		names = append(names, c.ConflictingDefects...)
	}
	assert.Contains(t, names, "stringing")
	assert.Contains(t, names, "under_extrusion")
}

func TestDefault_WarpingRaisesCoolPlate(t *testing.T) {
	cfg, err := rules.Default()
	require.NoError(t, err)
	e := recommend.NewEngine(cfg)

	res := e.Evaluate([]domain.DetectedDefect{{Type: "warping", Severity: 0.5, Confidence: 0.85}},
		map[string]float64{"cool_plate_temp": 60}, domain.PLA)

	var raised bool
	for _, r := range res.Recommendations {
		if recommend.FamilyOf(r.Parameter) == recommend.FamilyBedTemp && r.RecommendedValue > 60 {
			raised = true
		}
	}
	assert.True(t, raised)
}

func TestLoad_UserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[defects.blobs]
name = "Blobs"
description = "Lumps"

[[rules]]
defect = "blobs"
severity_min = 0.3

  [[rules.adjustments]]
  parameter = "pressure_advance"
  operation = "set"
  amount = 0.04
  priority = 1
  rationale = "tune PA"
`), 0644))

	cfg, err := rules.New().Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Rules, 1)
	require.NotNil(t, cfg.Rules[0].SeverityMin)
	assert.Equal(t, 0.3, *cfg.Rules[0].SeverityMin)
	assert.Equal(t, domain.OpSet, cfg.Rules[0].Adjustments[0].Operation)
	assert.Equal(t, "Blobs", cfg.Defects["blobs"].Name)
	assert.Empty(t, cfg.Conflicts)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := rules.New().Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDecode_InvalidTOML(t *testing.T) {
	_, err := rules.Decode(strings.NewReader(`[[rules]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing rules")
}

func TestDecode_UnknownField(t *testing.T) {
	_, err := rules.Decode(strings.NewReader(`
[[rules]]
defect = "x"
severty_min = 0.2
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing rules")
}

func TestDecode_InvalidOperation(t *testing.T) {
	_, err := rules.Decode(strings.NewReader(`
[[rules]]
defect = "x"

  [[rules.adjustments]]
  parameter = "nozzle_temperature"
  operation = "triple"
  amount = 1.0
  priority = 1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rules")
	assert.Contains(t, err.Error(), "triple")
}

func TestDefaultSource(t *testing.T) {
	src := rules.DefaultSource()
	cfg, err := rules.Decode(strings.NewReader(string(src)))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Rules)
}
