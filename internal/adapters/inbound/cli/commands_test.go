package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bambumate/bambumate/internal/adapters/inbound/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProject lays out a project with two profiles and a config pointing at
// them. History goes to a database inside the project.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	profiles := filepath.Join(dir, "profiles")
	require.NoError(t, os.MkdirAll(profiles, 0o755))

	writeFile(t, filepath.Join(profiles, "fdm_filament_pla.json"), `{
    "name": "fdm_filament_pla",
    "filament_type": ["PLA"],
    "nozzle_temperature": ["220", "220"],
    "filament_retraction_length": ["0.8", "0.8"],
    "filament_flow_ratio": ["0.98"]
}`)
	writeFile(t, filepath.Join(profiles, "Bambu PLA Basic.json"), `{
    "name": "Bambu PLA Basic",
    "inherits": "fdm_filament_pla",
    "nozzle_temperature": ["215", "215"]
}`)
	writeFile(t, filepath.Join(dir, ".bambumate.yaml"), "profile_dirs:\n  - profiles\nlog_level: error\n")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := cli.NewRootCmdForTest()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestResolveCmd_PrintsFlattenedProfile(t *testing.T) {
	dir := newProject(t)

	out, err := run(t, "", "resolve", "Bambu PLA Basic", "--project", dir)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	assert.Equal(t, "Bambu PLA Basic", fields["name"])
	assert.Equal(t, []any{"215", "215"}, fields["nozzle_temperature"])
	assert.Equal(t, []any{"0.8", "0.8"}, fields["filament_retraction_length"])
}

func TestResolveCmd_WritesFile(t *testing.T) {
	dir := newProject(t)
	dest := filepath.Join(dir, "flat.json")

	_, err := run(t, "", "resolve", "Bambu PLA Basic", "--project", dir, "-o", dest)
	require.NoError(t, err)
	assert.FileExists(t, dest)
}

func TestResolveCmd_Chain(t *testing.T) {
	dir := newProject(t)

	out, err := run(t, "", "resolve", "Bambu PLA Basic", "--chain", "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Bambu PLA Basic")
	assert.Contains(t, out, "fdm_filament_pla")
}

func TestResolveCmd_UnknownProfile(t *testing.T) {
	dir := newProject(t)

	_, err := run(t, "", "resolve", "ghost", "--project", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile not found")
}

func TestAnalyzeCmd_JSONFromStdin(t *testing.T) {
	dir := newProject(t)
	defects := `[{"defect_type": "stringing", "severity": 0.6, "confidence": 0.9}]`

	out, err := run(t, defects, "analyze", "-p", "Bambu PLA Basic", "-d", "-", "--json", "--project", dir)
	require.NoError(t, err)

	var report struct {
		ID       string `json:"id"`
		Material string `json:"material"`
		Result   struct {
			Recommendations []struct {
				Parameter string `json:"parameter"`
			} `json:"recommendations"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "PLA", report.Material)
	assert.NotEmpty(t, report.Result.Recommendations)
	assert.NotEmpty(t, report.ID, "analysis recorded by default")

	listed, err := run(t, "", "history", "list", "--json", "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, listed, report.ID)

	shown, err := run(t, "", "history", "show", report.ID, "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, shown, "Bambu PLA Basic")
}

func TestAnalyzeCmd_ApplyWritesTunedProfile(t *testing.T) {
	dir := newProject(t)
	defectsPath := filepath.Join(dir, "defects.json")
	writeFile(t, defectsPath, `{"defects": [{"defect_type": "stringing", "severity": 0.6}]}`)
	dest := filepath.Join(dir, "tuned.json")

	out, err := run(t, "", "analyze", "-p", "Bambu PLA Basic", "-d", defectsPath, "--apply", dest, "--no-history", "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied to")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "Bambu PLA Basic", fields["name"])
	assert.NotEqual(t, []any{"0.8", "0.8"}, fields["filament_retraction_length"])

	assert.NoFileExists(t, filepath.Join(dir, ".bambumate", "history.db"))
}

func TestAnalyzeCmd_Validation(t *testing.T) {
	dir := newProject(t)

	_, err := run(t, "[]", "analyze", "-d", "-", "--project", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--profile or --file")

	_, err = run(t, `[{"defect_type": "stringing", "severity": 1.5}]`, "analyze", "-p", "Bambu PLA Basic", "-d", "-", "--project", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside [0, 1]")

	_, err = run(t, `[{"defect_type": "stringing", "severity": 0.5, "confidence": 3}]`, "analyze", "-p", "Bambu PLA Basic", "-d", "-", "--project", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence")

	_, err = run(t, `not json`, "analyze", "-p", "Bambu PLA Basic", "-d", "-", "--project", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing defects")
}

func TestRulesCmd_ListAndShow(t *testing.T) {
	dir := newProject(t)

	out, err := run(t, "", "rules", "list", "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "stringing")
	assert.Contains(t, out, "warping")

	out, err = run(t, "", "rules", "show", "stringing", "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "filament_retraction_length")

	_, err = run(t, "", "rules", "show", "spaghetti", "--project", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown defect type")
}

func TestRulesCmd_CustomFile(t *testing.T) {
	dir := newProject(t)
	custom := filepath.Join(dir, "custom.toml")
	writeFile(t, custom, `
[defects.blobs]
name = "Blobs"

[[rules]]
defect = "blobs"

[[rules.adjustments]]
parameter = "filament_retraction_length"
operation = "increase"
amount = 0.5
priority = 1
`)

	out, err := run(t, "", "rules", "list", "--json", "--rules", custom, "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"blobs"`)
	assert.NotContains(t, out, `"stringing"`)
}

func TestRulesCmd_DefaultPrintsTOML(t *testing.T) {
	out, err := run(t, "", "rules", "default")
	require.NoError(t, err)
	assert.Contains(t, out, "[[rules]]")
}

func TestHistoryCmd_Empty(t *testing.T) {
	dir := newProject(t)

	out, err := run(t, "", "history", "list", "--project", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No analyses recorded yet.")

	_, err = run(t, "", "history", "show", "missing", "--project", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis not found")
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "bambumate "))
}
