package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bambumate/bambumate/internal/adapters/outbound/rules"
	"github.com/bambumate/bambumate/internal/application"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/bambumate/bambumate/internal/domain/recommend"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()

	base, err := domain.ParseProfile([]byte(`{
    "name": "fdm_filament_pla",
    "filament_type": ["PLA"],
    "nozzle_temperature": ["220", "220"],
    "filament_retraction_length": ["0.8", "0.8"]
}`))
	require.NoError(t, err)
	leaf, err := domain.ParseProfile([]byte(`{"name": "Bambu PLA Basic", "inherits": "fdm_filament_pla"}`))
	require.NoError(t, err)

	cfg, err := rules.Default()
	require.NoError(t, err)

	resolver := application.NewResolveService(domain.NewMapRegistry(base, leaf), 2, nil)
	return Deps{
		Analyzer: application.NewAnalyzeService(recommend.NewEngine(cfg), resolver, nil, nil),
		Resolver: resolver,
		Version:  "test",
	}
}

func toolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcplib.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func callRequest(name string, args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestServerHasTools(t *testing.T) {
	s := NewBambuMateMCPServer(newTestDeps(t))
	require.NotNil(t, s)

	tools := s.ListTools()
	expected := []string{
		"bambumate_resolve_profile",
		"bambumate_evaluate",
		"bambumate_list_defects",
		"bambumate_defect_rules",
	}
	for _, name := range expected {
		_, exists := tools[name]
		assert.True(t, exists, "tool %q should be registered", name)
	}
	assert.Len(t, tools, len(expected))
}

func TestResolveProfileTool_ByName(t *testing.T) {
	handler := handleResolveProfile(newTestDeps(t))

	result, err := handler(context.Background(), callRequest("bambumate_resolve_profile", map[string]any{
		"name": "Bambu PLA Basic",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &fields))
	assert.Equal(t, "Bambu PLA Basic", fields["name"])
	assert.Equal(t, []any{"220", "220"}, fields["nozzle_temperature"])
}

func TestResolveProfileTool_Inline(t *testing.T) {
	handler := handleResolveProfile(newTestDeps(t))

	result, err := handler(context.Background(), callRequest("bambumate_resolve_profile", map[string]any{
		"profile_json": `{"name": "Mine", "inherits": "fdm_filament_pla", "nozzle_temperature": ["210", "210"]}`,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))
	assert.Contains(t, toolText(t, result), `"filament_retraction_length"`)
	assert.Contains(t, toolText(t, result), `"210"`)
}

func TestResolveProfileTool_Errors(t *testing.T) {
	handler := handleResolveProfile(newTestDeps(t))
	ctx := context.Background()

	result, err := handler(ctx, callRequest("bambumate_resolve_profile", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handler(ctx, callRequest("bambumate_resolve_profile", map[string]any{"name": "missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "profile not found")

	result, err = handler(ctx, callRequest("bambumate_resolve_profile", map[string]any{"profile_json": "[1, 2]"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestEvaluateTool(t *testing.T) {
	handler := handleEvaluate(newTestDeps(t))

	result, err := handler(context.Background(), callRequest("bambumate_evaluate", map[string]any{
		"profile_name": "Bambu PLA Basic",
		"defects_json": `[{"defect_type": "stringing", "severity": 0.7, "confidence": 0.9}, {"defect_type": "under_extrusion", "severity": 0.6, "confidence": 0.8}]`,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, toolText(t, result))

	var out struct {
		Material     string                  `json:"material"`
		Result       domain.EvaluationResult `json:"result"`
		TunedProfile map[string]any          `json:"tuned_profile"`
	}
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &out))
	assert.Equal(t, "PLA", out.Material)
	assert.NotEmpty(t, out.Result.Recommendations)
	assert.NotEmpty(t, out.Result.Conflicts)
	assert.Equal(t, "Bambu PLA Basic", out.TunedProfile["name"])
}

func TestEvaluateTool_InvalidDefects(t *testing.T) {
	handler := handleEvaluate(newTestDeps(t))

	result, err := handler(context.Background(), callRequest("bambumate_evaluate", map[string]any{
		"profile_name": "Bambu PLA Basic",
		"defects_json": `{"oops": true}`,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handler(context.Background(), callRequest("bambumate_evaluate", map[string]any{
		"profile_name": "Bambu PLA Basic",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handler(context.Background(), callRequest("bambumate_evaluate", map[string]any{
		"profile_name": "Bambu PLA Basic",
		"defects_json": `[{"defect_type": "stringing", "severity": 0.5, "confidence": -1}]`,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "confidence")
}

func TestListDefectsTool(t *testing.T) {
	handler := handleListDefects(newTestDeps(t))

	result, err := handler(context.Background(), callRequest("bambumate_list_defects", nil))
	require.NoError(t, err)

	var defects []application.DefectSummary
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &defects))
	require.NotEmpty(t, defects)
	for i := 1; i < len(defects); i++ {
		assert.Less(t, defects[i-1].Type, defects[i].Type)
	}
}

func TestDefectRulesTool(t *testing.T) {
	handler := handleDefectRules(newTestDeps(t))

	result, err := handler(context.Background(), callRequest("bambumate_defect_rules", map[string]any{"defect_type": "warping"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, toolText(t, result), "cool_plate_temp")

	result, err = handler(context.Background(), callRequest("bambumate_defect_rules", map[string]any{"defect_type": "spaghetti"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestProfileResource(t *testing.T) {
	handler := handleProfileResource(newTestDeps(t))

	contents, err := handler(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: "bambumate://profiles/Bambu%20PLA%20Basic"},
	})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcplib.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"nozzle_temperature"`)

	_, err = handler(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: "bambumate://profiles/"},
	})
	assert.Error(t, err)
}

func TestDefectsResource(t *testing.T) {
	handler := handleDefectsResource(newTestDeps(t))

	contents, err := handler(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: "bambumate://defects"},
	})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcplib.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, "stringing")
}
