package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bambumate/bambumate/internal/application"
	"github.com/bambumate/bambumate/internal/domain"
)

// registerTools registers all bambumate MCP tools on the given server.
func registerTools(s *server.MCPServer, deps Deps) {
	// 1. bambumate_resolve_profile
	s.AddTool(
		mcplib.NewTool("bambumate_resolve_profile",
			mcplib.WithDescription("Flatten a filament profile's inheritance chain and return the self-contained profile JSON"),
			mcplib.WithString("name",
				mcplib.Description("Name of a registered profile"),
			),
			mcplib.WithString("profile_json",
				mcplib.Description("An unregistered profile as a JSON object; its inherits chain is looked up in the registry"),
			),
		),
		handleResolveProfile(deps),
	)

	// 2. bambumate_evaluate
	s.AddTool(
		mcplib.NewTool("bambumate_evaluate",
			mcplib.WithDescription("Evaluate detected print defects against a profile and return ranked parameter recommendations, conflicts and the tuned profile"),
			mcplib.WithString("defects_json",
				mcplib.Required(),
				mcplib.Description(`JSON array of {"defect_type", "severity", "confidence"} objects; severity and confidence are in [0, 1]`),
			),
			mcplib.WithString("profile_name",
				mcplib.Description("Name of a registered profile"),
			),
			mcplib.WithString("profile_json",
				mcplib.Description("An unregistered profile as a JSON object"),
			),
			mcplib.WithString("material",
				mcplib.Description("Material override such as PLA or PETG; defaults to the profile's filament_type"),
			),
			mcplib.WithBoolean("record",
				mcplib.Description("Record the analysis in history"),
			),
		),
		handleEvaluate(deps),
	)

	// 3. bambumate_list_defects
	s.AddTool(
		mcplib.NewTool("bambumate_list_defects",
			mcplib.WithDescription("List the defect types the rule table knows, with descriptions and rule counts"),
		),
		handleListDefects(deps),
	)

	// 4. bambumate_defect_rules
	s.AddTool(
		mcplib.NewTool("bambumate_defect_rules",
			mcplib.WithDescription("Return the rules and parameter adjustments for one defect type"),
			mcplib.WithString("defect_type",
				mcplib.Required(),
				mcplib.Description("Defect type, e.g. stringing"),
			),
		),
		handleDefectRules(deps),
	)
}

func handleResolveProfile(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		name := request.GetString("name", "")
		inline := request.GetString("profile_json", "")

		var (
			resolved *domain.Profile
			err      error
		)
		switch {
		case inline != "":
			p, perr := domain.ParseProfile([]byte(inline))
			if perr != nil {
				return errorResult(fmt.Sprintf("invalid profile_json: %v", perr)), nil
			}
			resolved, err = deps.Resolver.ResolveProfile(p)
		case name != "":
			resolved, err = deps.Resolver.Resolve(name)
		default:
			return errorResult("either name or profile_json is required"), nil
		}
		if err != nil {
			return errorResult(err.Error()), nil
		}

		data, err := resolved.Encode()
		if err != nil {
			return errorResult(fmt.Sprintf("encoding profile: %v", err)), nil
		}
		return textResult(string(data)), nil
	}
}

type evaluateResult struct {
	*application.AnalysisReport
	TunedProfile json.RawMessage `json:"tuned_profile"`
}

func handleEvaluate(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		defectsJSON, err := request.RequireString("defects_json")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		var defects []domain.DetectedDefect
		if err := json.Unmarshal([]byte(defectsJSON), &defects); err != nil {
			return errorResult(fmt.Sprintf("invalid defects_json: %v", err)), nil
		}
		if err := domain.ValidateDefects(defects); err != nil {
			return errorResult(err.Error()), nil
		}

		req := application.AnalyzeRequest{
			ProfileName: request.GetString("profile_name", ""),
			Defects:     defects,
			Material:    request.GetString("material", ""),
			Record:      request.GetBool("record", false),
		}
		if inline := request.GetString("profile_json", ""); inline != "" {
			p, err := domain.ParseProfile([]byte(inline))
			if err != nil {
				return errorResult(fmt.Sprintf("invalid profile_json: %v", err)), nil
			}
			req.Profile = p
		}

		report, err := deps.Analyzer.Analyze(ctx, req)
		if err != nil {
			return errorResult(fmt.Sprintf("evaluation failed: %v", err)), nil
		}
		tuned, err := report.TunedJSON()
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(evaluateResult{AnalysisReport: report, TunedProfile: tuned})
	}
}

func handleListDefects(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		return jsonResult(deps.Analyzer.Catalogue())
	}
}

func handleDefectRules(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		defectType, err := request.RequireString("defect_type")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		info, rules, ok := deps.Analyzer.DefectDetail(defectType)
		if !ok {
			return errorResult(fmt.Sprintf("unknown defect type %q", defectType)), nil
		}
		return jsonResult(map[string]any{
			"defect_type": defectType,
			"name":        info.Name,
			"description": info.Description,
			"rules":       rules,
		})
	}
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// textResult returns a plain text content result.
func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
