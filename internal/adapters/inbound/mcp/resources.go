package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const profileURIPrefix = "bambumate://profiles/"

// registerResources registers all bambumate MCP resources on the given server.
func registerResources(s *server.MCPServer, deps Deps) {
	// 1. bambumate://defects - defect catalogue
	s.AddResource(
		mcplib.NewResource(
			"bambumate://defects",
			"Defect Catalogue",
			mcplib.WithResourceDescription("Defect types known to the rule table"),
			mcplib.WithMIMEType("application/json"),
		),
		handleDefectsResource(deps),
	)

	// 2. bambumate://profiles/{name} - resolved profile (resource template)
	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			profileURIPrefix+"{name}",
			"Resolved Profile",
			mcplib.WithTemplateDescription("A registered profile with its inheritance chain flattened"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		handleProfileResource(deps),
	)
}

func handleDefectsResource(deps Deps) server.ResourceHandlerFunc {
	return func(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		data, err := json.MarshalIndent(deps.Analyzer.Catalogue(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling catalogue: %w", err)
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

func handleProfileResource(deps Deps) server.ResourceTemplateHandlerFunc {
	return func(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		name, err := profileNameFromURI(req.Params.URI)
		if err != nil {
			return nil, err
		}
		p, err := deps.Resolver.Resolve(name)
		if err != nil {
			return nil, err
		}
		data, err := p.Encode()
		if err != nil {
			return nil, fmt.Errorf("encoding profile: %w", err)
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

func profileNameFromURI(uri string) (string, error) {
	raw, ok := strings.CutPrefix(uri, profileURIPrefix)
	if !ok || raw == "" {
		return "", fmt.Errorf("invalid profile URI %q", uri)
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid profile URI %q: %w", uri, err)
	}
	return name, nil
}
