// Package mcp exposes profile resolution and defect evaluation as MCP tools.
package mcp

import (
	"github.com/bambumate/bambumate/internal/application"
	"github.com/mark3labs/mcp-go/server"
)

// Deps are the services the MCP tools call into.
type Deps struct {
	Analyzer *application.AnalyzeService
	Resolver *application.ResolveService
	Version  string
}

// NewBambuMateMCPServer creates an MCP server with every bambumate tool and
// resource registered.
func NewBambuMateMCPServer(deps Deps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"bambumate",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithRecovery(),
	)

	registerTools(s, deps)
	registerResources(s, deps)

	return s
}
