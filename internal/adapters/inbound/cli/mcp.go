package cli

import (
	mcpadapter "github.com/bambumate/bambumate/internal/adapters/inbound/mcp"
	"github.com/bambumate/bambumate/internal/domain"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the BambuMate MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd())
	return cmd
}

func newMCPServeCmd() *cobra.Command {
	var (
		dirs      []string
		rulesPath string
		record    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start BambuMate MCP server (stdio)",
		Long:  "Start the BambuMate MCP server using stdio transport. This lets AI assistants resolve profiles and evaluate print defects.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}

			var store domain.HistoryStore
			if record {
				s, err := ws.openHistory()
				if err != nil {
					return err
				}
				defer s.Close()
				store = s
			}

			resolver, analyzer, err := ws.services(serviceOptions{dirs: dirs, rulesPath: rulesPath, history: store})
			if err != nil {
				return err
			}

			s := mcpadapter.NewBambuMateMCPServer(mcpadapter.Deps{
				Analyzer: analyzer,
				Resolver: resolver,
				Version:  version,
			})
			ws.logger.Info("mcp server starting", "transport", "stdio")
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "Extra profile directory (repeatable)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Rules TOML file")
	cmd.Flags().BoolVar(&record, "history", true, "Allow tools to record analyses in history")

	return cmd
}
