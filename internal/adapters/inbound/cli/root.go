package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bambumate",
		Short: "Tune Bambu filament profiles from print defects",
		Long:  "BambuMate flattens Bambu Studio filament profiles and turns detected print defects into ranked, material-safe setting changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("project", ".", "Project directory containing .bambumate.yaml")
	cmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newRulesCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
