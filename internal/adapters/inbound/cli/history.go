package cli

import (
	"fmt"

	"github.com/bambumate/bambumate/internal/adapters/outbound/tui"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded analyses",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			store, err := ws.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if entries == nil {
					entries = []domain.AnalysisEntry{}
				}
				return renderJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No analyses recorded yet.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			store, err := ws.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading analysis %s: %w", args[0], err)
			}
			if jsonOutput {
				return renderJSON(cmd, entry)
			}
			material := domain.ClassifyMaterial(entry.Material)
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderAnalysis(entry.ProfileName, material, entry.Result))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
