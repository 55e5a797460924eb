package cli

import (
	"fmt"

	"github.com/bambumate/bambumate/internal/adapters/outbound/rules"
	"github.com/bambumate/bambumate/internal/adapters/outbound/tui"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the defect rule table",
	}
	cmd.PersistentFlags().String("rules", "", "Rules TOML file (defaults to the configured or built-in table)")
	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesShowCmd())
	cmd.AddCommand(newRulesDefaultCmd())
	return cmd
}

func newRulesListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known defect types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			rulesPath, _ := cmd.Flags().GetString("rules")
			_, analyzer, err := ws.services(serviceOptions{rulesPath: rulesPath})
			if err != nil {
				return err
			}

			catalogue := analyzer.Catalogue()
			if jsonOutput {
				return renderJSON(cmd, catalogue)
			}
			rows := make([]tui.DefectRow, 0, len(catalogue))
			for _, d := range catalogue {
				rows = append(rows, tui.DefectRow{
					Type:  d.Type,
					Info:  domain.DefectInfo{Name: d.Name, Description: d.Description},
					Rules: d.Rules,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderDefects(rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRulesShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <defect>",
		Short: "Show the adjustments for one defect type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			rulesPath, _ := cmd.Flags().GetString("rules")
			_, analyzer, err := ws.services(serviceOptions{rulesPath: rulesPath})
			if err != nil {
				return err
			}

			defect := args[0]
			info, rs, ok := analyzer.DefectDetail(defect)
			if !ok {
				return fmt.Errorf("unknown defect type %q (see 'bambumate rules list')", defect)
			}
			if jsonOutput {
				return renderJSON(cmd, map[string]any{
					"defect_type": defect,
					"name":        info.Name,
					"description": info.Description,
					"rules":       rs,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderRules(defect, info, rs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRulesDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the built-in rule table as TOML",
		Long:  "Print the built-in rule table. Redirect it to a file and point rules_file at it to customize the rules.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(rules.DefaultSource())
			return err
		},
	}
}
