package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bambumate/bambumate/internal/adapters/outbound/config"
	"github.com/bambumate/bambumate/internal/adapters/outbound/rules"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/spf13/cobra"
)

const (
	rulesFileName   = "rules.toml"
	profilesDirName = "profiles"
)

func newInitCmd() *cobra.Command {
	var (
		material  string
		withRules bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate a .bambumate.yaml configuration file",
		Long:  "Create a .bambumate.yaml with sensible defaults. With --with-rules, also write the built-in rule table to rules.toml for editing.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			dest := filepath.Join(absPath, config.FileName)
			rulesDest := filepath.Join(absPath, rulesFileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
				}
				if withRules {
					if _, err := os.Stat(rulesDest); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", rulesFileName)
					}
				}
			}

			if material != "" {
				m := domain.ClassifyMaterial(material)
				if m.IsOther() {
					return fmt.Errorf("unknown material %q (valid: %s)", material, strings.Join(knownMaterials(), ", "))
				}
				material = m.String()
			}

			if err := os.MkdirAll(filepath.Join(absPath, profilesDirName), 0o755); err != nil {
				return fmt.Errorf("creating profile directory: %w", err)
			}

			if withRules {
				if err := os.WriteFile(rulesDest, rules.DefaultSource(), 0o644); err != nil {
					return fmt.Errorf("writing rules: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", rulesFileName)
			}

			content := generateConfig(material, withRules)
			if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.FileName)
			return nil
		},
	}

	cmd.Flags().StringVar(&material, "material", "", "Default material when a profile does not name one (PLA, PETG, ABS, ...)")
	cmd.Flags().BoolVar(&withRules, "with-rules", false, "Also write the built-in rules to rules.toml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func knownMaterials() []string {
	var names []string
	for _, m := range domain.KnownMaterials() {
		names = append(names, m.String())
	}
	return names
}

func generateConfig(material string, withRules bool) string {
	var b strings.Builder
	b.WriteString("# BambuMate configuration\n\n")

	b.WriteString("# Directories searched (recursively) for Bambu Studio filament JSON.\n")
	b.WriteString("# Later directories override earlier ones.\n")
	fmt.Fprintf(&b, "profile_dirs:\n  - %s\n\n", profilesDirName)

	if withRules {
		fmt.Fprintf(&b, "rules_file: %s\n\n", rulesFileName)
	} else {
		b.WriteString("# rules_file: rules.toml\n\n")
	}

	if material != "" {
		fmt.Fprintf(&b, "material: %s\n\n", material)
	} else {
		b.WriteString("# material: PLA\n\n")
	}

	fmt.Fprintf(&b, `# history_db: .bambumate/history.db
# log_level: info
# log_format: text
# max_workers: %d
# http_addr: %s
`, domain.DefaultMaxWorkers, domain.DefaultHTTPAddr)

	return b.String()
}
