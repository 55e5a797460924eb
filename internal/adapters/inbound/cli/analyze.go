package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bambumate/bambumate/internal/adapters/outbound/registry"
	"github.com/bambumate/bambumate/internal/adapters/outbound/tui"
	"github.com/bambumate/bambumate/internal/application"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		profileName string
		file        string
		defectsPath string
		material    string
		rulesPath   string
		dirs        []string
		jsonOutput  bool
		applyPath   string
		noHistory   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Recommend setting changes for detected print defects",
		Long: `Evaluate detected defects against a profile and print ranked recommendations.

The defects file holds a JSON array of {"defect_type", "severity", "confidence"}
objects (or an object with a "defects" array). Use "-" to read it from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (profileName == "") == (file == "") {
				return errors.New("give exactly one of --profile or --file")
			}

			data, err := readInput(cmd, defectsPath)
			if err != nil {
				return fmt.Errorf("reading defects: %w", err)
			}
			defects, err := decodeDefects(data)
			if err != nil {
				return err
			}

			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}

			var store domain.HistoryStore
			if !noHistory {
				s, err := ws.openHistory()
				if err != nil {
					ws.logger.Warn("analysis will not be recorded", "error", err)
				} else {
					defer s.Close()
					store = s
				}
			}

			_, analyzer, err := ws.services(serviceOptions{dirs: dirs, rulesPath: rulesPath, history: store})
			if err != nil {
				return err
			}

			req := application.AnalyzeRequest{
				ProfileName: profileName,
				Defects:     defects,
				Material:    material,
				Record:      store != nil,
			}
			if req.Material == "" {
				req.Material = ws.cfg.Material
			}
			if file != "" {
				req.Profile, err = registry.LoadFile(file)
				if err != nil {
					return err
				}
			}

			report, err := analyzer.Analyze(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			if applyPath != "" {
				tuned, err := report.TunedJSON()
				if err != nil {
					return err
				}
				if err := os.WriteFile(applyPath, tuned, 0644); err != nil {
					return fmt.Errorf("writing tuned profile: %w", err)
				}
			}

			if jsonOutput {
				return renderJSON(cmd, report)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderAnalysis(report.ProfileName, report.Material, report.Result))
			if applyPath != "" {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderChanges(report.Changes, applyPath))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Registered profile name")
	cmd.Flags().StringVar(&file, "file", "", "Unregistered profile file")
	cmd.Flags().StringVarP(&defectsPath, "defects", "d", "", "Defects JSON file, or - for stdin")
	cmd.Flags().StringVarP(&material, "material", "m", "", "Material override (defaults to the profile's filament_type)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Rules TOML file (defaults to the configured or built-in table)")
	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "Extra profile directory (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the analysis as JSON")
	cmd.Flags().StringVar(&applyPath, "apply", "", "Write the tuned profile to this path")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the analysis")
	_ = cmd.MarkFlagRequired("defects")

	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// decodeDefects accepts either a bare array or {"defects": [...]}.
func decodeDefects(data []byte) ([]domain.DetectedDefect, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("defects input is empty")
	}

	var defects []domain.DetectedDefect
	if trimmed[0] == '{' {
		var wrapper struct {
			Defects []domain.DetectedDefect `json:"defects"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("parsing defects: %w", err)
		}
		defects = wrapper.Defects
	} else if err := json.Unmarshal(trimmed, &defects); err != nil {
		return nil, fmt.Errorf("parsing defects: %w", err)
	}

	if err := domain.ValidateDefects(defects); err != nil {
		return nil, err
	}
	return defects, nil
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
