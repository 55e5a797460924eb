package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/bambumate/bambumate/internal/adapters/outbound/registry"
	"github.com/bambumate/bambumate/internal/adapters/outbound/tui"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var (
		dirs      []string
		file      string
		out       string
		showChain bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [name]",
		Short: "Flatten a profile's inheritance chain",
		Long:  "Resolve a filament profile against its ancestors and print the self-contained result as Bambu Studio JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			if name == "" && file == "" {
				return errors.New("give a profile name or --file")
			}

			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			resolver, _, err := ws.services(serviceOptions{dirs: dirs})
			if err != nil {
				return err
			}

			if showChain {
				if name == "" {
					return errors.New("--chain needs a registered profile name")
				}
				chain, err := resolver.Chain(name)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderChain(chain))
				return nil
			}

			var resolved *domain.Profile
			if file != "" {
				p, err := registry.LoadFile(file)
				if err != nil {
					return err
				}
				resolved, err = resolver.ResolveProfile(p)
				if err != nil {
					return err
				}
			} else {
				resolved, err = resolver.Resolve(name)
				if err != nil {
					return err
				}
			}

			data, err := resolved.Encode()
			if err != nil {
				return fmt.Errorf("encoding profile: %w", err)
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("writing profile: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d fields)\n", out, resolved.Len())
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "Extra profile directory (repeatable)")
	cmd.Flags().StringVar(&file, "file", "", "Resolve an unregistered profile file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the resolved profile to a file")
	cmd.Flags().BoolVar(&showChain, "chain", false, "Print the inheritance chain instead of the profile")

	return cmd
}
