package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openalign/openalign/pkg/scene"
	"github.com/openalign/openalign/pkg/solver"
)

func newResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <scene.yaml> <component/feature>",
		Short: "Resolve a selection to its world-space direction",
		Long: `Resolve one selection path and print the direction, anchor and
fallback step that produced it.

Useful when a constraint reports normal-resolution-failed: run the
failing side through this command to see where the fallback chain
stops.`,
		Example: `  # Resolve a face normal
  align resolve hinge.yaml lid/underside

  # Resolve an edge tangent
  align resolve hinge.yaml base/rail`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := scene.NewLoader(log.Logger)
			sc, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}

			sel, err := sc.World.Select(args[1])
			if err != nil {
				return err
			}

			resolver := solver.NewResolver(sc.World, log.Logger)
			info, err := resolver.ResolveDirection(sel)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Printf("selection: %s (%s)\n", sel.Label, info.Kind)
			fmt.Printf("source:    %s\n", info.Source)
			if info.Direction != nil {
				fmt.Printf("direction: (%.6f, %.6f, %.6f)\n", info.Direction.X, info.Direction.Y, info.Direction.Z)
			}
			if info.Origin != nil {
				fmt.Printf("origin:    (%.6f, %.6f, %.6f)\n", info.Origin.X, info.Origin.Y, info.Origin.Z)
			}
			return nil
		},
	}

	return cmd
}
