package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openalign/openalign/pkg/scene"
	"github.com/openalign/openalign/pkg/solver"
)

func newValidateCommand() *cobra.Command {
	var checkDirections bool

	cmd := &cobra.Command{
		Use:   "validate <scene.yaml>",
		Short: "Validate a scene document",
		Long: `Parse and validate an assembly scene document.

This command checks:
  - YAML syntax validity
  - Document schema conformance
  - Component parent references and feature geometry
  - Constraint selection paths
  - Optionally, that every constraint selection resolves to a direction`,
		Example: `  # Validate a scene
  align validate hinge.yaml

  # Also verify every constraint anchor yields a direction
  align validate hinge.yaml --check-directions`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := scene.NewLoader(log.Logger)
			sc, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}

			if checkDirections {
				resolver := solver.NewResolver(sc.World, log.Logger)
				var failures int
				for _, c := range sc.Constraints {
					for _, sel := range c.Selections {
						if _, err := resolver.ResolveDirection(sel); err != nil {
							failures++
							log.Error().
								Str("constraint", c.ID).
								Str("selection", sel.Label).
								Err(err).
								Msg("selection does not resolve")
						}
					}
				}
				if failures > 0 {
					return fmt.Errorf("%d selection(s) failed to resolve", failures)
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CONSTRAINT\tKIND\tA\tB\tTOLERANCE")
			for _, c := range sc.Constraints {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\n",
					c.ID, c.Kind, c.Selections[0].Label, c.Selections[1].Label, c.Tolerance)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nscene %q is valid: %d constraint(s)\n", sc.Name, len(sc.Constraints))
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkDirections, "check-directions", false, "resolve every constraint selection")

	return cmd
}
