package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dbPath     string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "align",
		Short: "OpenAlign - Assembly orientation alignment solver",
		Long: `OpenAlign iteratively rotates assembly components until their faces,
edges and points satisfy authored orientation constraints.

Features:
  - Parallel and anti-parallel constraints between faces, edges and points
  - Direction resolution with geometric fallbacks (accessors, meshes,
    polylines, descendant search)
  - Bounded corrective rotations for stable convergence
  - Run history persisted to SQLite
  - Prometheus metrics and OpenTelemetry tracing`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path for run history")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newSolveCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}
