package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openalign/openalign/pkg/scene"
	"github.com/openalign/openalign/pkg/solver"
	"github.com/openalign/openalign/pkg/stores"
	"github.com/openalign/openalign/pkg/telemetry"
)

func newSolveCommand() *cobra.Command {
	var (
		iterations  int
		gain        float64
		delay       time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "solve <scene.yaml>",
		Short: "Run the alignment solver on a scene",
		Long: `Load an assembly scene and iterate its constraints until they are
satisfied or the iteration budget runs out.

Each iteration evaluates every constraint once, in document order.
Constraints later in the pass observe rotations applied by earlier
ones, so corrections compose within a single iteration.`,
		Example: `  # Solve with the default iteration budget
  align solve hinge.yaml

  # Solve with more iterations and full gain
  align solve hinge.yaml --iterations 200 --gain 1.0

  # Persist the run timeline to a database
  align solve hinge.yaml --db runs.db

  # Slow the run down to watch convergence in the logs
  align solve hinge.yaml -v --delay 250ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scenePath := args[0]

			loader := scene.NewLoader(log.Logger)
			sc, err := loader.LoadFile(scenePath)
			if err != nil {
				return err
			}
			if len(sc.Constraints) == 0 {
				return fmt.Errorf("scene %s has no constraints to solve", scenePath)
			}
			if cmd.Flags().Changed("gain") {
				sc.RotationGain = gain
			}

			cfg := telemetry.DefaultConfig()
			if verbose {
				cfg.Logging.Level = "debug"
			}
			if metricsAddr != "" {
				cfg.Metrics.Enabled = true
				cfg.Metrics.ListenAddress = metricsAddr
			}
			tel, err := telemetry.NewTelemetry(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize telemetry: %w", err)
			}
			defer tel.Shutdown(context.Background())
			if metricsAddr != "" {
				if err := tel.StartMetricsServer(); err != nil {
					return fmt.Errorf("failed to start metrics server: %w", err)
				}
			}

			opts := solver.Options{IterationDelay: delay}

			var recorder *stores.Recorder
			if dbPath != "" {
				store, err := openStore(ctx)
				if err != nil {
					return err
				}
				defer store.Close()

				recorder = stores.NewRecorder(store, sc.Name, iterations)
				tel.Events.Subscribe(func(e solver.Event) {
					if err := recorder.Publish(ctx, &e); err != nil {
						log.Warn().Err(err).Str("event", string(e.Type)).Msg("failed to persist event")
					}
				}, nil)
			}

			opts = tel.InstrumentOptions(ctx, opts)

			runner := solver.NewRunner(log.Logger)
			handle, err := runner.Start(ctx, sc.Constraints, iterations, sc.Context(log.Logger), opts)
			if err != nil {
				return err
			}
			summary := handle.Wait()

			if recorder != nil {
				if err := recorder.RecordSummary(ctx, summary, sc.Constraints); err != nil {
					log.Warn().Err(err).Msg("failed to persist run summary")
				}
			}

			if err := printRunReport(summary, sc.Constraints); err != nil {
				return err
			}

			if summary.Aborted {
				return fmt.Errorf("run %s aborted after %d iterations", summary.RunID, summary.IterationsCompleted)
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d constraint(s) could not be evaluated", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 50, "iteration budget")
	cmd.Flags().Float64Var(&gain, "gain", 0, "rotation gain in [0,1], overrides the scene value")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between iterations")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "expose Prometheus metrics on this address")

	return cmd
}

// printRunReport writes the terminal state of every constraint plus the
// run totals, as a table or as JSON.
func printRunReport(summary solver.RunSummary, constraints []*solver.Constraint) error {
	if jsonOutput {
		report := struct {
			Summary     solver.RunSummary    `json:"summary"`
			Constraints []*solver.Constraint `json:"constraints"`
		}{summary, constraints}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONSTRAINT\tKIND\tSTATUS\tANGLE ERROR (DEG)")
	for _, c := range constraints {
		if c.LastResult == nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Kind, "not-evaluated", "-")
			continue
		}
		res := c.LastResult
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\n", c.ID, c.Kind, res.Status, res.AngleErrorDeg)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nrun %s: %d iteration(s), %d satisfied, %d adjusted, %d blocked, %d failed (%.2fs)\n",
		summary.RunID, summary.IterationsCompleted,
		summary.Satisfied, summary.Adjusted, summary.Blocked, summary.Failed,
		summary.Duration.Seconds())
	return nil
}
