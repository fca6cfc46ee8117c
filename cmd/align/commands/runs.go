package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openalign/openalign/pkg/stores"
)

// openStore opens, initializes and migrates the run-history database
// named by the --db flag.
func openStore(ctx context.Context) (*stores.SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("no database configured, pass --db <path>")
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: dbPath})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func newRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted run history",
		Long: `Inspect solver runs recorded with --db.

Each run stores its terminal status, iteration counts, the final-pass
result of every constraint, and the full event timeline.`,
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())
	cmd.AddCommand(newRunsDeleteCommand())

	return cmd
}

func newRunsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Example: `  # List the most recent runs
  align runs list --db runs.db

  # List more history
  align runs list --db runs.db --limit 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, limit, 0)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tSCENE\tSTATUS\tITERATIONS\tSATISFIED\tBLOCKED\tSTARTED")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\t%d\t%s\n",
					run.ID, run.Scene, run.Status,
					run.IterationsCompleted, run.RequestedIterations,
					run.Satisfied, run.Blocked,
					run.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")

	return cmd
}

func newRunsShowCommand() *cobra.Command {
	var showEvents bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run in detail",
		Example: `  # Show a run with its final constraint results
  align runs show --db runs.db 2f9c...

  # Include the event timeline
  align runs show --db runs.db 2f9c... --events`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			results, err := store.ListConstraintResultsByRun(ctx, run.ID)
			if err != nil {
				return err
			}

			var events []*stores.Event
			if showEvents {
				events, err = store.GetEvents(ctx, &run.ID, nil, 1000, 0)
				if err != nil {
					return err
				}
			}

			if jsonOutput {
				report := struct {
					Run     *stores.Run                `json:"run"`
					Results []*stores.ConstraintResult `json:"results"`
					Events  []*stores.Event            `json:"events,omitempty"`
				}{run, results, events}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Printf("run:        %s\n", run.ID)
			fmt.Printf("scene:      %s\n", run.Scene)
			fmt.Printf("status:     %s\n", run.Status)
			fmt.Printf("iterations: %d/%d\n", run.IterationsCompleted, run.RequestedIterations)
			fmt.Printf("counts:     %d satisfied, %d adjusted, %d blocked, %d failed\n",
				run.Satisfied, run.Adjusted, run.Blocked, run.Failed)
			if run.DurationMs != nil {
				fmt.Printf("duration:   %dms\n", *run.DurationMs)
			}

			if len(results) > 0 {
				fmt.Println()
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CONSTRAINT\tKIND\tSTATUS\tANGLE ERROR (DEG)")
				for _, res := range results {
					fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\n", res.ConstraintID, res.Kind, res.Status, res.AngleErrorDeg)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if showEvents && len(events) > 0 {
				fmt.Println()
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TIMESTAMP\tTYPE\tITERATION\tCONSTRAINT\tSTATUS")
				// Newest first from the store; show oldest first.
				for i := len(events) - 1; i >= 0; i-- {
					e := events[i]
					constraint, status := "-", "-"
					if e.ConstraintID != nil {
						constraint = *e.ConstraintID
					}
					if e.Status != nil {
						status = *e.Status
					}
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
						e.Timestamp.Format("15:04:05.000"), e.Type, e.Iteration, constraint, status)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showEvents, "events", false, "include the event timeline")

	return cmd
}

func newRunsDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and its recorded history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteRun(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted run %s\n", args[0])
			return nil
		},
	}

	return cmd
}
