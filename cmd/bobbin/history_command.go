package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bobbin/internal/runlog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showFailures bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := runlog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.RunID,
					run.StartedAt.Local().Format(time.DateTime),
					run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
					strconv.Itoa(run.Sources),
					strconv.Itoa(run.Fetched),
					strconv.Itoa(run.Transcoded),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Duration", "Sources", "Fetched", "Transcoded", "Skipped", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))

			if !showFailures {
				return nil
			}
			for _, run := range runs {
				if run.Failed == 0 {
					continue
				}
				failures, err := store.Failures(cmd.Context(), run.RunID)
				if err != nil {
					return fmt.Errorf("list failures for %s: %w", run.RunID, err)
				}
				failureRows := make([][]string, 0, len(failures))
				for _, failure := range failures {
					failureRows = append(failureRows, []string{
						failure.AssetID, failure.Stage, failure.Rendition, failure.Message,
					})
				}
				fmt.Fprintf(out, "\nFailures for %s:\n", run.RunID)
				fmt.Fprintln(out, renderTable(
					[]string{"Asset", "Stage", "Rendition", "Error"},
					failureRows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&showFailures, "failures", false, "Show per-asset failures for each run")
	return cmd
}
