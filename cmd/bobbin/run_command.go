package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bobbin/internal/logging"
	"bobbin/internal/pipeline"
	"bobbin/internal/preflight"
	"bobbin/internal/runlog"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run <source-list>",
		Short: "Fetch and transcode every asset in the source list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			if !skipPreflight {
				results := preflight.RunAll(cmd.Context(), cfg)
				if !preflight.AllPassed(results) {
					fmt.Fprintln(out, renderPreflightTable(results))
					return fmt.Errorf("preflight checks failed (use --skip-preflight to bypass)")
				}
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			result, runErr := pipeline.Run(cmd.Context(), pipeline.Options{
				Config:     cfg,
				SourceList: args[0],
				Logger:     logger,
			})
			if result != nil {
				if store, storeErr := runlog.Open(cfg); storeErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: run history unavailable: %v\n", storeErr)
				} else {
					if recordErr := store.RecordRun(cmd.Context(), result); recordErr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: record run history: %v\n", recordErr)
					}
					_ = store.Close()
				}
				renderRunSummary(out, result)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before the run")
	return cmd
}

func renderRunSummary(out io.Writer, result *pipeline.Result) {
	printer := message.NewPrinter(language.English)

	for _, line := range headingLines(fmt.Sprintf("Run %s (%s)", result.RunID, result.Duration().Round(10*time.Millisecond)), shouldColorize(out)) {
		fmt.Fprintln(out, line)
	}

	rows := [][]string{
		{"Sources", printer.Sprintf("%d", result.Sources)},
		{"Fetched", printer.Sprintf("%d", result.Fetched)},
		{"Transcoded", printer.Sprintf("%d", result.Transcoded)},
		{"Skipped", printer.Sprintf("%d", result.Skipped)},
		{"Failed", printer.Sprintf("%d", result.Failed)},
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Assets"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))

	if len(result.Failures) == 0 {
		return
	}
	failureRows := make([][]string, 0, len(result.Failures))
	for _, failure := range result.Failures {
		detail := ""
		if failure.Err != nil {
			detail = failure.Err.Error()
		}
		failureRows = append(failureRows, []string{failure.AssetID, failure.Stage, failure.Rendition, detail})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Asset", "Stage", "Rendition", "Error"},
		failureRows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

func headingLines(line string, colorize bool) []string {
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}
